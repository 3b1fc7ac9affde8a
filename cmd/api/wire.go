//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire是Google开发的编译期依赖注入工具
// 2. 与运行时反射注入不同，Wire在编译期生成代码
// 3. 优势：零运行时开销、类型安全、编译期检测循环依赖
//
// Wire工作流程：
// Step 1: 编写wire.go（本文件），定义Providers和Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 4: main.go调用wire_gen.go中的InitializeApp()

package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appbook "github.com/xiebiao/bookchat/internal/application/book"
	"github.com/xiebiao/bookchat/internal/application/chat"
	appintent "github.com/xiebiao/bookchat/internal/application/intent"
	apporder "github.com/xiebiao/bookchat/internal/application/order"
	"github.com/xiebiao/bookchat/internal/application/retrieval"
	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/domain/order"
	"github.com/xiebiao/bookchat/internal/domain/session"
	"github.com/xiebiao/bookchat/internal/infrastructure/config"
	"github.com/xiebiao/bookchat/internal/infrastructure/llm"
	"github.com/xiebiao/bookchat/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookchat/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookchat/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookchat/internal/infrastructure/vector"
	"github.com/xiebiao/bookchat/internal/interface/http/handler"
	"github.com/xiebiao/bookchat/internal/interface/http/middleware"
	"github.com/xiebiao/bookchat/pkg/logger"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	provideLogger,   // zap日志
	mysql.NewDB,     // 创建MySQL连接(含迁移与种子书目)
	provideBookRepo, // 图书仓储(带条件Redis缓存)
	provideOrderRepo,
	provideTxManager,
	provideSessionStore,
	provideOllamaClient,
	provideVectorIndex, // 向量索引(启动时构建)
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	provideRetrievalEngine,
	provideClassifier,
	apporder.NewPlaceOrderUseCase,
	apporder.NewListOrdersUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewStatsUseCase,
	provideChatManager,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewChatHandler,
	handler.NewBookHandler,
	handler.NewOrderHandler,
	handler.NewStatsHandler,
)

// provideLogger 从配置创建zap日志
func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
}

// provideBookRepo 图书仓储
// Redis可用时包缓存装饰器,不可用时直连MySQL(降级不报错)
func provideBookRepo(db *gorm.DB, cfg *config.Config, zlog *zap.Logger) book.Repository {
	var repo book.Repository = mysql.NewBookRepository(db)
	if client, err := redis.NewClient(cfg); err != nil {
		zlog.Warn("Redis不可用,图书缓存关闭", zap.Error(err))
	} else {
		repo = redis.NewCachedBookRepository(repo, client, cfg.Redis.CacheTTL, zlog)
	}
	return repo
}

func provideOrderRepo(db *gorm.DB) order.Repository {
	return mysql.NewOrderRepository(db)
}

func provideTxManager(db *gorm.DB) apporder.TxManager {
	return mysql.NewTxManager(db)
}

func provideSessionStore() session.Store {
	return memory.NewSessionStore()
}

func provideOllamaClient(cfg *config.Config, zlog *zap.Logger) *llm.Client {
	return llm.NewClient(cfg, zlog)
}

// provideVectorIndex 创建向量索引并在启动时全量构建
// 构建失败只告警:检索层会用词法通道兜底
func provideVectorIndex(client *llm.Client, repo book.Repository, cfg *config.Config, zlog *zap.Logger) *vector.Index {
	index := vector.NewIndex(client, zlog)
	if !cfg.Vector.Enabled {
		zlog.Info("向量检索已关闭,仅词法检索")
		return index
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if books, err := repo.ListAll(ctx); err != nil {
		zlog.Warn("读取书目失败,向量索引为空", zap.Error(err))
	} else if err := index.Rebuild(ctx, books); err != nil {
		zlog.Warn("构建向量索引失败,仅词法检索", zap.Error(err))
	}
	return index
}

func provideRetrievalEngine(repo book.Repository, index *vector.Index, zlog *zap.Logger) *retrieval.Engine {
	return retrieval.NewEngine(repo, index, zlog)
}

func provideClassifier(client *llm.Client, zlog *zap.Logger) *appintent.Classifier {
	return appintent.NewClassifier(client, zlog)
}

func provideChatManager(
	sessions session.Store,
	classifier *appintent.Classifier,
	engine *retrieval.Engine,
	placeOrder *apporder.PlaceOrderUseCase,
	listOrders *apporder.ListOrdersUseCase,
	client *llm.Client,
	cfg *config.Config,
	zlog *zap.Logger,
) *chat.Manager {
	return chat.NewManager(sessions, classifier, engine, placeOrder, listOrders, client, cfg.Chat.TopK, zlog)
}

// provideGinEngine 创建Gin引擎并注册路由
func provideGinEngine(
	cfg *config.Config,
	zlog *zap.Logger,
	chatHandler *handler.ChatHandler,
	bookHandler *handler.BookHandler,
	orderHandler *handler.OrderHandler,
	statsHandler *handler.StatsHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(zlog),
		middleware.Recovery(zlog),
		middleware.CORS(),
		middleware.Metrics(),
	)

	registerRoutes(r, chatHandler, bookHandler, orderHandler, statsHandler)
	return r
}

// InitializeApp 初始化整个应用
// Wire会按依赖关系顺序调用所有Provider,生成wire_gen.go
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		applicationSet,
		handlerSet,
		provideGinEngine,
	)
	return nil, nil
}
