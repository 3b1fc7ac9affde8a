// 越南语图书对话助手服务
//
// 提供对话式的找书、下单、查单能力:
// - 意图分类:关键词规则先行,置信度不足时Ollama兜底
// - 图书检索:MySQL词法 + 进程内向量索引的混合检索
// - 下单流程:多轮槽位收集 + 确认 + 事务落库(悲观锁防超卖)
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/bookchat/internal/application/book"
	"github.com/xiebiao/bookchat/internal/application/chat"
	appintent "github.com/xiebiao/bookchat/internal/application/intent"
	apporder "github.com/xiebiao/bookchat/internal/application/order"
	"github.com/xiebiao/bookchat/internal/application/retrieval"
	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/infrastructure/config"
	"github.com/xiebiao/bookchat/internal/infrastructure/llm"
	"github.com/xiebiao/bookchat/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookchat/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookchat/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookchat/internal/infrastructure/vector"
	"github.com/xiebiao/bookchat/internal/interface/http/handler"
	"github.com/xiebiao/bookchat/internal/interface/http/middleware"
	"github.com/xiebiao/bookchat/pkg/logger"
	"github.com/xiebiao/bookchat/pkg/metrics"
	"github.com/xiebiao/bookchat/pkg/response"
)

// main 主程序入口
// 说明:手动依赖注入(wire.go提供Wire版本,两者组装结果一致)
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	zlog, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()
	response.SetLogger(zlog)

	// 3. 注册Prometheus指标
	metrics.InitMetrics()

	zlog.Info("配置加载成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("database", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("ollama", cfg.Ollama.BaseURL))

	// 4. 初始化数据库连接(含迁移与种子书目)
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 5. 依赖注入(手动组装)
	// Repository ← UseCase ← Manager ← Handler

	// 基础设施层
	var bookRepo book.Repository = mysql.NewBookRepository(db)

	// Redis缓存:连不上只降级不退出,所有读请求直接走MySQL
	if redisClient, err := redis.NewClient(cfg); err != nil {
		zlog.Warn("Redis不可用,图书缓存关闭", zap.Error(err))
	} else {
		bookRepo = redis.NewCachedBookRepository(bookRepo, redisClient, cfg.Redis.CacheTTL, zlog)
	}

	orderRepo := mysql.NewOrderRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := memory.NewSessionStore()
	ollamaClient := llm.NewClient(cfg, zlog)

	// 向量索引:启动时全量构建,失败只告警(词法检索兜底)
	index := vector.NewIndex(ollamaClient, zlog)
	if cfg.Vector.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if books, err := bookRepo.ListAll(ctx); err != nil {
			zlog.Warn("读取书目失败,向量索引为空", zap.Error(err))
		} else if err := index.Rebuild(ctx, books); err != nil {
			zlog.Warn("构建向量索引失败,仅词法检索", zap.Error(err))
		}
		cancel()
	} else {
		zlog.Info("向量检索已关闭,仅词法检索")
	}

	// 应用层
	engine := retrieval.NewEngine(bookRepo, index, zlog)
	classifier := appintent.NewClassifier(ollamaClient, zlog)
	placeOrderUseCase := apporder.NewPlaceOrderUseCase(orderRepo, bookRepo, txManager)
	listOrdersUseCase := apporder.NewListOrdersUseCase(orderRepo)
	listBooksUseCase := appbook.NewListBooksUseCase(bookRepo)
	statsUseCase := appbook.NewStatsUseCase(bookRepo, orderRepo, sessionStore)

	chatManager := chat.NewManager(
		sessionStore,
		classifier,
		engine,
		placeOrderUseCase,
		listOrdersUseCase,
		ollamaClient,
		cfg.Chat.TopK,
		zlog,
	)

	// 接口层
	chatHandler := handler.NewChatHandler(chatManager, sessionStore)
	bookHandler := handler.NewBookHandler(listBooksUseCase)
	orderHandler := handler.NewOrderHandler(listOrdersUseCase)
	statsHandler := handler.NewStatsHandler(statsUseCase)

	// 6. 初始化Gin引擎
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

	// 7. 注册路由
	registerRoutes(r, chatHandler, bookHandler, orderHandler, statsHandler)

	// 8. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Info("服务启动", zap.String("addr", addr))
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   对话接口: POST http://localhost%s/api/v1/chat\n", addr)
	fmt.Printf("   图书列表: GET  http://localhost%s/api/v1/books\n", addr)
	fmt.Printf("   订单查询: GET  http://localhost%s/api/v1/orders?phone=...\n", addr)
	fmt.Printf("   API文档:  http://localhost%s/swagger/index.html\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	chatHandler *handler.ChatHandler,
	bookHandler *handler.BookHandler,
	orderHandler *handler.OrderHandler,
	statsHandler *handler.StatsHandler,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档
	// 访问 http://localhost:8080/swagger/index.html 查看API文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 对话模块(核心入口)
		v1.POST("/chat", chatHandler.Chat)
		v1.POST("/chat/reset", chatHandler.ResetSession)

		// 图书模块
		v1.GET("/books", bookHandler.ListBooks)

		// 订单模块(下单走对话,这里只提供查询)
		v1.GET("/orders", orderHandler.ListOrders)

		// 统计模块
		v1.GET("/stats", statsHandler.Stats)
	}
}
