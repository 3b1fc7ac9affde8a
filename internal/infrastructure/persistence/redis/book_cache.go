package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/bookchat/internal/domain/book"
)

const (
	// defaultBookCacheTTL 图书详情缓存默认过期时间
	defaultBookCacheTTL = 10 * time.Minute
	// searchCacheTTL 词法检索结果缓存过期时间
	// 检索结果无法按写路径精确失效,只能靠短TTL兜底
	searchCacheTTL = time.Minute
)

// CachedBookRepository 图书仓储的缓存装饰器(Cache-Aside模式)
// 设计说明:
// 1. 缓存FindByID(对话下单会反复按ID取同一本书)和Search(热门关键词重复查询)
// 2. 写路径(Create/UpdateStock)主动失效详情缓存,不做双写;检索缓存靠短TTL过期
// 3. Redis故障只记日志,全部请求穿透到MySQL,功能不受影响
// 4. 库存字段有时效性,TTL必须短;下单扣减走悲观锁读库,不经过缓存
type CachedBookRepository struct {
	book.Repository // 其余方法直接透传底层仓储

	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBookRepository 包装图书仓储,添加Redis缓存
func NewCachedBookRepository(inner book.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedBookRepository {
	if ttl <= 0 {
		ttl = defaultBookCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedBookRepository{
		Repository: inner,
		client:     client,
		ttl:        ttl,
		logger:     logger,
	}
}

func bookCacheKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}

func searchCacheKey(keyword string, limit int) string {
	return fmt.Sprintf("book:search:%d:%s", limit, keyword)
}

// FindByID 先查缓存,未命中回源MySQL并写入缓存
func (r *CachedBookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	key := bookCacheKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var b book.Book
		if err := json.Unmarshal(raw, &b); err == nil {
			return &b, nil
		}
		// 缓存内容损坏,删除后回源
		r.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("读取图书缓存失败,回源数据库", zap.Uint("book_id", id), zap.Error(err))
	}

	b, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(b); err == nil {
		if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
			r.logger.Warn("写入图书缓存失败", zap.Uint("book_id", id), zap.Error(err))
		}
	}

	return b, nil
}

// Search 词法检索结果缓存,命中直接返回,未命中回源后短TTL写入
func (r *CachedBookRepository) Search(ctx context.Context, keyword string, limit int) ([]*book.Book, error) {
	key := searchCacheKey(keyword, limit)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var books []*book.Book
		if err := json.Unmarshal(raw, &books); err == nil {
			return books, nil
		}
		r.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("读取检索缓存失败,回源数据库", zap.String("keyword", keyword), zap.Error(err))
	}

	books, err := r.Repository.Search(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(books); err == nil {
		if err := r.client.Set(ctx, key, raw, searchCacheTTL).Err(); err != nil {
			r.logger.Warn("写入检索缓存失败", zap.String("keyword", keyword), zap.Error(err))
		}
	}

	return books, nil
}

// Create 创建图书后无需失效(新ID不可能有缓存),透传即可
func (r *CachedBookRepository) Create(ctx context.Context, b *book.Book) error {
	return r.Repository.Create(ctx, b)
}

// UpdateStock 扣减库存后失效缓存,下一次读取回源拿最新库存
func (r *CachedBookRepository) UpdateStock(ctx context.Context, id uint, delta int) error {
	if err := r.Repository.UpdateStock(ctx, id, delta); err != nil {
		return err
	}

	if err := r.client.Del(ctx, bookCacheKey(id)).Err(); err != nil {
		// 失效失败容忍:TTL兜底,过期后自然回源
		r.logger.Warn("失效图书缓存失败", zap.Uint("book_id", id), zap.Error(err))
	}
	return nil
}
