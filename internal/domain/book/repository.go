package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
// 3. Search是词法检索入口,与向量检索结果在应用层合并
type Repository interface {
	// Create 创建图书(目录初始化时导入)
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// Search 词法检索:关键词对标题/作者/描述做LIKE匹配
	// limit<=0时使用默认上限
	Search(ctx context.Context, keyword string, limit int) ([]*Book, error)

	// FindByCategory 按类目查询(检索降级推荐用)
	FindByCategory(ctx context.Context, category string, limit int) ([]*Book, error)

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// ListAll 全量查询(启动时重建向量索引用)
	ListAll(ctx context.Context) ([]*Book, error)

	// Count 图书总数(统计接口)
	Count(ctx context.Context) (int64, error)

	// CountByCategory 按类目统计(统计接口)
	CountByCategory(ctx context.Context) (map[string]int64, error)

	// LockByID 悲观锁查询图书(用于订单创建时锁定库存)
	// 使用SELECT FOR UPDATE锁定行,防止并发超卖
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateStock 更新库存(原子操作)
	// delta为正数表示增加,负数表示减少
	// 内部会检查库存是否充足,不足则返回ErrInsufficientStock
	UpdateStock(ctx context.Context, id uint, delta int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词(搜索标题、作者、描述)
	Category string // 类目过滤
}
