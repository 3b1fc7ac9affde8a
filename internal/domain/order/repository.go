package order

import (
	"context"
)

// Repository 订单仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
type Repository interface {
	// Create 创建订单
	// 教学要点:必须与库存扣减在同一事务中执行
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单
	FindByID(ctx context.Context, id uint) (*Order, error)

	// Update 更新订单(主要用于状态更新)
	Update(ctx context.Context, order *Order) error

	// ListByPhone 按电话号码查询订单(含书名单价,按创建时间倒序)
	// 教学要点:对话查单无账号体系,电话号码即身份
	ListByPhone(ctx context.Context, phone string) ([]*OrderWithBook, error)

	// Count 订单总数(统计接口)
	Count(ctx context.Context) (int64, error)
}
