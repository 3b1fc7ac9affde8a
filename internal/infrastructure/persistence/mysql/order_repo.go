package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookchat/internal/domain/order"
	apperrors "github.com/xiebiao/bookchat/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 教学要点:
// 1. 订单创建必须与库存扣减在同一事务中,事务通过context传递
// 2. 查单按电话号码JOIN图书表带出书名与单价,一次查询完成
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单
// 教学要点:必须在事务中调用(通过getDB从context获取事务DB)
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	db := r.getDB(ctx)
	if err := db.Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建订单失败")
	}

	// 回填自增ID与时间戳
	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	db := r.getDB(ctx)
	err := db.First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// Update 更新订单
// 教学要点:主要用于状态更新
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	db := r.getDB(ctx)

	result := db.Model(&OrderModel{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"status":     int(o.Status),
		"updated_at": o.UpdatedAt,
	})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单失败")
	}

	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

// orderWithBookRow JOIN查询的扫描结构
type orderWithBookRow struct {
	OrderModel
	BookTitle    string
	PricePerBook int64
}

// ListByPhone 按电话号码查询订单(含书名单价,按创建时间倒序)
// 教学要点:
// 1. 对话查单无账号体系,电话号码即身份
// 2. LEFT JOIN保证图书被下架后订单仍然可查
func (r *orderRepository) ListByPhone(ctx context.Context, phone string) ([]*order.OrderWithBook, error) {
	var rows []orderWithBookRow

	err := r.db.WithContext(ctx).Model(&OrderModel{}).
		Select("orders.*, books.title AS book_title, books.price AS price_per_book").
		Joins("LEFT JOIN books ON books.id = orders.book_id").
		Where("orders.phone = ?", phone).
		Order("orders.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询订单列表失败")
	}

	result := make([]*order.OrderWithBook, len(rows))
	for i := range rows {
		result[i] = &order.OrderWithBook{
			Order:        *toOrderEntity(&rows[i].OrderModel),
			BookTitle:    rows[i].BookTitle,
			PricePerBook: rows[i].PricePerBook,
		}
	}
	return result, nil
}

// Count 订单总数
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&total).Error; err != nil {
		return 0, apperrors.Wrap(err, "统计订单总数失败")
	}
	return total, nil
}

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Phone:        o.Phone,
		Address:      o.Address,
		BookID:       o.BookID,
		Quantity:     o.Quantity,
		Status:       int(o.Status),
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(model *OrderModel) *order.Order {
	return &order.Order{
		ID:           model.ID,
		CustomerName: model.CustomerName,
		Phone:        model.Phone,
		Address:      model.Address,
		BookID:       model.BookID,
		Quantity:     model.Quantity,
		Status:       order.OrderStatus(model.Status),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
