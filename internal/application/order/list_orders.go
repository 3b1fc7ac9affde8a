package order

import (
	"context"

	"github.com/xiebiao/bookchat/internal/domain/order"
)

// ListOrdersUseCase 按电话号码查询订单用例
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

// NewListOrdersUseCase 创建查单用例
func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

// Execute 查询指定电话的全部订单(最新的在前)
// 没有订单返回空切片,不算错误
func (uc *ListOrdersUseCase) Execute(ctx context.Context, phone string) ([]*order.OrderWithBook, error) {
	return uc.orderRepo.ListByPhone(ctx, phone)
}
