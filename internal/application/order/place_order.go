package order

import (
	"context"

	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/domain/order"
	"github.com/xiebiao/bookchat/pkg/metrics"
)

// TxManager 事务管理接口
// 教学要点:定义为接口而非直接依赖*gorm.DB,
// 用例层不感知数据库,测试时用内存实现替换
type TxManager interface {
	// Transaction 在同一事务中执行fn,fn返回error则整体回滚
	Transaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// PlaceOrderUseCase 创建订单用例
// 教学要点:这是整个项目最核心的用例之一
// 涉及:事务处理、并发控制、业务规则校验
type PlaceOrderUseCase struct {
	orderRepo order.Repository
	bookRepo  book.Repository
	txManager TxManager
}

// NewPlaceOrderUseCase 创建下单用例
func NewPlaceOrderUseCase(
	orderRepo order.Repository,
	bookRepo book.Repository,
	txManager TxManager,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		orderRepo: orderRepo,
		bookRepo:  bookRepo,
		txManager: txManager,
	}
}

// PlaceOrderRequest 下单请求DTO(字段来自对话槽位收集)
type PlaceOrderRequest struct {
	CustomerName string
	Phone        string
	Address      string
	BookID       uint
	Quantity     int
}

// PlaceOrderResponse 下单响应DTO
type PlaceOrderResponse struct {
	OrderID   uint
	BookTitle string
	Quantity  int
	Total     int64 // 总金额(越南盾)
}

// Execute 执行下单
// 教学重点:防止超卖的完整流程
//
// 核心问题:库存超卖
// 场景:库存10本,100个会话同时确认下单
// 错误实现:先查库存再扣减,并发下100个请求都能通过检查
// 正确实现:悲观锁
//  1. SELECT FOR UPDATE 锁定库存行
//  2. 判断库存是否充足
//  3. 创建订单
//  4. 扣减库存(带stock+delta>=0条件,双保险)
//  5. COMMIT释放锁
// 订单创建与库存扣减在同一事务中,任何一步失败全部回滚
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	if req.Quantity <= 0 {
		return nil, order.ErrInvalidQuantity
	}

	var resp *PlaceOrderResponse
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 锁定库存行,其他事务必须等待COMMIT/ROLLBACK
		b, err := uc.bookRepo.LockByID(txCtx, req.BookID)
		if err != nil {
			return err
		}

		// 必须在锁定后检查,否则并发扣减会超卖
		if b.Stock < req.Quantity {
			return book.ErrInsufficientStock
		}

		newOrder := order.NewOrder(req.CustomerName, req.Phone, req.Address, req.BookID, req.Quantity)
		if err := uc.orderRepo.Create(txCtx, newOrder); err != nil {
			return err
		}

		if err := uc.bookRepo.UpdateStock(txCtx, req.BookID, -req.Quantity); err != nil {
			// 扣减失败整个事务回滚,订单不会留下
			return err
		}

		resp = &PlaceOrderResponse{
			OrderID:   newOrder.ID,
			BookTitle: b.Title,
			Quantity:  req.Quantity,
			Total:     b.Price * int64(req.Quantity),
		}
		return nil
	})
	if err != nil {
		metrics.OrdersFailedTotal.Inc()
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	return resp, nil
}
