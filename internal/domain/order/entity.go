package order

import (
	"time"
)

// OrderStatus 订单状态
// 教学要点:
// 1. 使用int类型而非string(节省存储空间,便于索引)
// 2. 定义为类型别名,便于添加方法
// 3. 状态值设计:1-5递增,便于理解流转方向
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 1 // 待确认
	OrderStatusConfirmed OrderStatus = 2 // 已确认
	OrderStatusShipped   OrderStatus = 3 // 已发货
	OrderStatusCompleted OrderStatus = 4 // 已完成
	OrderStatusCancelled OrderStatus = 5 // 已取消
)

// String 返回面向顾客的越南语状态文案(对话回复直接使用)
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "Chờ xác nhận"
	case OrderStatusConfirmed:
		return "Đã xác nhận"
	case OrderStatusShipped:
		return "Đang giao hàng"
	case OrderStatusCompleted:
		return "Đã hoàn thành"
	case OrderStatusCancelled:
		return "Đã hủy"
	default:
		return "Không xác định"
	}
}

// Order 订单实体(聚合根)
// 教学要点:
// 1. 对话下单每次只含一本书,无需OrderItem子实体
// 2. 顾客信息(姓名/电话/地址)在对话槽位抽取时已校验
// 3. 电话号码是顾客查单的业务键(无账号体系)
type Order struct {
	ID           uint
	CustomerName string      // 顾客姓名
	Phone        string      // 联系电话(查单业务键)
	Address      string      // 收货地址
	BookID       uint        // 图书ID
	Quantity     int         // 购买数量
	Status       OrderStatus // 订单状态
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderWithBook 订单联查视图(查单回复需要书名和单价)
type OrderWithBook struct {
	Order
	BookTitle    string // 下单图书书名
	PricePerBook int64  // 当前单价(越南盾)
}

// NewOrder 创建新订单(工厂方法)
// 初始状态为Pending(待确认)
func NewOrder(customerName, phone, address string, bookID uint, quantity int) *Order {
	now := time.Now()
	return &Order{
		CustomerName: customerName,
		Phone:        phone,
		Address:      address,
		BookID:       bookID,
		Quantity:     quantity,
		Status:       OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanTransitionTo 检查是否可以转换到目标状态
// 教学要点:状态机设计,防止非法状态跳转
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:   {OrderStatusCompleted},
		OrderStatusCompleted: {},
		OrderStatusCancelled: {},
	}

	allowedTargets, exists := transitions[o.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTargets {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}
