package dto

import "time"

// ListOrdersQuery 订单查询参数
type ListOrdersQuery struct {
	Phone string `form:"phone" binding:"required" example:"0912345678"`
}

// OrderResponse 订单响应(含书名与单价,查单接口用)
type OrderResponse struct {
	ID           uint      `json:"id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	BookID       uint      `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	Quantity     int       `json:"quantity"`
	PricePerBook int64     `json:"price_per_book"` // 单价(越南盾)
	Total        int64     `json:"total"`          // 合计(越南盾)
	Status       int       `json:"status"`
	StatusText   string    `json:"status_text"` // 越南语状态文案
	CreatedAt    time.Time `json:"created_at"`
}
