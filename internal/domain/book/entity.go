package book

import (
	"time"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是图书聚合的根实体,包含图书的核心属性
// 2. 价格使用int64存储,单位为越南盾(VND,无小数位,避免浮点数精度问题)
// 3. Category用于按类目浏览与降级推荐(检索不到结果时按类目兜底)
// 4. Description参与向量化:标题+作者+类目+描述拼接后送入Embedding模型
type Book struct {
	ID          uint
	Title       string // 书名
	Author      string // 作者
	Price       int64  // 价格(单位:越南盾)
	Stock       int    // 库存数量
	Category    string // 类目(văn học, kỹ năng, thiếu nhi...)
	Description string // 图书描述
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook 创建新图书(工厂方法)
func NewBook(title, author string, price int64, stock int, category, description string) *Book {
	now := time.Now()
	return &Book{
		Title:       title,
		Author:      author,
		Price:       price,
		Stock:       stock,
		Category:    category,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// InStock 是否有库存(检索排序时有货加分)
func (b *Book) InStock() bool {
	return b.Stock > 0
}

// EmbeddingText 拼接参与向量化的文本
// 业务规则:标题权重最高放最前,其余字段提供语义上下文
func (b *Book) EmbeddingText() string {
	return b.Title + " " + b.Author + " " + b.Category + " " + b.Description
}

// DecrStock 扣减库存(用于订单创建)
// 业务规则:扣减后库存不能为负数
func (b *Book) DecrStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if b.Stock < quantity {
		return ErrInsufficientStock
	}
	b.Stock -= quantity
	b.UpdatedAt = time.Now()
	return nil
}

// IncrStock 增加库存(用于订单取消、补货)
func (b *Book) IncrStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	b.Stock += quantity
	b.UpdatedAt = time.Now()
	return nil
}
