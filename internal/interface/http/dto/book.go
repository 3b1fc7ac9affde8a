package dto

// ListBooksQuery 图书列表查询参数
type ListBooksQuery struct {
	Page     int    `form:"page,default=1" binding:"min=0"`
	PageSize int    `form:"page_size,default=20" binding:"min=0,max=100"`
	Keyword  string `form:"keyword"`
	Category string `form:"category"`
}

// BookResponse 图书响应
type BookResponse struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    int64  `json:"price"` // 价格(越南盾)
	Stock    int    `json:"stock"`
	Category string `json:"category"`
}
