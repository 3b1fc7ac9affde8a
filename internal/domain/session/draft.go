package session

import (
	"github.com/xiebiao/bookchat/internal/domain/book"
)

// Field 订单草稿字段标识
type Field string

const (
	FieldBook     Field = "book"
	FieldQuantity Field = "quantity"
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
	FieldAddress  Field = "address"
)

// DisplayName 返回面向顾客的越南语字段名(缺槽提示、修改确认用)
func (f Field) DisplayName() string {
	switch f {
	case FieldBook:
		return "tên sách"
	case FieldQuantity:
		return "số lượng"
	case FieldName:
		return "tên khách hàng"
	case FieldPhone:
		return "số điện thoại"
	case FieldAddress:
		return "địa chỉ"
	default:
		return string(f)
	}
}

// fieldOrder 缺槽提示的固定顺序(每轮提示稳定,便于顾客理解)
var fieldOrder = []Field{FieldBook, FieldQuantity, FieldName, FieldPhone, FieldAddress}

// OrderDraft 订单草稿(多轮槽位收集的载体)
// 设计说明:
// 1. Book保存实体引用(回复需要书名和单价),BookID冗余用于下单
// 2. Quantity为0表示未填写,默认值在进入确认阶段前补为1的决策在对话层
// 3. 草稿只存在于会话内存中,确认后才落库为Order
type OrderDraft struct {
	Book         *book.Book
	BookID       uint
	Quantity     int
	CustomerName string
	Phone        string
	Address      string
}

// SetBook 填入图书并同步BookID
func (d *OrderDraft) SetBook(b *book.Book) {
	d.Book = b
	if b != nil {
		d.BookID = b.ID
	}
}

// FilledField 判断指定字段是否已填写
func (d *OrderDraft) FilledField(f Field) bool {
	switch f {
	case FieldBook:
		return d.Book != nil
	case FieldQuantity:
		return d.Quantity > 0
	case FieldName:
		return d.CustomerName != ""
	case FieldPhone:
		return d.Phone != ""
	case FieldAddress:
		return d.Address != ""
	default:
		return false
	}
}

// MissingFields 按固定顺序返回未填写的字段
func (d *OrderDraft) MissingFields() []Field {
	var missing []Field
	for _, f := range fieldOrder {
		if !d.FilledField(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete 判断草稿是否已集齐全部字段
func (d *OrderDraft) Complete() bool {
	return len(d.MissingFields()) == 0
}

// Total 计算订单总金额(越南盾)
func (d *OrderDraft) Total() int64 {
	if d.Book == nil {
		return 0
	}
	return d.Book.Price * int64(d.Quantity)
}
