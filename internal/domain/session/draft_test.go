package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/bookchat/internal/domain/book"
)

func sampleBook() *book.Book {
	return &book.Book{
		ID:    7,
		Title: "Nhà Giả Kim",
		Price: 79000,
		Stock: 10,
	}
}

// TestOrderDraft_MissingFields 缺槽按固定顺序返回
func TestOrderDraft_MissingFields(t *testing.T) {
	d := &OrderDraft{}
	assert.Equal(t, []Field{FieldBook, FieldQuantity, FieldName, FieldPhone, FieldAddress}, d.MissingFields())

	d.SetBook(sampleBook())
	d.Phone = "0912345678"
	assert.Equal(t, []Field{FieldQuantity, FieldName, FieldAddress}, d.MissingFields())
	assert.False(t, d.Complete())

	d.Quantity = 2
	d.CustomerName = "Nguyễn Văn A"
	d.Address = "123 Lê Lợi, Quận 1, TP.HCM"
	assert.Empty(t, d.MissingFields())
	assert.True(t, d.Complete())
}

// TestOrderDraft_QuantityZeroIsMissing 数量为0视为未填写
func TestOrderDraft_QuantityZeroIsMissing(t *testing.T) {
	d := &OrderDraft{Quantity: 0}
	assert.False(t, d.FilledField(FieldQuantity))

	d.Quantity = 1
	assert.True(t, d.FilledField(FieldQuantity))
}

// TestOrderDraft_Total 总金额=单价×数量
func TestOrderDraft_Total(t *testing.T) {
	d := &OrderDraft{}
	assert.Equal(t, int64(0), d.Total())

	d.SetBook(sampleBook())
	d.Quantity = 3
	assert.Equal(t, int64(237000), d.Total())
	assert.Equal(t, uint(7), d.BookID)
}

// TestSession_AppendTurn 历史超出上限后丢弃最旧记录
func TestSession_AppendTurn(t *testing.T) {
	s := NewSession("s1")
	for i := 0; i < 15; i++ {
		s.AppendTurn(RoleUser, "tin nhắn")
	}
	assert.Len(t, s.History, maxHistoryTurns)

	recent := s.RecentHistory(3)
	assert.Len(t, recent, 3)
}

func TestField_DisplayName(t *testing.T) {
	assert.Equal(t, "số điện thoại", FieldPhone.DisplayName())
	assert.Equal(t, "tên khách hàng", FieldName.DisplayName())
}
