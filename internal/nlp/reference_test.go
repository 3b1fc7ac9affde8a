package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/bookchat/internal/domain/book"
)

func threeBooks() []*book.Book {
	return []*book.Book{
		{ID: 1, Title: "Đắc Nhân Tâm"},
		{ID: 2, Title: "Nhà Giả Kim"},
		{ID: 3, Title: "Atomic Habits"},
	}
}

func TestResolveBookRef_Ordinal(t *testing.T) {
	books := threeBooks()

	assert.Equal(t, books[0], ResolveBookRef("đặt cuốn số 1", books))
	assert.Equal(t, books[1], ResolveBookRef("mua sách 2", books))
	assert.Equal(t, books[2], ResolveBookRef("lấy quyển 3", books))
	assert.Equal(t, books[1], ResolveBookRef("cuốn thứ 2 nhé", books))
}

// TestResolveBookRef_OutOfRange 序号越界返回nil,不收敛到边界
func TestResolveBookRef_OutOfRange(t *testing.T) {
	books := threeBooks()

	assert.Nil(t, ResolveBookRef("cuốn số 5", books))
	assert.Nil(t, ResolveBookRef("sách số 0", books))
}

func TestResolveBookRef_Deictic(t *testing.T) {
	books := threeBooks()

	assert.Equal(t, books[0], ResolveBookRef("lấy cuốn đầu tiên", books))
	assert.Equal(t, books[1], ResolveBookRef("cuốn thứ hai", books))
	assert.Equal(t, books[2], ResolveBookRef("cuốn cuối cùng", books))
	assert.Equal(t, books[0], ResolveBookRef("đặt cuốn này", books))
}

// TestResolveBookRef_EmptyList 没有检索历史时任何指代都落空
func TestResolveBookRef_EmptyList(t *testing.T) {
	assert.Nil(t, ResolveBookRef("cuốn đầu tiên", nil))
	assert.Nil(t, ResolveBookRef("cuốn số 1", []*book.Book{}))
}

func TestResolveBookRef_NoReference(t *testing.T) {
	assert.Nil(t, ResolveBookRef("xin chào", threeBooks()))
}

func TestExtractOrderTitle(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"đặt sách Nhà Giả Kim", "nhà giả kim"},
		{"mua cuốn Atomic Habits với số lượng 2", "atomic habits"},
		{"tôi muốn mua Đắc Nhân Tâm", "đắc nhân tâm"},
		{"xin chào", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractOrderTitle(tt.message), "message=%q", tt.message)
	}
}
