package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/bookchat/internal/domain/session"
)

func TestConfirmCancelEdit(t *testing.T) {
	assert.True(t, IsConfirm("có"))
	assert.True(t, IsConfirm("đúng rồi"))
	assert.True(t, IsConfirm("ok xác nhận"))

	assert.True(t, IsCancel("hủy đơn"))
	assert.True(t, IsCancel("thôi khỏi"))

	assert.True(t, IsEditRequest("sửa tên"))
	assert.True(t, IsEditRequest("thông tin sai rồi"))

	assert.False(t, IsEditRequest("giao nhanh nhé"))
}

func TestEditFields(t *testing.T) {
	assert.Equal(t, []session.Field{session.FieldName}, EditFields("sửa tên"))
	assert.Equal(t,
		[]session.Field{session.FieldName, session.FieldPhone},
		EditFields("sửa tên và sđt"))
	assert.Equal(t,
		[]session.Field{session.FieldQuantity},
		EditFields("đổi số lượng"))
	assert.Empty(t, EditFields("sửa giúp tôi"))
}

// TestEditFields_PhoneDoesNotTriggerQuantity "số điện thoại"不应误判为数量
func TestEditFields_PhoneDoesNotTriggerQuantity(t *testing.T) {
	fields := EditFields("sửa số điện thoại")
	assert.Equal(t, []session.Field{session.FieldPhone}, fields)
}
