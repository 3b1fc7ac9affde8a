package nlp

import (
	"strings"

	"github.com/xiebiao/bookchat/internal/domain/session"
)

// 确认阶段的关键词组
// 注意判定顺序由调用方(对话层)保证:修改 > 确认 > 取消
var (
	confirmKeywords = []string{"có", "đúng", "chính xác", "yes", "ok", "xác nhận"}
	cancelKeywords  = []string{"hủy", "cancel", "không", "no", "thôi"}
	editKeywords    = []string{"sửa", "thay đổi", "sai", "edit", "change"}
)

// IsConfirm 是否为确认回复
func IsConfirm(message string) bool {
	return containsAny(strings.ToLower(message), confirmKeywords)
}

// IsCancel 是否为取消回复
func IsCancel(message string) bool {
	return containsAny(strings.ToLower(message), cancelKeywords)
}

// IsEditRequest 是否为修改请求
func IsEditRequest(message string) bool {
	return containsAny(strings.ToLower(message), editKeywords)
}

// editFieldKeywords 修改请求中字段名关键词→草稿字段
// 有序:电话关键词含"số điện thoại",必须在数量的"số lượng"独立判断
var editFieldKeywords = []struct {
	field    session.Field
	keywords []string
}{
	{session.FieldName, []string{"tên", "name"}},
	{session.FieldPhone, []string{"số điện thoại", "sdt", "sđt", "điện thoại", "phone"}},
	{session.FieldAddress, []string{"địa chỉ", "address"}},
	{session.FieldQuantity, []string{"số lượng", "quantity", "số quyển"}},
}

// EditFields 从修改请求中识别要改的字段("sửa tên và sđt" → [name, phone])
// 识别不出任何字段时返回空,调用方应追问
func EditFields(message string) []session.Field {
	messageLower := strings.ToLower(message)

	var fields []session.Field
	for _, group := range editFieldKeywords {
		if containsAny(messageLower, group.keywords) {
			fields = append(fields, group.field)
		}
	}
	return fields
}
