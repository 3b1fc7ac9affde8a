package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetectIntent_BarePhoneFastPath 纯号码消息直接判定为查单,置信度1.0
func TestDetectIntent_BarePhoneFastPath(t *testing.T) {
	result := DetectIntent("0123456789")

	assert.Equal(t, IntentOrderStatus, result.Intent)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "0123456789", result.Phone)
}

// TestDetectIntent_BarePhoneWithSpaces 号码中的空白不影响快路径
func TestDetectIntent_BarePhoneWithSpaces(t *testing.T) {
	result := DetectIntent("  0912 345 678 ")

	assert.Equal(t, IntentOrderStatus, result.Intent)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "0912345678", result.Phone)
}

// TestDetectIntent_LabeledPhone 带标签的号码判定为查单,置信度0.9
func TestDetectIntent_LabeledPhone(t *testing.T) {
	result := DetectIntent("sdt: 0912345678 giúp tôi kiểm tra")

	assert.Equal(t, IntentOrderStatus, result.Intent)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, "0912345678", result.Phone)
}

func TestDetectIntent_Keywords(t *testing.T) {
	tests := []struct {
		message    string
		intent     Intent
		confidence float64
	}{
		{"tra cứu đơn hàng giúp tôi", IntentOrderStatus, 0.9},
		{"đơn hàng của tôi đến đâu rồi", IntentOrderStatus, 0.9},
		{"tôi muốn mua sách Nhà Giả Kim", IntentOrder, 0.8},
		{"đặt 2 quyển Atomic Habits", IntentOrder, 0.8},
		{"tìm sách về lập trình", IntentSearch, 0.8},
		{"có sách nào hay không", IntentSearch, 0.8},
		{"gợi ý giúp tôi vài cuốn hay", IntentSearch, 0.8},
		{"xin chào", IntentGeneral, 0.5},
	}

	for _, tt := range tests {
		result := DetectIntent(tt.message)
		assert.Equal(t, tt.intent, result.Intent, "message=%q", tt.message)
		assert.Equal(t, tt.confidence, result.Confidence, "message=%q", tt.message)
	}
}

// TestDetectIntent_OrderBeatsSearch 下单关键词优先于找书关键词
func TestDetectIntent_OrderBeatsSearch(t *testing.T) {
	result := DetectIntent("tìm và mua sách về lịch sử")
	assert.Equal(t, IntentOrder, result.Intent)
}

func TestValidIntent(t *testing.T) {
	assert.True(t, ValidIntent("SEARCH"))
	assert.True(t, ValidIntent("ORDER_STATUS"))
	assert.False(t, ValidIntent("CHITCHAT"))
	assert.False(t, ValidIntent(""))
}
