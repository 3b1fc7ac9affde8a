package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		message string
		want    int
	}{
		{"mua 3 quyển", 3},
		{"đặt hai cuốn", 2},               // 数字词
		{"số lượng: 150", 0},              // 超出[1,100],保持未填写
		{"số lượng: 5", 5},
		{"quantity: 10", 10},
		{"tôi lấy mười quyển", 10},        // 数字词"mười"
		{"đặt cuốn số 1", 0},              // 列表序号不是数量
		{"cho tôi đặt 4 cuốn sách này", 4},
		{"xin chào", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractQuantity(tt.message), "message=%q", tt.message)
	}
}

// TestExtractQuantity_KeywordFallback 有数量提示词时接受裸数字
func TestExtractQuantity_KeywordFallback(t *testing.T) {
	assert.Equal(t, 7, ExtractQuantity("số lượng là 7 nhé"))
	// 没有提示词时裸数字不算数量
	assert.Equal(t, 0, ExtractQuantity("giá 7 đồng"))
}

// TestExtractCustomerInfo_FullForm 完整表单消息一次抽齐三个槽位
func TestExtractCustomerInfo_FullForm(t *testing.T) {
	info := ExtractCustomerInfo("Tên: Nguyễn Văn A, Số lượng: 2, SĐT: 0912345678, Địa chỉ: Hà Nội")

	assert.Equal(t, "Nguyễn Văn A", info.CustomerName)
	assert.Equal(t, "0912345678", info.Phone)
	assert.Equal(t, "Hà Nội", info.Address)
}

// TestExtractCustomerInfo_BarePhoneShortCircuit 纯号码消息只填电话
func TestExtractCustomerInfo_BarePhoneShortCircuit(t *testing.T) {
	info := ExtractCustomerInfo("0912345678")

	assert.Equal(t, "0912345678", info.Phone)
	assert.Empty(t, info.CustomerName)
	assert.Empty(t, info.Address)
}

// TestExtractCustomerInfo_PhoneSeparators 电话中的分隔符抽取后被去除
func TestExtractCustomerInfo_PhoneSeparators(t *testing.T) {
	info := ExtractCustomerInfo("sdt: 0912-345-678 nhé")
	assert.Equal(t, "0912345678", info.Phone)
}

// TestExtractCustomerInfo_AddressStopsAtLabel 地址在后续标签处截断
func TestExtractCustomerInfo_AddressStopsAtLabel(t *testing.T) {
	info := ExtractCustomerInfo("Địa chỉ: 123 Lê Lợi, Quận 1, TP.HCM, sdt: 0912345678")

	assert.Equal(t, "123 Lê Lợi, Quận 1, TP.HCM", info.Address)
	assert.Equal(t, "0912345678", info.Phone)
}

// TestExtractCustomerInfo_ShortAddressRejected 地址太短视为未抽到
func TestExtractCustomerInfo_ShortAddressRejected(t *testing.T) {
	info := ExtractCustomerInfo("địa chỉ: HN")
	assert.Empty(t, info.Address)
}

func TestExtractPhone(t *testing.T) {
	assert.Equal(t, "0123456789", ExtractPhone("0123456789"))
	assert.Equal(t, "0912345678", ExtractPhone("kiểm tra giúp số 0912345678 nhé"))
	assert.Empty(t, ExtractPhone("không có số nào cả"))
}

func TestSlots_Merge(t *testing.T) {
	dst := Slots{Quantity: 2, CustomerName: "A"}
	dst.Merge(Slots{Phone: "0912345678", CustomerName: "B"})

	assert.Equal(t, 2, dst.Quantity)
	assert.Equal(t, "B", dst.CustomerName)
	assert.Equal(t, "0912345678", dst.Phone)
}
