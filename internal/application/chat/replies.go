package chat

import (
	"fmt"
	"strings"

	"github.com/xiebiao/bookchat/internal/application/order"
	"github.com/xiebiao/bookchat/internal/domain/book"
	domorder "github.com/xiebiao/bookchat/internal/domain/order"
	"github.com/xiebiao/bookchat/internal/domain/session"
)

// 面向顾客的回复文案(越南语)
// 文案本身就是产品的一部分,改动需与运营确认
const (
	replyApology = "Xin lỗi, có lỗi xảy ra. Bạn có thể thử lại không?"

	replyNoBooks = "Xin lỗi, tôi không tìm thấy sách nào phù hợp trong cửa hàng. Bạn có thể thử từ khóa khác không?"

	replyAskBook = "Bạn muốn đặt sách nào? Vui lòng cho tôi biết tên sách cụ thể hoặc tìm kiếm sách trước."

	replyCancelled = "Đã hủy đơn hàng. Bạn có cần hỗ trợ gì khác không?"

	replyOrderFailed = "Có lỗi xảy ra khi tạo đơn hàng. Vui lòng thử lại."

	replyAskPhone = `**TRA CỨU ĐƠN HÀNG**

Vui lòng cung cấp số điện thoại đã dùng khi đặt hàng.

**Cách cung cấp:**
"0123456789"`

	replyAskEditField = "Bạn muốn sửa thông tin gì? (tên, số điện thoại, địa chỉ, số lượng). Vui lòng nói rõ."

	replyWelcome = `Xin chào! Tôi là trợ lý BookStore. Tôi có thể giúp bạn:

**Tìm kiếm sách:** "Tìm sách về lập trình"
**Đặt hàng:** "Đặt sách Nhà Giả Kim"
**Gợi ý:** "Gợi ý sách hay"

Bạn cần tôi hỗ trợ gì?`
)

// formatVND 千分位格式化金额(85000 → "85,000")
func formatVND(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	result := strings.Join(parts, ",")
	if neg {
		result = "-" + result
	}
	return result
}

// truncateRunes 按字符数截断(描述太长影响阅读)
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// formatSearchResults 检索结果列表(模型生成失败时的模板兜底)
func formatSearchResults(books []*book.Book) string {
	var sb strings.Builder
	sb.WriteString("**Tôi tìm thấy những cuốn sách sau:**\n\n")

	for i, b := range books {
		stockStatus := "Còn hàng"
		if b.Stock <= 0 {
			stockStatus = "Hết hàng"
		}
		description := b.Description
		if description == "" {
			description = "Không có mô tả"
		}
		sb.WriteString(fmt.Sprintf(`**%d. %s**
- Tác giả: %s
- Thể loại: %s
- Giá: %s VND
- Tình trạng: %s (%d quyển)
- Mô tả: %s

`, i+1, b.Title, b.Author, b.Category, formatVND(b.Price), stockStatus, b.Stock, truncateRunes(description, 100)))
	}

	sb.WriteString("Bạn có thể nói đặt hàng nếu muốn!")
	return sb.String()
}

func formatOutOfStock(title string) string {
	return fmt.Sprintf("Xin lỗi, sách '%s' hiện đã hết hàng.", title)
}

// orDefault 未填写的槽位显示占位文案
func orDefault(value string) string {
	if value == "" {
		return "CHƯA CÓ"
	}
	return value
}

func quantityOrDefault(quantity int) string {
	if quantity <= 0 {
		return "CHƯA CÓ"
	}
	return fmt.Sprintf("%d", quantity)
}

// formatMissingFields 缺槽提示:当前已有信息+缺什么+填写示例
func formatMissingFields(draft *session.OrderDraft) string {
	missing := draft.MissingFields()
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = f.DisplayName()
	}

	return fmt.Sprintf(`**THÔNG TIN ĐẶT HÀNG HIỆN TẠI:**
- Sách: %s
- Số lượng: %s
- Tên: %s
- SĐT: %s
- Địa chỉ: %s

**THIẾU THÔNG TIN:** %s

**Vui lòng cung cấp đầy đủ thông tin theo mẫu:**
"Tên: [họ tên], Số lượng: [số quyển], SĐT: [số điện thoại], Địa chỉ: [địa chỉ]"

**Ví dụ:** "Tên: Nguyễn Văn A, Số lượng: 2, SĐT: 0123456789, Địa chỉ: Hà Nội"`,
		draft.Book.Title,
		quantityOrDefault(draft.Quantity),
		orDefault(draft.CustomerName),
		orDefault(draft.Phone),
		orDefault(draft.Address),
		strings.Join(names, ", "))
}

// formatStillMissing 确认时仍缺字段的短提示
func formatStillMissing(draft *session.OrderDraft) string {
	missing := draft.MissingFields()
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = f.DisplayName()
	}
	return fmt.Sprintf("Vẫn còn thiếu thông tin: %s. Vui lòng cung cấp đầy đủ.", strings.Join(names, ", "))
}

// formatConfirmation 草稿齐全后的确认提示
func formatConfirmation(draft *session.OrderDraft) string {
	return fmt.Sprintf(`**THÔNG TIN ĐƠN HÀNG:**

- Sách: %s
- Tên: %s
- SĐT: %s
- Địa chỉ: %s
- Số lượng: %d quyển
- Tổng tiền: %s VND

**Thông tin trên có chính xác không?**
- Trả lời 'có' hoặc 'đúng' để xác nhận đặt hàng
- Trả lời 'sửa [tên/sđt/địa chỉ/số lượng]' để chỉnh sửa
- Trả lời 'hủy' để hủy đơn hàng`,
		draft.Book.Title,
		draft.CustomerName,
		draft.Phone,
		draft.Address,
		draft.Quantity,
		formatVND(draft.Total()))
}

// formatOrderSuccess 下单成功回执
func formatOrderSuccess(resp *order.PlaceOrderResponse) string {
	return fmt.Sprintf(`**ĐẶT HÀNG THÀNH CÔNG!**

- Mã đơn hàng: #%d
- Sách: %s
- Số lượng: %d quyển
- Tổng tiền: %s VND

Chúng tôi sẽ liên hệ với bạn trong vòng 24h để xác nhận và giao hàng.

Cảm ơn bạn đã mua sắm tại BookStore!`,
		resp.OrderID, resp.BookTitle, resp.Quantity, formatVND(resp.Total))
}

// formatEditPrompt 进入修改阶段的提示
func formatEditPrompt(fields []session.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.DisplayName()
	}
	return fmt.Sprintf("Vui lòng cung cấp %s mới. Ví dụ: 'Tên: Nguyễn Văn A, SĐT: 0123456789'",
		strings.Join(names, " và "))
}

func formatNoOrders(phone string) string {
	return fmt.Sprintf("Không tìm thấy đơn hàng nào cho số điện thoại **%s**.", phone)
}

// formatOrders 订单列表(含书名、单价与合计)
func formatOrders(phone string, orders []*domorder.OrderWithBook) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**ĐƠN HÀNG CỦA BẠN (SĐT: %s):**\n\n", phone))

	for i, o := range orders {
		total := int64(o.Quantity) * o.PricePerBook
		sb.WriteString(fmt.Sprintf(`**Đơn hàng #%d**
- Mã đơn: #%d
- Sách: %s
- Số lượng: %d quyển
- Đơn giá: %s VND
- Tổng tiền: %s VND
- Tên: %s
- SĐT: %s
- Địa chỉ: %s
- Trạng thái: %s
- Ngày đặt: %s
────────────────────
`, i+1, o.ID, o.BookTitle, o.Quantity, formatVND(o.PricePerBook), formatVND(total),
			o.CustomerName, o.Phone, o.Address, o.Status.String(),
			o.CreatedAt.Format("2006-01-02 15:04:05")))
	}

	return sb.String()
}
