package nlp

import (
	"regexp"
	"strconv"
	"strings"
)

// Slots 从自由文本抽取的订单槽位
// Quantity为0表示未抽到(区别于非法的显式0);字符串槽位为空表示未抽到
type Slots struct {
	Quantity     int
	CustomerName string
	Phone        string
	Address      string
	BookTitle    string
	SearchQuery  string
}

// Merge 用src中的非空槽位覆盖当前槽位
func (s *Slots) Merge(src Slots) {
	if src.Quantity > 0 {
		s.Quantity = src.Quantity
	}
	if src.CustomerName != "" {
		s.CustomerName = src.CustomerName
	}
	if src.Phone != "" {
		s.Phone = src.Phone
	}
	if src.Address != "" {
		s.Address = src.Address
	}
	if src.BookTitle != "" {
		s.BookTitle = src.BookTitle
	}
	if src.SearchQuery != "" {
		s.SearchQuery = src.SearchQuery
	}
}

// quantityWordPairs 越南语数字词(有序:顺序即匹配优先级)
var quantityWordPairs = []struct {
	word string
	num  int
}{
	{"một", 1}, {"hai", 2}, {"ba", 3}, {"bốn", 4}, {"năm", 5},
	{"sáu", 6}, {"bảy", 7}, {"tám", 8}, {"chín", 9}, {"mười", 10},
}

// quantityPatternRes 带标签的数量模式(按优先级排列)
var quantityPatternRes = []*regexp.Regexp{
	regexp.MustCompile(`số\s*lượng\s*:\s*(\d+)`),
	regexp.MustCompile(`số\s*lượng\s+(\d+)`),
	regexp.MustCompile(`quantity\s*:\s*(\d+)`),
	regexp.MustCompile(`qty\s*:\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*quyển`),
	regexp.MustCompile(`(\d+)\s*cuốn`),
	regexp.MustCompile(`mua\s*(\d+)`),
	regexp.MustCompile(`đặt\s*(\d+)`),
}

// quantityHintKeywords 数量提示词:出现时才允许裸数字兜底
// 注意不含"quyển/cuốn"——"đặt cuốn số 1"中的1是列表序号而非数量
var quantityHintKeywords = []string{"số lượng", "quantity", "qty"}

var bareIntRe = regexp.MustCompile(`\b\d+\b`)

// ExtractQuantity 抽取购买数量
//
// 匹配顺序(先命中先赢):
// 1. 越南语数字词("hai" → 2)
// 2. 带标签模式("số lượng: 3"、"3 quyển"),仅接受[1,100]
// 3. 消息含数量提示词时,取第一个在[1,100]内的裸数字
// 未命中返回0(表示未填写)
func ExtractQuantity(message string) int {
	messageLower := strings.ToLower(message)

	for _, p := range quantityWordPairs {
		if strings.Contains(messageLower, p.word) {
			return p.num
		}
	}

	for _, re := range quantityPatternRes {
		for _, m := range re.FindAllStringSubmatch(messageLower, -1) {
			if q, err := strconv.Atoi(m[1]); err == nil && q >= 1 && q <= 100 {
				return q
			}
		}
	}

	if containsAny(messageLower, quantityHintKeywords) {
		for _, numStr := range bareIntRe.FindAllString(messageLower, -1) {
			if q, err := strconv.Atoi(numStr); err == nil && q >= 1 && q <= 100 {
				return q
			}
		}
	}

	return 0
}

var (
	// phonePatternRes 电话模式:带标签优先,最后是裸号码兜底
	phonePatternRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:sdt|sđt|phone|điện\s*thoại|số|tel)[\s:\-]*(\+?[0-9\s\-]{10,12})`),
		regexp.MustCompile(`(?i)(?:sdt|sđt|phone|số)[\s:\-]*là[\s:\-]*(\+?[0-9\s\-]{10,12})`),
		regexp.MustCompile(`(?i)(?:sdt|sđt|phone|số)[\s:\-]*của\s*tôi[\s:\-]*(\+?[0-9\s\-]{10,12})`),
		regexp.MustCompile(`(\+?0?[0-9]{9,11})`),
	}
	phoneSepRe = regexp.MustCompile(`[\s\-]+`)

	namePatternRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)tên[\s:\-]*([a-zA-ZÀ-ỹ\s]{2,})`),
		regexp.MustCompile(`(?i)tôi\s*tên\s*là[\s:\-]*([a-zA-ZÀ-ỹ\s]{2,})`),
		regexp.MustCompile(`(?i)tên[\s:\-]*tôi[\s:\-]*là[\s:\-]*([a-zA-ZÀ-ỹ\s]{2,})`),
		regexp.MustCompile(`(?i)name[\s:\-]*([a-zA-ZÀ-ỹ\s]{2,})`),
	}

	addressPatternRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)địa\s*chỉ[\s:\-]*giao\s*hàng[\s:\-]*(.+)`),
		regexp.MustCompile(`(?i)địa\s*chỉ[\s:\-]*(.+)`),
		regexp.MustCompile(`(?i)address[\s:\-]*(.+)`),
	}

	// addressStopRe 地址截断:捕获到串尾后,在最早出现的后续标签处截断
	// (正则引擎不支持前瞻断言,用后处理等价实现)
	addressStopRe = regexp.MustCompile(`(?i)\b(?:sdt|sđt|phone|tên|name|điện\s*thoại)\b`)

	// phoneRunRe 裸号码段(查单兜底)
	phoneRunRe = regexp.MustCompile(`\+?[0-9]{10,12}`)
)

// ExtractCustomerInfo 抽取顾客信息(姓名/电话/地址)
//
// 规则要点:
// 1. 整条消息是纯手机号时短路返回,只填电话
// 2. 各槽位的模式按顺序尝试,先命中先赢
// 3. 电话去掉分隔符后要求10-12位;地址要求超过5个字符
func ExtractCustomerInfo(message string) Slots {
	var info Slots

	clean := whitespaceRe.ReplaceAllString(strings.TrimSpace(message), "")
	if barePhoneRe.MatchString(clean) {
		info.Phone = clean
		return info
	}

	for _, re := range phonePatternRes {
		for _, m := range re.FindAllStringSubmatch(message, -1) {
			phone := phoneSepRe.ReplaceAllString(m[1], "")
			if n := len(phone); n >= 10 && n <= 12 {
				info.Phone = phone
				break
			}
		}
		if info.Phone != "" {
			break
		}
	}

	for _, re := range namePatternRes {
		for _, m := range re.FindAllStringSubmatch(message, -1) {
			name := strings.TrimSpace(m[1])
			if len([]rune(name)) >= 2 {
				info.CustomerName = name
				break
			}
		}
		if info.CustomerName != "" {
			break
		}
	}

	for _, re := range addressPatternRes {
		for _, m := range re.FindAllStringSubmatch(message, -1) {
			address := trimAddressAtLabel(m[1])
			if len([]rune(address)) > 5 {
				info.Address = address
				break
			}
		}
		if info.Address != "" {
			break
		}
	}

	return info
}

// trimAddressAtLabel 在最早出现的后续字段标签处截断地址
func trimAddressAtLabel(s string) string {
	if loc := addressStopRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ","))
}

// ExtractPhone 简化版电话抽取(查单流程的兜底)
// 整条消息是纯号码直接用;否则取第一段10-12位数字
func ExtractPhone(message string) string {
	clean := whitespaceRe.ReplaceAllString(strings.TrimSpace(message), "")
	if barePhoneRe.MatchString(clean) {
		return clean
	}
	if m := phoneRunRe.FindString(message); m != "" {
		return m
	}
	return ""
}
