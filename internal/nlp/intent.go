// Package nlp 实现对话文本的规则解析
//
// 设计说明:
// 1. 全部基于关键词与正则,零外部依赖,毫秒级返回
// 2. 规则是产品决策的编码:模式的先后顺序就是优先级,
//    调整顺序会改变语义,必须配套测试
// 3. 大模型只做规则置信度不足时的兜底(application层组合)
package nlp

import (
	"regexp"
	"strings"
)

// Intent 意图标签
type Intent string

const (
	IntentSearch      Intent = "SEARCH"       // 找书、推荐
	IntentOrder       Intent = "ORDER"        // 下单购买
	IntentOrderStatus Intent = "ORDER_STATUS" // 查询订单
	IntentGeneral     Intent = "GENERAL"      // 闲聊及其他
)

// RuleResult 规则分类结果
type RuleResult struct {
	Intent     Intent
	Confidence float64
	Phone      string // 规则直接抽到的电话号码(查单快路径)
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// barePhoneRe 纯号码消息:顾客直接发一串手机号查单
	barePhoneRe = regexp.MustCompile(`^\+?[0-9]{10,12}$`)

	// labeledPhoneRes 带标签的电话模式(命中即判定为查单意图)
	labeledPhoneRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)sdt[:\s]*(\+?[0-9]{10,12})`),
		regexp.MustCompile(`(?i)số[:\s]*(\+?[0-9]{10,12})`),
		regexp.MustCompile(`(?i)phone[:\s]*(\+?[0-9]{10,12})`),
		regexp.MustCompile(`(?i)điện\s*thoại[:\s]*(\+?[0-9]{10,12})`),
	}

	orderStatusKeywords = []string{
		"trạng thái đơn hàng", "tra cứu đơn hàng", "đơn hàng của tôi",
		"kiểm tra đơn hàng", "order status", "track order",
	}
	orderKeywords = []string{
		"đặt", "mua", "order", "buy", "muốn mua", "cần mua", "đặt hàng",
	}
	searchKeywords = []string{
		"tìm", "search", "có sách", "sách nào", "recommend", "gợi ý", "tư vấn",
	}
)

// DetectIntent 规则意图分类
//
// 优先级从高到低:
// 1. 整条消息是纯手机号 → 查单,置信度1.0(最强信号)
// 2. 带标签的手机号     → 查单,置信度0.9
// 3. 查单关键词         → 查单,置信度0.9
// 4. 下单关键词         → 下单,置信度0.8
// 5. 找书关键词         → 找书,置信度0.8
// 6. 其余              → 闲聊,置信度0.5(低于阈值,触发模型兜底)
func DetectIntent(message string) RuleResult {
	messageLower := strings.ToLower(message)

	clean := whitespaceRe.ReplaceAllString(strings.TrimSpace(message), "")
	if barePhoneRe.MatchString(clean) {
		return RuleResult{Intent: IntentOrderStatus, Confidence: 1.0, Phone: clean}
	}

	for _, re := range labeledPhoneRes {
		if m := re.FindStringSubmatch(messageLower); m != nil {
			return RuleResult{Intent: IntentOrderStatus, Confidence: 0.9, Phone: m[1]}
		}
	}

	if containsAny(messageLower, orderStatusKeywords) {
		return RuleResult{Intent: IntentOrderStatus, Confidence: 0.9}
	}
	if containsAny(messageLower, orderKeywords) {
		return RuleResult{Intent: IntentOrder, Confidence: 0.8}
	}
	if containsAny(messageLower, searchKeywords) {
		return RuleResult{Intent: IntentSearch, Confidence: 0.8}
	}

	return RuleResult{Intent: IntentGeneral, Confidence: 0.5}
}

// ValidIntent 校验模型返回的意图标签是否合法
func ValidIntent(s string) bool {
	switch Intent(s) {
	case IntentSearch, IntentOrder, IntentOrderStatus, IntentGeneral:
		return true
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
