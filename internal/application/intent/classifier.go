// Package intent 实现规则+大模型的混合意图分类
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/domain/session"
	"github.com/xiebiao/bookchat/internal/nlp"
)

// Generator 文本生成接口(infrastructure层的Ollama客户端实现)
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Context 分类时可用的会话上下文
type Context struct {
	LastBooks    []*book.Book   // 最近一次检索结果
	PendingOrder bool           // 是否有待确认订单
	History      []session.Turn // 最近几轮对话
}

// Result 分类结果
type Result struct {
	Intent     nlp.Intent
	Confidence float64
	Slots      nlp.Slots
}

// ruleConfidenceThreshold 规则置信度低于该值时尝试模型兜底
const ruleConfidenceThreshold = 0.7

// historyLookback 送给模型的历史轮数
const historyLookback = 3

// Classifier 混合意图分类器
//
// 设计说明:
// 1. 规则先行:确定性、零延迟,覆盖绝大多数消息
// 2. 规则置信度不足(<0.7)才调用模型,且仅当模型置信度更高时采纳
// 3. 模型路径任何失败都不向外传播:分类结果退化,对话不中断
type Classifier struct {
	gen    Generator
	logger *zap.Logger
}

// NewClassifier 创建分类器;gen可为nil(纯规则模式)
func NewClassifier(gen Generator, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{gen: gen, logger: logger}
}

// Classify 对一条用户消息做意图分类
func (c *Classifier) Classify(ctx context.Context, message string, convCtx Context) Result {
	rule := nlp.DetectIntent(message)
	ruleResult := Result{
		Intent:     rule.Intent,
		Confidence: rule.Confidence,
		Slots:      nlp.Slots{Phone: rule.Phone},
	}

	if rule.Confidence < ruleConfidenceThreshold && c.gen != nil {
		llmResult, err := c.classifyByModel(ctx, message, convCtx)
		if err != nil {
			c.logger.Warn("模型意图分类失败,沿用规则结果", zap.Error(err))
			return ruleResult
		}
		if llmResult.Confidence > rule.Confidence {
			return llmResult
		}
	}

	return ruleResult
}

// llmPayload 模型返回的JSON结构
type llmPayload struct {
	Intent        string  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	ExtractedInfo struct {
		BookTitle    string `json:"book_title"`
		Quantity     int    `json:"quantity"`
		CustomerName string `json:"customer_name"`
		Phone        string `json:"phone"`
		Address      string `json:"address"`
		SearchQuery  string `json:"search_query"`
	} `json:"extracted_info"`
}

// jsonBlockRe 从模型输出中剥出JSON块(模型偶尔会在JSON前后加说明文字)
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

func (c *Classifier) classifyByModel(ctx context.Context, message string, convCtx Context) (Result, error) {
	raw, err := c.gen.Generate(ctx, buildClassifyPrompt(message, convCtx))
	if err != nil {
		return Result{}, err
	}

	jsonText := jsonBlockRe.FindString(raw)
	if jsonText == "" {
		return Result{}, fmt.Errorf("模型输出中没有JSON: %q", raw)
	}

	var payload llmPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return Result{}, fmt.Errorf("解析模型JSON失败: %w", err)
	}

	intent := strings.ToUpper(strings.TrimSpace(payload.Intent))
	if !nlp.ValidIntent(intent) {
		intent = string(nlp.IntentGeneral)
	}
	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}

	return Result{
		Intent:     nlp.Intent(intent),
		Confidence: payload.Confidence,
		Slots: nlp.Slots{
			Quantity:     payload.ExtractedInfo.Quantity,
			CustomerName: payload.ExtractedInfo.CustomerName,
			Phone:        payload.ExtractedInfo.Phone,
			Address:      payload.ExtractedInfo.Address,
			BookTitle:    payload.ExtractedInfo.BookTitle,
			SearchQuery:  payload.ExtractedInfo.SearchQuery,
		},
	}, nil
}

// buildClassifyPrompt 构造分类提示词(越南语,与顾客语言一致)
func buildClassifyPrompt(message string, convCtx Context) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Phân tích ý định người dùng và trích xuất thông tin từ câu: %q\n\n", message))

	if len(convCtx.History) > 0 {
		sb.WriteString("Hội thoại gần đây:\n")
		start := len(convCtx.History) - historyLookback
		if start < 0 {
			start = 0
		}
		for _, turn := range convCtx.History[start:] {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", turn.Role, turn.Text))
		}
		sb.WriteString("\n")
	}

	if len(convCtx.LastBooks) > 0 {
		sb.WriteString("Sách vừa tìm thấy:\n")
		for i, b := range convCtx.LastBooks {
			sb.WriteString(fmt.Sprintf("%d. %s (ID: %d)\n", i+1, b.Title, b.ID))
		}
		sb.WriteString("\n")
	}

	if convCtx.PendingOrder {
		sb.WriteString("Khách đang có một đơn hàng chờ xác nhận.\n\n")
	}

	sb.WriteString(`Phân loại thành một trong:
- SEARCH: tìm kiếm, hỏi thông tin sách
- ORDER: đặt mua sách
- ORDER_STATUS: tra cứu đơn hàng
- GENERAL: câu hỏi chung

Trả về JSON: {"intent": "...", "confidence": 0.0-1.0, "extracted_info": {...}}

Thông tin có thể trích xuất:
- book_title: tên sách
- quantity: số lượng
- customer_name: tên khách hàng
- phone: số điện thoại
- address: địa chỉ
- search_query: từ khóa tìm kiếm
`)

	return sb.String()
}
