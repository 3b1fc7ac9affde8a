// Package chat 实现会话状态机(整个系统的核心)
//
// 每条消息的处理优先级:
// 1. 修改阶段(editingFields非空):本条消息是对指定字段的重新填写
// 2. 确认阶段(pendingOrder非nil):本条消息是确认/取消/修改请求/补充信息
// 3. 路由阶段:按意图分发到找书/下单/查单/闲聊
//
// 并发模型:同一会话内消息串行(会话锁),不同会话之间并发
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookchat/internal/application/intent"
	"github.com/xiebiao/bookchat/internal/application/order"
	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/domain/session"
	"github.com/xiebiao/bookchat/internal/nlp"
)

// Classifier 意图分类接口
type Classifier interface {
	Classify(ctx context.Context, message string, convCtx intent.Context) intent.Result
}

// Retriever 图书检索接口
type Retriever interface {
	// Retrieve 混合检索,失败时内部降级,不返回error
	Retrieve(ctx context.Context, query string, topK int) []*book.Book

	// FindBookForOrder 按书名提示定位要下单的书,找不到返回nil
	FindBookForOrder(ctx context.Context, titleHint string) *book.Book
}

// Generator 文本生成接口(自然语言润色,可为nil)
type Generator = intent.Generator

// Manager 对话管理器
type Manager struct {
	sessions   session.Store
	classifier Classifier
	retriever  Retriever
	placeOrder *order.PlaceOrderUseCase
	listOrders *order.ListOrdersUseCase
	gen        Generator
	topK       int
	logger     *zap.Logger
}

// NewManager 创建对话管理器;gen可为nil(回复全部走模板)
func NewManager(
	sessions session.Store,
	classifier Classifier,
	retriever Retriever,
	placeOrder *order.PlaceOrderUseCase,
	listOrders *order.ListOrdersUseCase,
	gen Generator,
	topK int,
	logger *zap.Logger,
) *Manager {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:   sessions,
		classifier: classifier,
		retriever:  retriever,
		placeOrder: placeOrder,
		listOrders: listOrders,
		gen:        gen,
		topK:       topK,
		logger:     logger,
	}
}

// ProcessMessage 处理一条用户消息,返回回复文本
//
// 设计说明:
// 1. 顶层recover:任何意外panic都回一句道歉,不让对话接口500
// 2. 会话锁贯穿整轮处理,保证同一会话消息串行
// 3. 本方法不返回error:对话层所有失败都降级为用户可读的文案
func (m *Manager) ProcessMessage(ctx context.Context, sessionID, message string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("处理消息panic",
				zap.String("session_id", sessionID), zap.Any("panic", r))
			reply = replyApology
		}
	}()

	sess, err := m.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		m.logger.Error("获取会话失败", zap.String("session_id", sessionID), zap.Error(err))
		return replyApology
	}

	sess.Lock()
	defer sess.Unlock()

	sess.AppendTurn(session.RoleUser, message)

	result := m.classifier.Classify(ctx, message, intent.Context{
		LastBooks:    sess.LastBooks,
		PendingOrder: sess.PendingOrder != nil,
		History:      sess.RecentHistory(3),
	})
	sess.Intent = string(result.Intent)

	switch {
	case len(sess.EditingFields) > 0:
		reply = m.handleEditApply(ctx, sess, message)
	case sess.PendingOrder != nil:
		reply = m.handleConfirmation(ctx, sess, message)
	default:
		switch result.Intent {
		case nlp.IntentSearch:
			reply = m.handleSearch(ctx, sess, message, result.Slots)
		case nlp.IntentOrder:
			reply = m.handleOrder(ctx, sess, message, result.Slots)
		case nlp.IntentOrderStatus:
			reply = m.handleOrderStatus(ctx, message, result.Slots)
		default:
			reply = m.handleGeneral(ctx, message)
		}
	}

	sess.AppendTurn(session.RoleAssistant, reply)
	return reply
}

// handleSearch 找书:混合检索+记录lastBooks供后续指代
func (m *Manager) handleSearch(ctx context.Context, sess *session.Session, message string, slots nlp.Slots) string {
	query := slots.SearchQuery
	if query == "" {
		query = message
	}

	books := m.retriever.Retrieve(ctx, query, m.topK)
	if len(books) == 0 {
		return replyNoBooks
	}

	sess.LastBooks = books

	// 优先让模型生成自然的推荐话术,失败回落模板
	if m.gen != nil {
		if text, err := m.gen.Generate(ctx, buildSearchReplyPrompt(query, books)); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return formatSearchResults(books)
}

// handleOrder 下单入口:定位图书→抽取槽位→进入确认阶段
func (m *Manager) handleOrder(ctx context.Context, sess *session.Session, message string, slots nlp.Slots) string {
	b := m.resolveOrderBook(ctx, sess, message, slots)
	if b == nil {
		return replyAskBook
	}
	if b.Stock <= 0 {
		return formatOutOfStock(b.Title)
	}

	draft := &session.OrderDraft{}
	draft.SetBook(b)
	applySlots(draft, message, slots)

	sess.PendingOrder = draft

	if !draft.Complete() {
		return formatMissingFields(draft)
	}
	return formatConfirmation(draft)
}

// resolveOrderBook 定位顾客要买的书
// 顺序:分类器给出的书名 → 对lastBooks的指代 → 消息中的书名短语
func (m *Manager) resolveOrderBook(ctx context.Context, sess *session.Session, message string, slots nlp.Slots) *book.Book {
	if slots.BookTitle != "" {
		if b := m.retriever.FindBookForOrder(ctx, slots.BookTitle); b != nil {
			return b
		}
	}

	if b := nlp.ResolveBookRef(message, sess.LastBooks); b != nil {
		return b
	}

	if title := nlp.ExtractOrderTitle(message); title != "" {
		if b := m.retriever.FindBookForOrder(ctx, title); b != nil {
			return b
		}
	}

	return nil
}

// applySlots 抽取并写入草稿槽位:正则抽取兜底,分类器槽位补缺
// 只覆盖非空值,已填字段不会被空值抹掉
func applySlots(draft *session.OrderDraft, message string, slots nlp.Slots) {
	extracted := nlp.ExtractCustomerInfo(message)
	extracted.Quantity = nlp.ExtractQuantity(message)
	extracted.Merge(slots)

	if extracted.Quantity > 0 {
		draft.Quantity = extracted.Quantity
	}
	if extracted.CustomerName != "" {
		draft.CustomerName = extracted.CustomerName
	}
	if extracted.Phone != "" {
		draft.Phone = extracted.Phone
	}
	if extracted.Address != "" {
		draft.Address = extracted.Address
	}
}

// handleConfirmation 确认阶段
// 关键词判定顺序:修改 > 确认 > 取消,都不命中则视为补充信息
func (m *Manager) handleConfirmation(ctx context.Context, sess *session.Session, message string) string {
	draft := sess.PendingOrder

	if nlp.IsEditRequest(message) {
		return m.handleEditRequest(sess, message)
	}

	if nlp.IsConfirm(message) {
		if !draft.Complete() {
			return formatStillMissing(draft)
		}
		return m.placeDraftOrder(ctx, sess, draft)
	}

	if nlp.IsCancel(message) {
		sess.ClearOrderState()
		return replyCancelled
	}

	// 补充信息:重跑槽位抽取,非空覆盖
	applySlots(draft, message, nlp.Slots{})
	if !draft.Complete() {
		return formatMissingFields(draft)
	}
	return formatConfirmation(draft)
}

// placeDraftOrder 执行下单
// 无论成败都清空草稿:失败的事务不做静默重试,由顾客决定是否重下
func (m *Manager) placeDraftOrder(ctx context.Context, sess *session.Session, draft *session.OrderDraft) string {
	resp, err := m.placeOrder.Execute(ctx, order.PlaceOrderRequest{
		CustomerName: draft.CustomerName,
		Phone:        draft.Phone,
		Address:      draft.Address,
		BookID:       draft.BookID,
		Quantity:     draft.Quantity,
	})

	title := draft.Book.Title
	sess.ClearOrderState()

	if err != nil {
		if errors.Is(err, book.ErrInsufficientStock) {
			return formatOutOfStock(title)
		}
		m.logger.Error("创建订单失败", zap.String("session_id", sess.ID), zap.Error(err))
		return replyOrderFailed
	}

	return formatOrderSuccess(resp)
}

// handleEditRequest 识别要修改的字段,进入修改阶段
// 识别不出字段则停留在确认阶段追问
func (m *Manager) handleEditRequest(sess *session.Session, message string) string {
	fields := nlp.EditFields(message)
	if len(fields) == 0 {
		return replyAskEditField
	}

	sess.EditingFields = fields
	return formatEditPrompt(fields)
}

// handleEditApply 修改阶段:只解析editingFields中列出的字段
// 单次修改:无论本条消息抽到几个字段,editingFields都无条件清空,
// 没抽到的字段保持原值,由后续的缺槽/确认提示再引导
func (m *Manager) handleEditApply(ctx context.Context, sess *session.Session, message string) string {
	fields := sess.EditingFields
	sess.EditingFields = nil

	draft := sess.PendingOrder
	if draft == nil {
		// 防御:修改阶段不应没有草稿,出现则当普通消息处理
		return m.handleGeneral(ctx, message)
	}

	info := nlp.ExtractCustomerInfo(message)
	quantity := nlp.ExtractQuantity(message)

	for _, f := range fields {
		switch f {
		case session.FieldName:
			if info.CustomerName != "" {
				draft.CustomerName = info.CustomerName
			}
		case session.FieldPhone:
			if info.Phone != "" {
				draft.Phone = info.Phone
			}
		case session.FieldAddress:
			if info.Address != "" {
				draft.Address = info.Address
			}
		case session.FieldQuantity:
			if quantity > 0 {
				draft.Quantity = quantity
			}
		}
	}

	if !draft.Complete() {
		return formatMissingFields(draft)
	}
	return formatConfirmation(draft)
}

// handleOrderStatus 查单:抽取电话→查询→渲染列表
func (m *Manager) handleOrderStatus(ctx context.Context, message string, slots nlp.Slots) string {
	phone := slots.Phone
	if phone == "" {
		phone = nlp.ExtractPhone(message)
	}
	if phone == "" {
		return replyAskPhone
	}

	orders, err := m.listOrders.Execute(ctx, phone)
	if err != nil {
		m.logger.Error("查询订单失败", zap.String("phone", phone), zap.Error(err))
		return replyApology
	}
	if len(orders) == 0 {
		return formatNoOrders(phone)
	}

	return formatOrders(phone, orders)
}

// handleGeneral 闲聊:模型生成,失败回落欢迎语
func (m *Manager) handleGeneral(ctx context.Context, message string) string {
	if m.gen != nil {
		if text, err := m.gen.Generate(ctx, buildGeneralReplyPrompt(message)); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return replyWelcome
}

// buildSearchReplyPrompt 检索结果的润色提示词
func buildSearchReplyPrompt(query string, books []*book.Book) string {
	var sb strings.Builder
	for i, b := range books {
		if i >= 3 {
			break
		}
		sb.WriteString(fmt.Sprintf(`%d. **%s**
- Tác giả: %s
- Thể loại: %s
- Giá: %s VND
- Tồn kho: %d quyển
`, i+1, b.Title, b.Author, b.Category, formatVND(b.Price), b.Stock))
	}

	return fmt.Sprintf(`Bạn là nhân viên tư vấn sách. Khách hàng hỏi: %q

Sách tìm thấy:
%s
Hãy tạo phản hồi thân thiện, giới thiệu các sách này và hỏi xem họ có muốn đặt mua không.
Giữ nguyên thông tin giá và số lượng.`, query, sb.String())
}

// buildGeneralReplyPrompt 闲聊回复的提示词
func buildGeneralReplyPrompt(message string) string {
	return fmt.Sprintf(`Bạn là nhân viên tư vấn của cửa hàng sách BookStore. Khách hàng đã hỏi: %q

Hãy trả lời một cách thân thiện và chuyên nghiệp. Nếu câu hỏi không liên quan đến sách, hãy lịch sự chuyển hướng về việc tư vấn sách.`, message)
}
