package session

import (
	"sync"
	"time"

	"github.com/xiebiao/bookchat/internal/domain/book"
)

// Turn 对话历史中的一轮发言
type Turn struct {
	Role string // "user" 或 "assistant"
	Text string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session 会话实体(聚合根)
// 设计说明:
// 1. 一个会话对应一位顾客的一次连续对话,以调用方传入的SessionID标识
// 2. mu保护整个会话:同一会话的消息必须串行处理,否则
//    槽位填写与确认流程会交叉错乱(不同会话之间仍然并发)
// 3. LastBooks保存最近一次检索结果,供指代解析("cuốn thứ 2")使用
// 4. History只保留最近若干轮,送给意图分类器做上下文
type Session struct {
	mu sync.Mutex

	ID            string
	Intent        string      // 最近一次识别的意图
	PendingOrder  *OrderDraft // 待确认的订单草稿(非nil时处于确认阶段)
	EditingFields []Field     // 待修改的字段列表(非空时处于修改阶段)
	LastBooks     []*book.Book
	History       []Turn
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// maxHistoryTurns 历史轮数上限,超出后丢弃最旧的
const maxHistoryTurns = 10

// NewSession 创建新会话
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Lock 锁定会话(一轮消息处理期间持有)
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock 释放会话锁
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// AppendTurn 追加一轮发言,超出上限时截断最旧记录
func (s *Session) AppendTurn(role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
	if len(s.History) > maxHistoryTurns {
		s.History = s.History[len(s.History)-maxHistoryTurns:]
	}
	s.UpdatedAt = time.Now()
}

// RecentHistory 返回最近n轮发言(意图分类器上下文)
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// ClearOrderState 清空下单相关状态(订单完成或取消后调用)
func (s *Session) ClearOrderState() {
	s.PendingOrder = nil
	s.EditingFields = nil
	s.UpdatedAt = time.Now()
}
