package dto

// ChatRequest 对话请求
// SessionID由调用方生成并保持(同一顾客的消息必须带同一个ID,
// 否则槽位收集与确认流程无法跨消息延续)
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required" example:"web-7f3a05c2"`
	Message   string `json:"message" binding:"required" example:"Tìm sách về lịch sử"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ResetSessionRequest 重置会话请求
type ResetSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}
