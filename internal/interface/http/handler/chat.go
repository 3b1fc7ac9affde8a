package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookchat/internal/application/chat"
	"github.com/xiebiao/bookchat/internal/domain/session"
	"github.com/xiebiao/bookchat/internal/interface/http/dto"
	"github.com/xiebiao/bookchat/pkg/metrics"
	"github.com/xiebiao/bookchat/pkg/response"
)

// ChatHandler 对话HTTP处理器
type ChatHandler struct {
	manager  *chat.Manager
	sessions session.Store
}

// NewChatHandler 创建对话处理器
func NewChatHandler(manager *chat.Manager, sessions session.Store) *ChatHandler {
	return &ChatHandler{
		manager:  manager,
		sessions: sessions,
	}
}

// Chat 处理一条对话消息
// @Summary      发送对话消息
// @Description  向图书助手发送一条消息,返回助手回复。同一顾客的消息必须携带同一session_id
// @Tags         对话
// @Accept       json
// @Produce      json
// @Param        request body dto.ChatRequest true "对话消息"
// @Success      200 {object} response.Response{data=dto.ChatResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40001, "参数错误: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		response.ErrorWithCode(c, 40001, "message不能为空")
		return
	}

	reply := h.manager.ProcessMessage(c.Request.Context(), req.SessionID, req.Message)

	// 按本轮识别的意图记录对话指标
	if sess, err := h.sessions.GetOrCreate(c.Request.Context(), req.SessionID); err == nil {
		metrics.ChatTurnsTotal.WithLabelValues(strings.ToLower(sess.Intent)).Inc()
	}

	response.Success(c, &dto.ChatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
	})
}

// ResetSession 重置会话
// @Summary      重置会话
// @Description  清除指定会话的全部状态(历史、待确认订单),用于开始新对话
// @Tags         对话
// @Accept       json
// @Produce      json
// @Param        request body dto.ResetSessionRequest true "会话ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/chat/reset [post]
func (h *ChatHandler) ResetSession(c *gin.Context) {
	var req dto.ResetSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40001, "参数错误: "+err.Error())
		return
	}

	if err := h.sessions.Reset(c.Request.Context(), req.SessionID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
