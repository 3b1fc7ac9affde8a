package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookchat/internal/application/book"
	"github.com/xiebiao/bookchat/pkg/response"
)

// StatsHandler 系统统计HTTP处理器
type StatsHandler struct {
	statsUseCase *appbook.StatsUseCase
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(statsUseCase *appbook.StatsUseCase) *StatsHandler {
	return &StatsHandler{statsUseCase: statsUseCase}
}

// Stats 系统统计
// @Summary      系统统计
// @Description  汇总图书总数、订单总数、活跃会话数与类目分布
// @Tags         统计
// @Produce      json
// @Success      200 {object} response.Response{data=appbook.StatsResponse}
// @Router       /api/v1/stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	result, err := h.statsUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
