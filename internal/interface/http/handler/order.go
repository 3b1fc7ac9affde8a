package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookchat/internal/application/order"
	"github.com/xiebiao/bookchat/internal/interface/http/dto"
	"github.com/xiebiao/bookchat/pkg/response"
)

// OrderHandler 订单HTTP处理器
// 下单只能通过对话完成,HTTP层只提供查单
type OrderHandler struct {
	listOrdersUseCase *apporder.ListOrdersUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(listOrdersUseCase *apporder.ListOrdersUseCase) *OrderHandler {
	return &OrderHandler{
		listOrdersUseCase: listOrdersUseCase,
	}
}

// ListOrders 按电话号码查询订单
// @Summary      查询订单
// @Description  按下单时留的电话号码查询全部订单,最新的在前
// @Tags         订单
// @Produce      json
// @Param        phone query string true "电话号码"
// @Success      200 {object} response.Response{data=[]dto.OrderResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var query dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40001, "参数错误: "+err.Error())
		return
	}

	orders, err := h.listOrdersUseCase.Execute(c.Request.Context(), query.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = dto.OrderResponse{
			ID:           o.ID,
			CustomerName: o.CustomerName,
			Phone:        o.Phone,
			Address:      o.Address,
			BookID:       o.BookID,
			BookTitle:    o.BookTitle,
			Quantity:     o.Quantity,
			PricePerBook: o.PricePerBook,
			Total:        int64(o.Quantity) * o.PricePerBook,
			Status:       int(o.Status),
			StatusText:   o.Status.String(),
			CreatedAt:    o.CreatedAt,
		}
	}

	response.Success(c, list)
}
