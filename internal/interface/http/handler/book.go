package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookchat/internal/application/book"
	"github.com/xiebiao/bookchat/internal/interface/http/dto"
	"github.com/xiebiao/bookchat/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase *appbook.ListBooksUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(listBooksUseCase *appbook.ListBooksUseCase) *BookHandler {
	return &BookHandler{
		listBooksUseCase: listBooksUseCase,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询书目,支持关键词搜索与类目过滤
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码(从1开始)" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        keyword query string false "搜索关键词(标题、作者、描述)"
// @Param        category query string false "类目过滤"
// @Success      200 {object} response.Response{data=response.PageData}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40001, "参数错误: "+err.Error())
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:     query.Page,
		PageSize: query.PageSize,
		Keyword:  query.Keyword,
		Category: query.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.BookResponse, len(result.List))
	for i, b := range result.List {
		list[i] = dto.BookResponse{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			Price:    b.Price,
			Stock:    b.Stock,
			Category: b.Category,
		}
	}

	response.SuccessWithPage(c, list, result.Total, result.Page, result.PageSize)
}
