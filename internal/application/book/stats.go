package book

import (
	"context"

	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/domain/order"
	"github.com/xiebiao/bookchat/internal/domain/session"
)

// StatsUseCase 系统统计用例(运维/观察接口)
type StatsUseCase struct {
	bookRepo  book.Repository
	orderRepo order.Repository
	sessions  session.Store
}

// NewStatsUseCase 创建统计用例
func NewStatsUseCase(bookRepo book.Repository, orderRepo order.Repository, sessions session.Store) *StatsUseCase {
	return &StatsUseCase{
		bookRepo:  bookRepo,
		orderRepo: orderRepo,
		sessions:  sessions,
	}
}

// StatsResponse 统计响应DTO
type StatsResponse struct {
	TotalBooks     int64            `json:"total_books"`
	TotalOrders    int64            `json:"total_orders"`
	ActiveSessions int64            `json:"active_sessions"`
	Categories     map[string]int64 `json:"categories"`
}

// Execute 汇总图书/订单/会话统计
func (uc *StatsUseCase) Execute(ctx context.Context) (*StatsResponse, error) {
	totalBooks, err := uc.bookRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := uc.bookRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	totalOrders, err := uc.orderRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	activeSessions, err := uc.sessions.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsResponse{
		TotalBooks:     totalBooks,
		TotalOrders:    totalOrders,
		ActiveSessions: activeSessions,
		Categories:     categories,
	}, nil
}
