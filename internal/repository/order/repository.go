package order

import (
	"context"

	"github.com/shopspring/decimal"

	"smart-canteen/internal/domain"
)

// ListFilter restricts order listings; a nil UserID lists every order.
type ListFilter struct {
	UserID *int64
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	Stats(ctx context.Context) (count int64, revenue decimal.Decimal, err error)
	TopItems(ctx context.Context, limit int) ([]domain.TopItem, error)
}
