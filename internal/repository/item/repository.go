package item

import (
	"context"

	"smart-canteen/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	ListByName(ctx context.Context) ([]domain.Item, error)
	Categories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error)
	Create(ctx context.Context, item domain.Item) (*domain.Item, error)
	Update(ctx context.Context, item domain.Item) (*domain.Item, error)
	Upsert(ctx context.Context, item domain.Item) (*domain.Item, error)
	ToggleAvailability(ctx context.Context, id int64) (*domain.Item, error)
}
