package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"smart-canteen/internal/domain"
	orderrepo "smart-canteen/internal/repository/order"
)

const (
	recentLimit = 10
	topLimit    = 5
)

// Service aggregates sales figures for staff.
type Service struct {
	orders orderrepo.Repository
}

func New(orders orderrepo.Repository) *Service {
	return &Service{orders: orders}
}

// Summary returns order count, revenue (zero without orders), the ten most
// recent orders and the five best selling items by quantity.
func (s *Service) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	count, revenue, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "order stats")
	}
	recent, err := s.orders.List(ctx, orderrepo.ListFilter{Limit: recentLimit})
	if err != nil {
		return nil, errors.Wrap(err, "recent orders")
	}
	top, err := s.orders.TopItems(ctx, topLimit)
	if err != nil {
		return nil, errors.Wrap(err, "top items")
	}
	if recent == nil {
		recent = []domain.Order{}
	}
	if top == nil {
		top = []domain.TopItem{}
	}
	return &domain.DashboardSummary{
		TotalOrders:  count,
		TotalRevenue: revenue,
		RecentOrders: recent,
		TopItems:     top,
	}, nil
}
