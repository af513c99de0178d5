package cart

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"smart-canteen/internal/domain"
	"smart-canteen/internal/session"
	"smart-canteen/internal/telemetry"
)

// Service mutates the session cart and joins it with the catalog.
type Service struct {
	items    itemRepo
	sessions sessionSaver
	metrics  *telemetry.Metrics
}

type itemRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error)
}

type sessionSaver interface {
	Save(ctx context.Context, s *session.Session) error
}

func New(items itemRepo, sessions sessionSaver, metrics *telemetry.Metrics) *Service {
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Service{items: items, sessions: sessions, metrics: metrics}
}

// Add puts one more unit of an available item into the cart. Unknown and
// unavailable items yield domain.ErrNotFound and leave the cart untouched.
func (s *Service) Add(ctx context.Context, sess *session.Session, itemID int64) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return errors.Wrap(err, "load item")
	}
	if !item.Available {
		return domain.ErrNotFound
	}
	sess.Cart.Add(item.ID)
	s.record(ctx, "add")
	return s.save(ctx, sess)
}

// Update applies an increment or decrement to an entry already in the cart.
// It reports whether anything changed; absent entries and unknown actions do not.
func (s *Service) Update(ctx context.Context, sess *session.Session, itemID int64, action string) (bool, error) {
	if !sess.Cart.Apply(itemID, action) {
		return false, nil
	}
	s.record(ctx, action)
	return true, s.save(ctx, sess)
}

func (s *Service) Remove(ctx context.Context, sess *session.Session, itemID int64) error {
	if sess.Cart.Quantity(itemID) == 0 {
		return nil
	}
	sess.Cart.Remove(itemID)
	s.record(ctx, "remove")
	return s.save(ctx, sess)
}

func (s *Service) Clear(ctx context.Context, sess *session.Session) error {
	sess.Cart.Clear()
	return s.save(ctx, sess)
}

// View resolves the cart against the current catalog. Entries whose item has
// disappeared are dropped from the lines and the total.
func (s *Service) View(ctx context.Context, cart domain.Cart) (domain.CartView, error) {
	ids := cart.ItemIDs()
	if len(ids) == 0 {
		return cart.Resolve(nil), nil
	}
	catalog, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return domain.CartView{}, errors.Wrap(err, "load cart items")
	}
	return cart.Resolve(catalog), nil
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Save(ctx, sess); err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}

func (s *Service) record(ctx context.Context, op string) {
	s.metrics.CartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
