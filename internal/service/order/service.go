package order

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	orderrepo "smart-canteen/internal/repository/order"
	"smart-canteen/internal/session"
	"smart-canteen/internal/telemetry"
)

type itemRepo interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error)
}

type sessionSaver interface {
	Save(ctx context.Context, s *session.Session) error
}

// Publisher is notified after an order has been committed.
type Publisher interface {
	OrderPlaced(ctx context.Context, o domain.Order) error
}

type nopPublisher struct{}

func (nopPublisher) OrderPlaced(context.Context, domain.Order) error { return nil }

// Service turns session carts into persisted orders.
type Service struct {
	items     itemRepo
	orders    orderrepo.Repository
	sessions  sessionSaver
	publisher Publisher
	metrics   *telemetry.Metrics
	log       *zap.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.Named("order_service")
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(items itemRepo, orders orderrepo.Repository, sessions sessionSaver, opts ...Option) *Service {
	s := &Service{
		items:     items,
		orders:    orders,
		sessions:  sessions,
		publisher: nopPublisher{},
		metrics:   telemetry.NopMetrics(),
		log:       zap.NewNop(),
		tracer:    otel.Tracer("smart-canteen/order"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder persists the session cart as an order owned by userID and then
// empties the cart. An empty cart yields domain.ErrEmptyCart and a cart
// referencing a missing item yields domain.ErrNotFound; in both cases nothing
// is written and the cart is left as it was.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, sess *session.Session) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder",
		trace.WithAttributes(
			attribute.Int64("order.user_id", userID),
			attribute.Int("order.cart_count", sess.Cart.Count()),
		),
	)
	defer span.End()

	if sess.Cart.IsEmpty() {
		span.SetStatus(codes.Error, "empty cart")
		return nil, domain.ErrEmptyCart
	}

	ids := sess.Cart.ItemIDs()
	catalog, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, s.fail(ctx, span, errors.Wrap(err, "load cart items"))
	}

	total := decimal.Zero
	lines := make([]domain.OrderItem, 0, len(ids))
	for _, id := range ids {
		item, ok := catalog[id]
		if !ok {
			s.log.Info("cart references missing item", zap.Int64("item_id", id), zap.Int64("user_id", userID))
			return nil, s.fail(ctx, span, domain.ErrNotFound)
		}
		qty := sess.Cart.Quantity(id)
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
		lines = append(lines, domain.OrderItem{ItemID: id, ItemName: item.Name, Quantity: qty})
	}

	created, err := s.orders.Create(ctx, domain.Order{UserID: userID, TotalPrice: total, Lines: lines})
	if err != nil {
		return nil, s.fail(ctx, span, errors.Wrap(err, "create order"))
	}
	span.SetAttributes(attribute.Int64("order.id", created.ID))

	sess.Cart.Clear()
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Warn("order placed but cleared cart not saved", zap.Int64("order_id", created.ID), zap.Error(err))
	}

	s.metrics.OrdersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	s.metrics.OrderValue.Record(ctx, total.InexactFloat64())

	if err := s.publisher.OrderPlaced(ctx, *created); err != nil {
		s.metrics.EventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		s.log.Error("publish order event", zap.Int64("order_id", created.ID), zap.Error(err))
	} else {
		s.metrics.EventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	}

	span.SetStatus(codes.Ok, "")
	s.log.Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", userID),
		zap.String("total", total.StringFixed(2)),
		zap.Int("lines", len(lines)),
	)
	return created, nil
}

// Get returns an order with its lines. Non-staff users only see their own.
func (s *Service) Get(ctx context.Context, viewer domain.User, id int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsStaff && o.UserID != viewer.ID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// List returns orders newest first; staff see every order, others only theirs.
func (s *Service) List(ctx context.Context, viewer domain.User) ([]domain.Order, error) {
	filter := orderrepo.ListFilter{}
	if !viewer.IsStaff {
		uid := viewer.ID
		filter.UserID = &uid
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.metrics.OrdersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
	return err
}
