package telemetry

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	OrdersPlaced    metric.Int64Counter
	OrderValue      metric.Float64Histogram
	CartMutations   metric.Int64Counter
	EventsPublished metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	ordersPlaced, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Total orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	orderValue, err := meter.Float64Histogram("order_value",
		metric.WithDescription("Order total in currency units"),
		metric.WithUnit("{currency}"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 20, 50, 100),
	)
	if err != nil {
		return nil, err
	}

	cartMutations, err := meter.Int64Counter("cart_mutations_total",
		metric.WithDescription("Cart add/update/remove operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	published, err := meter.Int64Counter("events_published_total",
		metric.WithDescription("Order events published to Kafka"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		OrdersPlaced:    ordersPlaced,
		OrderValue:      orderValue,
		CartMutations:   cartMutations,
		EventsPublished: published,
	}, nil
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(""))
	return m
}
