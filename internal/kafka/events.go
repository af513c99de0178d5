package kafka

import (
	"context"
	"strconv"
	"time"

	"smart-canteen/internal/domain"
)

const EventOrderPlaced = "order.placed"

type OrderLineEvent struct {
	ItemID   int64  `json:"itemId"`
	ItemName string `json:"itemName,omitempty"`
	Quantity int    `json:"quantity"`
}

// OrderPlacedEvent is the payload written for every committed order.
type OrderPlacedEvent struct {
	Type       string           `json:"type"`
	OrderID    int64            `json:"orderId"`
	UserID     int64            `json:"userId"`
	TotalPrice string           `json:"totalPrice"`
	Lines      []OrderLineEvent `json:"lines"`
	PlacedAt   time.Time        `json:"placedAt"`
}

func NewOrderPlacedEvent(o domain.Order) OrderPlacedEvent {
	lines := make([]OrderLineEvent, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineEvent{ItemID: l.ItemID, ItemName: l.ItemName, Quantity: l.Quantity})
	}
	return OrderPlacedEvent{
		Type:       EventOrderPlaced,
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice.StringFixed(2),
		Lines:      lines,
		PlacedAt:   o.CreatedAt,
	}
}

// OrderEvents publishes order events keyed by order id.
type OrderEvents struct {
	producer *Producer
}

func NewOrderEvents(p *Producer) *OrderEvents {
	return &OrderEvents{producer: p}
}

func (e *OrderEvents) OrderPlaced(ctx context.Context, o domain.Order) error {
	return e.producer.Publish(ctx, Envelope{
		Key:     strconv.FormatInt(o.ID, 10),
		Type:    EventOrderPlaced,
		Payload: NewOrderPlacedEvent(o),
	})
}

func (e *OrderEvents) Close() error {
	return e.producer.Close()
}
