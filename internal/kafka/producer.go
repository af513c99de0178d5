// Package kafka publishes order events.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Header names set on every message besides the trace context.
const (
	HeaderEventType   = "event-type"
	HeaderContentType = "content-type"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope is one event ready to be written: the partition key, the event
// type carried in headers and the JSON-encodable payload.
type Envelope struct {
	Key     string
	Type    string
	Payload any
}

// Producer writes envelopes to a single topic.
type Producer struct {
	writer     messageWriter
	topic      string
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	now        func() time.Time
}

// NewProducer hashes keys onto partitions so every event of one order lands
// on the same partition. Batches flush quickly since orders trickle in one
// at a time.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           20 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, topic)
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{
		writer:     w,
		topic:      topic,
		tracer:     otel.Tracer("smart-canteen/kafka"),
		propagator: propagation.TraceContext{},
		now:        time.Now,
	}
}

// Publish encodes the envelope and writes it. The span context travels in the
// message headers so consumers can continue the trace.
func (p *Producer) Publish(ctx context.Context, env Envelope) error {
	ctx, span := p.tracer.Start(ctx, p.topic+" send",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			attribute.String("messaging.operation.type", "publish"),
			semconv.MessagingDestinationName(p.topic),
			attribute.String("messaging.kafka.message.key", env.Key),
			attribute.String("canteen.event.type", env.Type),
		),
	)
	defer span.End()

	value, err := json.Marshal(env.Payload)
	if err != nil {
		return p.fail(span, errors.Wrapf(err, "encode %s", env.Type))
	}
	span.SetAttributes(attribute.Int("messaging.message.body.size", len(value)))

	msg := kafka.Message{
		Key:   []byte(env.Key),
		Value: value,
		Time:  p.now().UTC(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(env.Type)},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	}
	p.propagator.Inject(ctx, messageCarrier{msg: &msg})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return p.fail(span, errors.Wrapf(err, "write %s to %s", env.Type, p.topic))
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *Producer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageCarrier exposes kafka message headers to otel propagators. Set
// replaces an existing header so re-injection never duplicates traceparent.
type messageCarrier struct {
	msg *kafka.Message
}

var _ propagation.TextMapCarrier = messageCarrier{}

func (c messageCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c messageCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c messageCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
