package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ordermapper "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	platformkafka "github.com/Apurer/go-gin-order-tracking/internal/platform/kafka"
)

var errMissingOrderID = errors.New("relay message has no order id")

// Producer is the subset of the platform producer the relay needs.
type Producer interface {
	Publish(ctx context.Context, key string, event any) error
}

var _ ports.Publisher = (*Publisher)(nil)

// DefaultPublishTimeout bounds one relay write. Commands on the same order
// wait behind it.
const DefaultPublishTimeout = 2 * time.Second

// Publisher sends committed order events to the relay topic keyed by order id.
type Publisher struct {
	producer Producer
	timeout  time.Duration
}

type PublisherOption func(*Publisher)

func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPublisher(producer Producer, opts ...PublisherOption) *Publisher {
	p := &Publisher{producer: producer, timeout: DefaultPublishTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes evt detached from the caller's cancellation: a client that
// disconnects after its commit must not stop other instances hearing of it.
func (p *Publisher) Publish(ctx context.Context, evt domain.StatusChanged) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.producer.Publish(ctx, evt.OrderID, ordermapper.FromDomainEvent(evt)); err != nil {
		return fmt.Errorf("relay order %s v%d: %w", evt.OrderID, evt.Version, err)
	}
	return nil
}

// NewHandler decodes relay messages and hands them to the local fan-out.
func NewHandler(local ports.Publisher) platformkafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		var payload ordermapper.Event
		if err := json.Unmarshal(value, &payload); err != nil {
			return fmt.Errorf("decode relay message %q: %w", key, err)
		}
		if payload.OrderID == "" {
			return errMissingOrderID
		}
		return local.Publish(ctx, ordermapper.ToDomainEvent(payload))
	}
}
