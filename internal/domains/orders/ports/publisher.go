package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// ErrSubscriptionClosed is returned when reading from a closed or evicted subscription.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Publisher forwards committed order events towards live viewers.
type Publisher interface {
	Publish(ctx context.Context, evt domain.StatusChanged) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt domain.StatusChanged) error

func (f PublisherFunc) Publish(ctx context.Context, evt domain.StatusChanged) error {
	return f(ctx, evt)
}

// FanOut delivers each event to every publisher in order. One failing
// publisher does not stop the rest; their errors are joined.
func FanOut(publishers ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, evt domain.StatusChanged) error {
		errs := make([]error, 0, len(publishers))
		for _, p := range publishers {
			errs = append(errs, p.Publish(ctx, evt))
		}
		return errors.Join(errs...)
	})
}

// ScopeKind distinguishes single-order subscriptions from the admin feed.
type ScopeKind string

const (
	ScopeOrder ScopeKind = "order"
	ScopeAdmin ScopeKind = "admin"
)

// Scope selects which events a connection receives.
type Scope struct {
	Kind    ScopeKind
	OrderID string
}

func OrderScope(orderID string) Scope { return Scope{Kind: ScopeOrder, OrderID: orderID} }

func AdminScope() Scope { return Scope{Kind: ScopeAdmin} }

// Subscription is a live connection handle. Events is closed when the
// subscription ends, either through Close or because the viewer fell behind.
type Subscription interface {
	ID() string
	Scope() Scope
	Events() <-chan domain.StatusChanged
	Close()
}

// Feed registers live connections.
type Feed interface {
	Subscribe(connID string, scope Scope) (Subscription, error)
	Unsubscribe(connID string)
}

// TrackingView is one customer's live view of one order.
type TrackingView interface {
	// Current returns the newest snapshot the view has accepted.
	Current() *domain.Order
	// Apply accepts evt only when it is newer than Current.
	Apply(evt domain.StatusChanged) bool
	// Next blocks until a newer event is applied, the context ends or the
	// subscription closes.
	Next(ctx context.Context) (domain.StatusChanged, error)
	Close()
}
