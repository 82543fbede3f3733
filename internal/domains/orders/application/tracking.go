package application

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.TrackingView = (*Tracker)(nil)

// Tracker holds a customer's latest known snapshot of one order and only moves
// forward: events at or below the current version are discarded.
type Tracker struct {
	mu      sync.Mutex
	current *domain.Order
	sub     ports.Subscription
}

// NewTracker starts a view at snapshot. sub may be nil for offline use.
func NewTracker(snapshot *domain.Order, sub ports.Subscription) *Tracker {
	return &Tracker{current: snapshot.Clone(), sub: sub}
}

func (t *Tracker) Current() *domain.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.Clone()
}

func (t *Tracker) Apply(evt domain.StatusChanged) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if evt.OrderID != t.current.ID || evt.Version <= t.current.Version {
		return false
	}
	if evt.Order != nil {
		t.current = evt.Order.Clone()
		return true
	}
	// Without a snapshot only the immediate successor can be replayed onto
	// the history; a gap needs a refetch.
	if evt.Version != t.current.Version+1 {
		return false
	}
	next := t.current.Clone()
	next.Status = evt.Status
	next.Version = evt.Version
	next.UpdatedAt = evt.OccurredAt()
	next.History = append(next.History, domain.StatusEntry{
		Status: evt.Status,
		At:     evt.OccurredAt(),
		Actor:  evt.Actor,
	})
	t.current = next
	return true
}

func (t *Tracker) Next(ctx context.Context) (domain.StatusChanged, error) {
	if t.sub == nil {
		return domain.StatusChanged{}, ports.ErrSubscriptionClosed
	}
	events := t.sub.Events()
	for {
		select {
		case <-ctx.Done():
			return domain.StatusChanged{}, ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return domain.StatusChanged{}, ports.ErrSubscriptionClosed
			}
			if t.Apply(evt) {
				return evt, nil
			}
		}
	}
}

func (t *Tracker) Close() {
	if t.sub != nil {
		t.sub.Close()
	}
}
