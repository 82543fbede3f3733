package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// entry guards a single order so commits on different orders never contend.
type entry struct {
	mu    sync.Mutex
	order *domain.Order
}

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*entry
	now    func() time.Time
	newID  func() string
}

func NewRepository() *Repository {
	return &Repository{
		orders: map[string]*entry{},
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// WithIDGenerator overrides order id allocation, for fixtures that need
// stable identifiers.
func (r *Repository) WithIDGenerator(newID func() string) {
	if newID != nil {
		r.newID = newID
	}
}

// Reset drops every stored order.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = map[string]*entry{}
}

func (r *Repository) Create(_ context.Context, draft domain.Draft) (*domain.Order, error) {
	at := r.now()
	order, err := domain.NewOrder(r.newID(), domain.NewOrderNumber(at), draft, at)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = &entry{order: order}
	return order.Clone(), nil
}

func (r *Repository) Get(_ context.Context, id string) (*domain.Order, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Clone(), nil
}

func (r *Repository) CommitTransition(_ context.Context, id string, expectedVersion int64, change domain.Change) (*domain.Order, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.Version != expectedVersion {
		return nil, &ports.VersionConflictError{OrderID: id, Expected: expectedVersion, Current: e.order.Version}
	}
	if change.At.IsZero() {
		change.At = r.now()
	}
	next := e.order.Clone()
	if err := next.Apply(change); err != nil {
		return nil, err
	}
	e.order = next
	return next.Clone(), nil
}

func (r *Repository) List(_ context.Context, filter ports.Filter) ([]*domain.Order, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.orders))
	for _, e := range r.orders {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	list := make([]*domain.Order, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if filter.Matches(e.order) {
			list = append(list, e.order.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit := filter.EffectiveLimit(); len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *Repository) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return e, nil
}
