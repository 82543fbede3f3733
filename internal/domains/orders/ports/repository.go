package ports

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrVersionConflict = errors.New("order version conflict")
)

// DefaultListLimit caps List results when Filter.Limit is unset.
const DefaultListLimit = 50

// VersionConflictError reports the version the caller expected and the one
// currently stored. It matches ErrVersionConflict with errors.Is.
type VersionConflictError struct {
	OrderID  string
	Expected int64
	Current  int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("%s: order %s expected version %d, current %d", ErrVersionConflict, e.OrderID, e.Expected, e.Current)
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Statuses   []domain.Status
	LocationID string
	CustomerID string
	Limit      int
}

// EffectiveLimit returns Limit or DefaultListLimit when unset.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Matches reports whether order satisfies the filter.
func (f Filter) Matches(order *domain.Order) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, order.Status) {
		return false
	}
	if f.LocationID != "" && order.LocationID != f.LocationID {
		return false
	}
	if f.CustomerID != "" && order.CustomerID != f.CustomerID {
		return false
	}
	return true
}

// Repository is the authoritative order store.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	// Create assigns identity and persists a placed order at version 1.
	Create(ctx context.Context, draft domain.Draft) (*domain.Order, error)
	// CommitTransition applies change only when the stored version equals
	// expectedVersion and the transition is legal. The version check, the
	// history append and the version bump happen as one step.
	CommitTransition(ctx context.Context, id string, expectedVersion int64, change domain.Change) (*domain.Order, error)
	// List returns orders newest first.
	List(ctx context.Context, filter Filter) ([]*domain.Order, error)
}
