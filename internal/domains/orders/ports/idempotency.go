package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress indicates the key is reserved but no order is attached yet.
	ErrIdempotencyInProgress = errors.New("idempotent request still in progress")
)

// IdempotencyRecord captures the association between a client-supplied key and the placed order.
// OrderID is empty while the key is only reserved.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pending reports whether the key is reserved without an order.
func (r IdempotencyRecord) Pending() bool { return r.OrderID == "" }

// IdempotencyStore persists idempotency keys so checkout retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Reserve claims the key for record.RequestHash. reserved is false when the
	// key was already claimed; the stored record is returned either way. A
	// claimed key with a different hash returns ErrIdempotencyConflict.
	Reserve(ctx context.Context, record IdempotencyRecord) (stored *IdempotencyRecord, reserved bool, err error)
	// Attach records the order placed under a reserved key.
	Attach(ctx context.Context, key, orderID string) error
	// Release drops a reservation whose order was never created.
	Release(ctx context.Context, key string) error
}

// IdempotencyPurger drops keys older than a retention window.
type IdempotencyPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
