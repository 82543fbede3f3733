package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// ErrNotificationNotFound is returned for unknown ids and for ids owned by
// another recipient.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationInboxLimit caps one inbox read.
const NotificationInboxLimit = 50

// NotificationRepository stores customer inbox entries.
type NotificationRepository interface {
	// Create stores n. Creating an id that already exists is a no-op.
	Create(ctx context.Context, n domain.Notification) error
	// List returns the recipient's entries newest first.
	List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	// MarkRead flags one entry owned by recipientID as read.
	MarkRead(ctx context.Context, id, recipientID string) (domain.Notification, error)
}

// NotificationService exposes the customer inbox to adapters.
type NotificationService interface {
	Notifications(ctx context.Context, viewer domain.Actor, unreadOnly bool) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, viewer domain.Actor, id string) (domain.Notification, error)
}
