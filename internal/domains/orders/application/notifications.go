package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

const notificationWriteTimeout = 2 * time.Second

var (
	_ ports.Publisher           = (*Notifier)(nil)
	_ ports.NotificationService = (*Inbox)(nil)
)

// Notifier turns committed staff decisions into customer inbox entries. It is
// wired next to the live hub and never reads from it.
type Notifier struct {
	repo   ports.NotificationRepository
	logger *slog.Logger
}

func NewNotifier(repo ports.NotificationRepository, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{repo: repo, logger: logger}
}

func (n *Notifier) Publish(ctx context.Context, evt domain.StatusChanged) error {
	notification, ok := domain.NotificationFor(evt)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationWriteTimeout)
	defer cancel()
	if err := n.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("store %s notification for order %s: %w", notification.Type, evt.OrderID, err)
	}
	n.logger.DebugContext(ctx, "customer notified",
		slog.String("order_id", evt.OrderID),
		slog.String("type", string(notification.Type)),
	)
	return nil
}

// Inbox serves a customer's own notifications.
type Inbox struct {
	repo ports.NotificationRepository
}

func NewInbox(repo ports.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

func (i *Inbox) Notifications(ctx context.Context, viewer domain.Actor, unreadOnly bool) ([]domain.Notification, error) {
	if err := inboxOwner(viewer); err != nil {
		return nil, err
	}
	return i.repo.List(ctx, viewer.ID, unreadOnly, ports.NotificationInboxLimit)
}

func (i *Inbox) MarkNotificationRead(ctx context.Context, viewer domain.Actor, id string) (domain.Notification, error) {
	if err := inboxOwner(viewer); err != nil {
		return domain.Notification{}, err
	}
	return i.repo.MarkRead(ctx, id, viewer.ID)
}

func inboxOwner(viewer domain.Actor) error {
	if err := viewer.Validate(); err != nil {
		return err
	}
	if viewer.Role != domain.RoleCustomer {
		return fmt.Errorf("%w: inbox belongs to customers", domain.ErrForbidden)
	}
	return nil
}
