package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

// Inbox decorates the customer notification service with tracing and logging.
type Inbox struct {
	inner ports.NotificationService
	obs   *Service
}

// NewInbox wraps inner using the same options as New.
func NewInbox(inner ports.NotificationService, opts ...Option) ports.NotificationService {
	return &Inbox{inner: inner, obs: New(nil, opts...).(*Service)}
}

func (i *Inbox) Notifications(ctx context.Context, viewer domain.Actor, unreadOnly bool) ([]domain.Notification, error) {
	ctx, span := i.obs.tracer.Start(ctx, "NotificationService.Notifications",
		trace.WithAttributes(attribute.String("viewer.id", viewer.ID), attribute.Bool("inbox.unread_only", unreadOnly)))
	defer span.End()

	result, err := i.inner.Notifications(ctx, viewer, unreadOnly)
	if err != nil {
		return nil, i.obs.handleError(ctx, span, err, "failed to read inbox", slog.String("viewer", viewer.String()))
	}
	span.SetAttributes(attribute.Int("inbox.count", len(result)))
	return result, nil
}

func (i *Inbox) MarkNotificationRead(ctx context.Context, viewer domain.Actor, id string) (domain.Notification, error) {
	ctx, span := i.obs.tracer.Start(ctx, "NotificationService.MarkNotificationRead",
		trace.WithAttributes(attribute.String("viewer.id", viewer.ID), attribute.String("notification.id", id)))
	defer span.End()

	result, err := i.inner.MarkNotificationRead(ctx, viewer, id)
	if err != nil {
		return domain.Notification{}, i.obs.handleError(ctx, span, err, "failed to mark notification read", slog.String("notification_id", id))
	}
	return result, nil
}
