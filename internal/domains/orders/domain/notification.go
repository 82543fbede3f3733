package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies inbox entries.
type NotificationType string

const (
	NotificationOrderAccepted  NotificationType = "order_accepted"
	NotificationOrderRejected  NotificationType = "order_rejected"
	NotificationOrderCompleted NotificationType = "order_completed"
)

var notificationTypes = map[Status]NotificationType{
	StatusAccepted:  NotificationOrderAccepted,
	StatusRejected:  NotificationOrderRejected,
	StatusCompleted: NotificationOrderCompleted,
}

// Notification is one persistent inbox entry for a customer.
type Notification struct {
	ID          string
	OrderID     string
	OrderNumber string
	RecipientID string
	Type        NotificationType
	Message     string
	Read        bool
	CreatedAt   time.Time
}

// NotificationFor derives the inbox entry a committed change produces. Only
// staff decisions the customer has to learn about qualify. The id is derived
// from the order id and version so a redelivered event maps to the same entry.
func NotificationFor(evt StatusChanged) (Notification, bool) {
	if evt.EventName() != EventOrderStatusChanged || !evt.Actor.isStaff() || evt.CustomerID == "" {
		return Notification{}, false
	}
	typ, ok := notificationTypes[evt.Status]
	if !ok {
		return Notification{}, false
	}
	message := evt.Message
	if message == "" && evt.Order != nil {
		message = CustomerMessage(evt.Order)
	}
	key := fmt.Sprintf("%s:%d", evt.OrderID, evt.Version)
	return Notification{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
		OrderID:     evt.OrderID,
		OrderNumber: evt.OrderNumber,
		RecipientID: evt.CustomerID,
		Type:        typ,
		Message:     message,
		CreatedAt:   evt.OccurredAt(),
	}, true
}
