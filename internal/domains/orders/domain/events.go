package domain

import (
	"fmt"
	"time"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// StatusChanged is published after every committed order change, including
// placement. Order is a snapshot at Version and must not be mutated.
type StatusChanged struct {
	BaseEvent
	Type           string
	OrderID        string
	OrderNumber    string
	CustomerID     string
	LocationID     string
	Status         Status
	PreviousStatus Status
	Version        int64
	Actor          Actor
	Message        string
	Order          *Order
}

// EventName returns the event type identifier.
func (e StatusChanged) EventName() string {
	if e.Type == "" {
		return EventOrderStatusChanged
	}
	return e.Type
}

// NewPlacedEvent describes a freshly created order for the admin feed.
func NewPlacedEvent(order *Order) StatusChanged {
	evt := newEvent(order)
	evt.Type = EventOrderPlaced
	evt.Message = fmt.Sprintf("New order %s received", order.Number)
	return evt
}

// NewStatusChangedEvent describes the latest committed transition of order.
func NewStatusChangedEvent(order *Order) StatusChanged {
	evt := newEvent(order)
	evt.Type = EventOrderStatusChanged
	evt.PreviousStatus = order.PreviousStatus()
	evt.Message = CustomerMessage(order)
	return evt
}

func newEvent(order *Order) StatusChanged {
	snapshot := order.Clone()
	last := snapshot.LastEntry()
	return StatusChanged{
		BaseEvent:   BaseEvent{Timestamp: last.At},
		OrderID:     snapshot.ID,
		OrderNumber: snapshot.Number,
		CustomerID:  snapshot.CustomerID,
		LocationID:  snapshot.LocationID,
		Status:      snapshot.Status,
		Version:     snapshot.Version,
		Actor:       last.Actor,
		Order:       snapshot,
	}
}

// CustomerMessage renders the notification copy shown to the customer for the
// order's current status.
func CustomerMessage(order *Order) string {
	switch order.Status {
	case StatusPlaced:
		return fmt.Sprintf("Your order %s has been placed", order.Number)
	case StatusAccepted:
		if order.EstimatedPrepMinutes != nil {
			return fmt.Sprintf("Your order %s has been accepted. Estimated time: %d minutes", order.Number, *order.EstimatedPrepMinutes)
		}
		return fmt.Sprintf("Your order %s has been accepted", order.Number)
	case StatusPreparing:
		return fmt.Sprintf("Your order %s is being prepared", order.Number)
	case StatusReady:
		return fmt.Sprintf("Your order %s is ready for pickup!", order.Number)
	case StatusCompleted:
		return fmt.Sprintf("Your order %s has been completed. Enjoy!", order.Number)
	case StatusRejected:
		if order.Rejection != nil {
			reason := string(order.Rejection.Reason)
			if order.Rejection.Reason == RejectCustom {
				reason = order.Rejection.Comment
			}
			return fmt.Sprintf("Your order %s has been rejected. Reason: %s", order.Number, reason)
		}
		return fmt.Sprintf("Your order %s has been rejected", order.Number)
	case StatusCancelled:
		return fmt.Sprintf("Your order %s has been cancelled", order.Number)
	default:
		return ""
	}
}
