package types

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// ErrUnknownAction indicates an admin action name outside the supported set.
var ErrUnknownAction = errors.New("unknown admin action")

// Action names an admin dashboard command.
type Action string

const (
	ActionAccept         Action = "accept"
	ActionReject         Action = "reject"
	ActionStartPreparing Action = "startPreparing"
	ActionMarkReady      Action = "markReady"
	ActionComplete       Action = "complete"
	ActionCancel         Action = "cancel"
)

var actionTargets = map[Action]domain.Status{
	ActionAccept:         domain.StatusAccepted,
	ActionReject:         domain.StatusRejected,
	ActionStartPreparing: domain.StatusPreparing,
	ActionMarkReady:      domain.StatusReady,
	ActionComplete:       domain.StatusCompleted,
	ActionCancel:         domain.StatusCancelled,
}

// Target resolves the status the action moves an order to.
func (a Action) Target() (domain.Status, error) {
	status, ok := actionTargets[a]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	return status, nil
}

// Actions lists supported admin actions.
func Actions() []Action {
	return []Action{ActionAccept, ActionReject, ActionStartPreparing, ActionMarkReady, ActionComplete, ActionCancel}
}

// AdminCommand is one dashboard action against one order.
type AdminCommand struct {
	OrderID              string
	Action               Action
	ExpectedVersion      int64
	Actor                domain.Actor
	EstimatedPrepMinutes *int
	Rejection            *domain.Rejection
	Note                 string
}

// CustomerCommand is a customer cancellation request.
type CustomerCommand struct {
	OrderID         string
	ExpectedVersion int64
	Actor           domain.Actor
	Note            string
}

// PlaceOrderInput captures a checked-out basket.
type PlaceOrderInput struct {
	Customer       domain.Actor
	LocationID     string
	Items          []domain.LineItem
	Notes          string
	IdempotencyKey string
}

// Draft converts the input into a domain draft.
func (in PlaceOrderInput) Draft() domain.Draft {
	return domain.Draft{
		CustomerID: in.Customer.ID,
		LocationID: in.LocationID,
		Items:      in.Items,
		Notes:      in.Notes,
	}
}

// OrderQuery lists orders visible to Viewer.
type OrderQuery struct {
	Viewer     domain.Actor
	Statuses   []domain.Status
	LocationID string
	Limit      int
}

// OrderLookup fetches one order on behalf of Viewer.
type OrderLookup struct {
	OrderID string
	Viewer  domain.Actor
}
