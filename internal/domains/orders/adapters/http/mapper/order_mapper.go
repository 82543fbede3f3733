package mapper

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

var errMissingExpectedVersion = errors.New("expectedVersion is required")

// Actor identifies who performed a transition.
type Actor struct {
	Role string `json:"role"`
	ID   string `json:"id"`
}

// LineItem is the HTTP representation of an order line.
type LineItem struct {
	MenuItemID          string          `json:"menuItemId"`
	Name                string          `json:"name,omitempty"`
	Size                string          `json:"size"`
	Toppings            []string        `json:"toppings,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

// Rejection explains a rejected order.
type Rejection struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
}

// StatusEntry is one row of the order timeline.
type StatusEntry struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Actor  Actor     `json:"actor"`
	Note   string    `json:"note,omitempty"`
}

// Order is the snapshot returned by every read and write endpoint.
type Order struct {
	ID                   string          `json:"id"`
	Number               string          `json:"orderNumber"`
	CustomerID           string          `json:"customerId"`
	LocationID           string          `json:"locationId"`
	Items                []LineItem      `json:"items"`
	Total                decimal.Decimal `json:"total"`
	Notes                string          `json:"notes,omitempty"`
	Status               string          `json:"status"`
	AllowedNext          []string        `json:"allowedNext"`
	History              []StatusEntry   `json:"history"`
	Version              int64           `json:"version"`
	EstimatedPrepMinutes *int            `json:"estimatedPrepMinutes,omitempty"`
	Rejection            *Rejection      `json:"rejection,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Event is the payload pushed to live viewers and to the relay topic.
type Event struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	CustomerID     string    `json:"customerId"`
	LocationID     string    `json:"locationId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	Version        int64     `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	Actor          Actor     `json:"actor"`
	Message        string    `json:"message,omitempty"`
	Order          *Order    `json:"order,omitempty"`
}

// PlaceOrderItem is an inbound basket line.
type PlaceOrderItem struct {
	MenuItemID          string          `json:"menuItemId" binding:"required"`
	Name                string          `json:"name"`
	Size                string          `json:"size" binding:"required"`
	Toppings            []string        `json:"toppings"`
	Quantity            int             `json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	SpecialInstructions string          `json:"specialInstructions"`
}

// PlaceOrderRequest is the checkout hand-off payload.
type PlaceOrderRequest struct {
	LocationID string           `json:"locationId" binding:"required"`
	Items      []PlaceOrderItem `json:"items" binding:"required"`
	Notes      string           `json:"notes"`
}

// CancelRequest carries the version the customer last saw.
type CancelRequest struct {
	ExpectedVersion int64  `json:"expectedVersion"`
	Note            string `json:"note"`
}

// AdminActionRequest is a dashboard command.
type AdminActionRequest struct {
	Action               string     `json:"action" binding:"required"`
	ExpectedVersion      int64      `json:"expectedVersion"`
	EstimatedPrepMinutes *int       `json:"estimatedPrepMinutes"`
	Rejection            *Rejection `json:"rejection"`
	Note                 string     `json:"note"`
}

// ToPlaceOrderInput converts a checkout payload for customer.
func ToPlaceOrderInput(req PlaceOrderRequest, customer domain.Actor, idempotencyKey string) ordertypes.PlaceOrderInput {
	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Size:                domain.Size(item.Size),
			Toppings:            append([]string(nil), item.Toppings...),
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	return ordertypes.PlaceOrderInput{
		Customer:       customer,
		LocationID:     req.LocationID,
		Items:          items,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey,
	}
}

// ToCustomerCommand converts a cancel payload.
func ToCustomerCommand(orderID string, req CancelRequest, customer domain.Actor) (ordertypes.CustomerCommand, error) {
	if req.ExpectedVersion <= 0 {
		return ordertypes.CustomerCommand{}, errMissingExpectedVersion
	}
	return ordertypes.CustomerCommand{
		OrderID:         orderID,
		ExpectedVersion: req.ExpectedVersion,
		Actor:           customer,
		Note:            req.Note,
	}, nil
}

// ToAdminCommand converts a dashboard action payload.
func ToAdminCommand(orderID string, req AdminActionRequest, actor domain.Actor) (ordertypes.AdminCommand, error) {
	if req.ExpectedVersion <= 0 {
		return ordertypes.AdminCommand{}, errMissingExpectedVersion
	}
	cmd := ordertypes.AdminCommand{
		OrderID:              orderID,
		Action:               ordertypes.Action(req.Action),
		ExpectedVersion:      req.ExpectedVersion,
		Actor:                actor,
		EstimatedPrepMinutes: req.EstimatedPrepMinutes,
		Note:                 req.Note,
	}
	if req.Rejection != nil {
		cmd.Rejection = &domain.Rejection{
			Reason:  domain.RejectionReason(req.Rejection.Reason),
			Comment: req.Rejection.Comment,
		}
	}
	return cmd, nil
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:                   order.ID,
		Number:               order.Number,
		CustomerID:           order.CustomerID,
		LocationID:           order.LocationID,
		Items:                make([]LineItem, 0, len(order.Items)),
		Total:                order.Total,
		Notes:                order.Notes,
		Status:               string(order.Status),
		AllowedNext:          []string{},
		History:              make([]StatusEntry, 0, len(order.History)),
		Version:              order.Version,
		EstimatedPrepMinutes: order.EstimatedPrepMinutes,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, LineItem{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Size:                string(item.Size),
			Toppings:            item.Toppings,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			Subtotal:            item.Subtotal(),
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	for _, next := range domain.NextAllowed(order.Status) {
		out.AllowedNext = append(out.AllowedNext, string(next))
	}
	for _, entry := range order.History {
		out.History = append(out.History, StatusEntry{
			Status: string(entry.Status),
			At:     entry.At,
			Actor:  fromActor(entry.Actor),
			Note:   entry.Note,
		})
	}
	if order.Rejection != nil {
		out.Rejection = &Rejection{Reason: string(order.Rejection.Reason), Comment: order.Rejection.Comment}
	}
	return out
}

// FromDomainOrders converts a list of orders.
func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

// ToDomainOrder rebuilds a domain snapshot from its transport form.
func ToDomainOrder(in Order) *domain.Order {
	order := &domain.Order{
		ID:                   in.ID,
		Number:               in.Number,
		CustomerID:           in.CustomerID,
		LocationID:           in.LocationID,
		Items:                make([]domain.LineItem, 0, len(in.Items)),
		Total:                in.Total,
		Notes:                in.Notes,
		Status:               domain.Status(in.Status),
		History:              make([]domain.StatusEntry, 0, len(in.History)),
		Version:              in.Version,
		EstimatedPrepMinutes: in.EstimatedPrepMinutes,
		CreatedAt:            in.CreatedAt,
		UpdatedAt:            in.UpdatedAt,
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, domain.LineItem{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Size:                domain.Size(item.Size),
			Toppings:            item.Toppings,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	for _, entry := range in.History {
		order.History = append(order.History, domain.StatusEntry{
			Status: domain.Status(entry.Status),
			At:     entry.At,
			Actor:  toActor(entry.Actor),
			Note:   entry.Note,
		})
	}
	if in.Rejection != nil {
		order.Rejection = &domain.Rejection{Reason: domain.RejectionReason(in.Rejection.Reason), Comment: in.Rejection.Comment}
	}
	return order
}

// FromDomainEvent converts a domain event to its wire payload.
func FromDomainEvent(evt domain.StatusChanged) Event {
	out := Event{
		Type:           evt.EventName(),
		OrderID:        evt.OrderID,
		OrderNumber:    evt.OrderNumber,
		CustomerID:     evt.CustomerID,
		LocationID:     evt.LocationID,
		Status:         string(evt.Status),
		PreviousStatus: string(evt.PreviousStatus),
		Version:        evt.Version,
		Timestamp:      evt.OccurredAt(),
		Actor:          fromActor(evt.Actor),
		Message:        evt.Message,
	}
	if evt.Order != nil {
		snapshot := FromDomainOrder(evt.Order)
		out.Order = &snapshot
	}
	return out
}

// ToDomainEvent converts a wire payload back into a domain event.
func ToDomainEvent(in Event) domain.StatusChanged {
	evt := domain.StatusChanged{
		BaseEvent:      domain.BaseEvent{Timestamp: in.Timestamp},
		Type:           in.Type,
		OrderID:        in.OrderID,
		OrderNumber:    in.OrderNumber,
		CustomerID:     in.CustomerID,
		LocationID:     in.LocationID,
		Status:         domain.Status(in.Status),
		PreviousStatus: domain.Status(in.PreviousStatus),
		Version:        in.Version,
		Actor:          toActor(in.Actor),
		Message:        in.Message,
	}
	if in.Order != nil {
		evt.Order = ToDomainOrder(*in.Order)
	}
	return evt
}

func fromActor(a domain.Actor) Actor { return Actor{Role: string(a.Role), ID: a.ID} }

func toActor(a Actor) domain.Actor { return domain.Actor{Role: domain.Role(a.Role), ID: a.ID} }

// Notification is one customer inbox entry.
type Notification struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber,omitempty"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromDomainNotification(n domain.Notification) Notification {
	return Notification{
		ID:          n.ID,
		OrderID:     n.OrderID,
		OrderNumber: n.OrderNumber,
		Type:        string(n.Type),
		Message:     n.Message,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

func FromDomainNotifications(in []domain.Notification) []Notification {
	out := make([]Notification, 0, len(in))
	for _, n := range in {
		out = append(out, FromDomainNotification(n))
	}
	return out
}
