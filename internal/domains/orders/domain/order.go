package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Size is the drink size selected for a line item.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// RejectionReason enumerates why an admin refused an order.
type RejectionReason string

const (
	RejectNoMilk          RejectionReason = "no_milk"
	RejectNoCoffeeBeans   RejectionReason = "no_coffee_beans"
	RejectSizeUnavailable RejectionReason = "size_unavailable"
	RejectEquipmentIssue  RejectionReason = "equipment_issue"
	RejectCustom          RejectionReason = "custom"
)

var (
	ErrInvalidCustomer  = errors.New("customer id is required")
	ErrInvalidLocation  = errors.New("location id is required")
	ErrNoItems          = errors.New("order must contain at least one item")
	ErrInvalidItem      = errors.New("order item is invalid")
	ErrInvalidRejection = errors.New("rejection is invalid")
	ErrInvalidPrepTime  = errors.New("estimated prep minutes must not be negative")
)

const (
	numberPrefix   = "ORD"
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	numberSuffix   = 5

	// PriceScale is the number of decimal places money is stored with.
	PriceScale = 2
)

// LineItem is a single drink within an order. Prices are fixed at placement.
type LineItem struct {
	MenuItemID          string
	Name                string
	Size                Size
	Toppings            []string
	Quantity            int
	UnitPrice           decimal.Decimal
	SpecialInstructions string
}

// Subtotal returns UnitPrice multiplied by Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Validate enforces line item invariants.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.MenuItemID) == "" {
		return fmt.Errorf("%w: menu item id is required", ErrInvalidItem)
	}
	switch li.Size {
	case SizeSmall, SizeMedium, SizeLarge:
	default:
		return fmt.Errorf("%w: unknown size %q", ErrInvalidItem, li.Size)
	}
	if li.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	}
	if li.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidItem)
	}
	if !li.UnitPrice.Equal(li.UnitPrice.Round(PriceScale)) {
		return fmt.Errorf("%w: unit price has more than %d decimal places", ErrInvalidItem, PriceScale)
	}
	return nil
}

// Rejection records why an order was rejected.
type Rejection struct {
	Reason  RejectionReason
	Comment string
}

// Validate requires a known reason and a comment for custom reasons.
func (r Rejection) Validate() error {
	switch r.Reason {
	case RejectNoMilk, RejectNoCoffeeBeans, RejectSizeUnavailable, RejectEquipmentIssue:
		return nil
	case RejectCustom:
		if strings.TrimSpace(r.Comment) == "" {
			return fmt.Errorf("%w: custom reason requires a comment", ErrInvalidRejection)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown reason %q", ErrInvalidRejection, r.Reason)
	}
}

// StatusEntry is one row of the append-only status history.
type StatusEntry struct {
	Status Status
	At     time.Time
	Actor  Actor
	Note   string
}

// Draft carries the customer supplied fields of a new order.
type Draft struct {
	CustomerID string
	LocationID string
	Items      []LineItem
	Notes      string
}

// Validate enforces draft invariants before an order is created.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.CustomerID) == "" {
		return ErrInvalidCustomer
	}
	if strings.TrimSpace(d.LocationID) == "" {
		return ErrInvalidLocation
	}
	if len(d.Items) == 0 {
		return ErrNoItems
	}
	for i, item := range d.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// Change describes a requested status transition.
type Change struct {
	To                   Status
	Actor                Actor
	At                   time.Time
	Note                 string
	EstimatedPrepMinutes *int
	Rejection            *Rejection
}

// Order models the coffee order aggregate.
type Order struct {
	ID                   string
	Number               string
	CustomerID           string
	LocationID           string
	Items                []LineItem
	Total                decimal.Decimal
	Notes                string
	Status               Status
	History              []StatusEntry
	Version              int64
	EstimatedPrepMinutes *int
	Rejection            *Rejection
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewOrder validates the draft and constructs an order at version 1 with a
// single placed history entry attributed to the customer.
func NewOrder(id, number string, draft Draft, at time.Time) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("order id is required")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	at = at.UTC()
	items := cloneItems(draft.Items)
	order := &Order{
		ID:         id,
		Number:     number,
		CustomerID: draft.CustomerID,
		LocationID: draft.LocationID,
		Items:      items,
		Total:      TotalOf(items),
		Notes:      draft.Notes,
		Status:     StatusPlaced,
		History: []StatusEntry{{
			Status: StatusPlaced,
			At:     at,
			Actor:  CustomerActor(draft.CustomerID),
		}},
		Version:   1,
		CreatedAt: at,
		UpdatedAt: at,
	}
	return order, nil
}

// NewOrderNumber builds a human readable order number such as ORD-1700000000000-K3F9Q.
func NewOrderNumber(at time.Time) string {
	var b strings.Builder
	b.Grow(numberSuffix)
	limit := big.NewInt(int64(len(numberAlphabet)))
	for range numberSuffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			n = big.NewInt(at.UnixNano() % int64(len(numberAlphabet)))
		}
		b.WriteByte(numberAlphabet[n.Int64()])
	}
	return fmt.Sprintf("%s-%d-%s", numberPrefix, at.UnixMilli(), b.String())
}

// TotalOf sums item subtotals.
func TotalOf(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate enforces invariants on a stored aggregate.
func (o *Order) Validate() error {
	if !o.Status.IsValid() {
		return ErrInvalidStatus
	}
	if o.Version < 1 {
		return fmt.Errorf("order version must be at least 1, got %d", o.Version)
	}
	if int64(len(o.History)) != o.Version {
		return fmt.Errorf("order history has %d entries for version %d", len(o.History), o.Version)
	}
	if last := o.History[len(o.History)-1]; last.Status != o.Status {
		return fmt.Errorf("order history ends at %s but status is %s", last.Status, o.Status)
	}
	if !o.Total.Equal(TotalOf(o.Items)) {
		return errors.New("order total does not match line items")
	}
	return nil
}

// Apply validates change against the lifecycle and mutates the order only when
// every check passes: status, history, version and the per-transition fields.
func (o *Order) Apply(change Change) error {
	if err := ValidateTransition(o.Status, change.To); err != nil {
		return err
	}
	if err := change.Actor.Validate(); err != nil {
		return err
	}
	if change.EstimatedPrepMinutes != nil && *change.EstimatedPrepMinutes < 0 {
		return ErrInvalidPrepTime
	}
	var rejection *Rejection
	if change.To == StatusRejected {
		if change.Rejection == nil {
			return fmt.Errorf("%w: reason is required", ErrInvalidRejection)
		}
		if err := change.Rejection.Validate(); err != nil {
			return err
		}
		r := *change.Rejection
		rejection = &r
	}

	at := change.At.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	o.Status = change.To
	o.History = append(o.History, StatusEntry{
		Status: change.To,
		At:     at,
		Actor:  change.Actor,
		Note:   change.Note,
	})
	o.Version++
	o.UpdatedAt = at
	if change.To == StatusAccepted && change.EstimatedPrepMinutes != nil {
		minutes := *change.EstimatedPrepMinutes
		o.EstimatedPrepMinutes = &minutes
	}
	if rejection != nil {
		o.Rejection = rejection
	}
	return nil
}

// PreviousStatus returns the status held before the latest transition.
func (o *Order) PreviousStatus() Status {
	if len(o.History) < 2 {
		return ""
	}
	return o.History[len(o.History)-2].Status
}

// LastEntry returns the most recent history entry.
func (o *Order) LastEntry() StatusEntry {
	if len(o.History) == 0 {
		return StatusEntry{}
	}
	return o.History[len(o.History)-1]
}

// Clone returns a deep copy safe to hand across goroutines.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = cloneItems(o.Items)
	cp.History = append([]StatusEntry(nil), o.History...)
	if o.EstimatedPrepMinutes != nil {
		minutes := *o.EstimatedPrepMinutes
		cp.EstimatedPrepMinutes = &minutes
	}
	if o.Rejection != nil {
		r := *o.Rejection
		cp.Rejection = &r
	}
	return &cp
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].Toppings = append([]string(nil), item.Toppings...)
	}
	return out
}
