package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// Accrual is the loyalty credit earned by one completed order.
type Accrual struct {
	OrderID     string
	CustomerID  string
	Points      int64
	CompletedAt time.Time
}

// NewAccrual derives the accrual for a completed order.
func NewAccrual(order *domain.Order) Accrual {
	return Accrual{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Points:      domain.LoyaltyPoints(order.Total),
		CompletedAt: order.UpdatedAt,
	}
}

// LoyaltyTrigger is notified once an order reaches completed.
type LoyaltyTrigger interface {
	OrderCompleted(ctx context.Context, order *domain.Order) error
}

// LoyaltyLedger records accruals. Accrue is idempotent per order and reports
// whether the accrual was newly applied.
type LoyaltyLedger interface {
	Accrue(ctx context.Context, accrual Accrual) (bool, error)
	Balance(ctx context.Context, customerID string) (int64, error)
}

// NoopLoyaltyTrigger ignores completions.
type NoopLoyaltyTrigger struct{}

func (NoopLoyaltyTrigger) OrderCompleted(context.Context, *domain.Order) error { return nil }
