package loyalty

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	orderports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

// AccruePointsActivityName records loyalty points for one completed order.
const AccruePointsActivityName = "loyalty.activities.AccruePoints"

// AccrualResult reports what the ledger did with an accrual.
type AccrualResult struct {
	OrderID string
	Points  int64
	Applied bool
}

// Activities groups activities that write to the loyalty ledger.
type Activities struct {
	ledger orderports.LoyaltyLedger
}

func NewActivities(ledger orderports.LoyaltyLedger) *Activities {
	return &Activities{ledger: ledger}
}

// AccruePoints is safe to retry: the ledger ignores repeated accruals per order.
func (a *Activities) AccruePoints(ctx context.Context, accrual orderports.Accrual) (*AccrualResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.ledger == nil {
		logger.Error("loyalty accrual activity not initialized", "orderId", accrual.OrderID)
		return nil, errors.New("loyalty accrual activity not initialized")
	}
	logger.Info("AccruePoints activity started", "orderId", accrual.OrderID, "points", accrual.Points)
	applied, err := a.ledger.Accrue(ctx, accrual)
	if err != nil {
		logger.Error("AccruePoints activity failed", "orderId", accrual.OrderID, "error", err)
		return nil, err
	}
	if !applied {
		logger.Info("AccruePoints already recorded; skipping", "orderId", accrual.OrderID)
	}
	return &AccrualResult{OrderID: accrual.OrderID, Points: accrual.Points, Applied: applied}, nil
}
