package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.LoyaltyLedger = (*LoyaltyLedger)(nil)

// LoyaltyLedger tracks accrued points per customer.
type LoyaltyLedger struct {
	mu       sync.Mutex
	accruals map[string]ports.Accrual
	balances map[string]int64
}

func NewLoyaltyLedger() *LoyaltyLedger {
	return &LoyaltyLedger{
		accruals: map[string]ports.Accrual{},
		balances: map[string]int64{},
	}
}

func (l *LoyaltyLedger) Accrue(_ context.Context, accrual ports.Accrual) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accruals[accrual.OrderID]; ok {
		return false, nil
	}
	l.accruals[accrual.OrderID] = accrual
	l.balances[accrual.CustomerID] += accrual.Points
	return true, nil
}

func (l *LoyaltyLedger) Balance(_ context.Context, customerID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[customerID], nil
}
