package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.LoyaltyLedger = (*LoyaltyLedger)(nil)

// LoyaltyLedger stores one accrual row per completed order.
type LoyaltyLedger struct {
	db *gorm.DB
}

func NewLoyaltyLedger(db *gorm.DB) *LoyaltyLedger {
	return &LoyaltyLedger{db: db}
}

type accrualRecord struct {
	OrderID     string    `gorm:"primaryKey;column:order_id;size:36"`
	CustomerID  string    `gorm:"column:customer_id;size:128;index"`
	Points      int64     `gorm:"column:points"`
	CompletedAt time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (accrualRecord) TableName() string { return "loyalty_accruals" }

// Accrue inserts the accrual once; repeated calls for the same order are no-ops.
func (l *LoyaltyLedger) Accrue(ctx context.Context, accrual ports.Accrual) (bool, error) {
	if l == nil || l.db == nil {
		return false, errors.New("postgres loyalty ledger not configured")
	}
	record := accrualRecord{
		OrderID:     accrual.OrderID,
		CustomerID:  accrual.CustomerID,
		Points:      accrual.Points,
		CompletedAt: accrual.CompletedAt,
	}
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (l *LoyaltyLedger) Balance(ctx context.Context, customerID string) (int64, error) {
	if l == nil || l.db == nil {
		return 0, errors.New("postgres loyalty ledger not configured")
	}
	var total int64
	err := l.db.WithContext(ctx).
		Model(&accrualRecord{}).
		Select("COALESCE(SUM(points), 0)").
		Where("customer_id = ?", customerID).
		Scan(&total).Error
	return total, err
}
