package migrations

import (
	"gorm.io/gorm"

	orderspostgres "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/persistence/postgres"
)

// Run applies the schema for the bounded contexts.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(orderspostgres.Models()...)
}
