package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Schema is owned by
// the migrations package.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts a placed order with its items and first history row.
func (r *Repository) Create(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	at := r.timestamp(r.now())
	order, err := domain.NewOrder(uuid.NewString(), domain.NewOrderNumber(at), draft, at)
	if err != nil {
		return nil, err
	}
	record := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Get fetches an order with items and history.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	record, err := loadRecord(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// CommitTransition applies change inside a transaction. The conditional
// UPDATE on (id, version) is what makes concurrent writers with the same
// expected version fail: only the first one to update the row matches.
func (r *Repository) CommitTransition(ctx context.Context, id string, expectedVersion int64, change domain.Change) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if change.At.IsZero() {
		change.At = r.now()
	}
	change.At = r.timestamp(change.At)

	var committed *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := loadRecord(tx, id)
		if err != nil {
			return err
		}
		if record.Version != expectedVersion {
			return &ports.VersionConflictError{OrderID: id, Expected: expectedVersion, Current: record.Version}
		}
		order := record.toDomain()
		if err := order.Apply(change); err != nil {
			return err
		}

		updates := map[string]any{
			"status":                 string(order.Status),
			"version":                order.Version,
			"updated_at":             order.UpdatedAt,
			"estimated_prep_minutes": order.EstimatedPrepMinutes,
		}
		if order.Rejection != nil {
			updates["rejection_reason"] = string(order.Rejection.Reason)
			updates["rejection_comment"] = order.Rejection.Comment
		}
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			current, err := currentVersion(tx, id)
			if err != nil {
				return err
			}
			return &ports.VersionConflictError{OrderID: id, Expected: expectedVersion, Current: current}
		}
		history := toHistoryRecord(id, order.Version, order.LastEntry())
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		committed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// List returns orders newest first.
func (r *Repository) List(ctx context.Context, filter ports.Filter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := withChildren(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(filter.EffectiveLimit())
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.LocationID != "" {
		query = query.Where("location_id = ?", filter.LocationID)
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

// timestamp matches PostgreSQL's microsecond precision so returned
// aggregates equal what a later read yields.
func (r *Repository) timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq") })
}

func loadRecord(db *gorm.DB, id string) (*orderRecord, error) {
	var record orderRecord
	if err := withChildren(db).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func currentVersion(db *gorm.DB, id string) (int64, error) {
	var version int64
	err := db.Model(&orderRecord{}).Select("version").Where("id = ?", id).Scan(&version).Error
	return version, err
}
