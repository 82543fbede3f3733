package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.NotificationRepository = (*NotificationStore)(nil)

// NotificationStore persists the customer inbox.
type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

type notificationRecord struct {
	ID          string    `gorm:"primaryKey;column:id;size:36"`
	OrderID     string    `gorm:"column:order_id;size:36;index"`
	OrderNumber string    `gorm:"column:order_number;size:64"`
	RecipientID string    `gorm:"column:recipient_id;size:128;index:idx_notifications_inbox,priority:1"`
	Type        string    `gorm:"column:type;type:varchar(32)"`
	Message     string    `gorm:"column:message"`
	Read        bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;index:idx_notifications_inbox,priority:2,sort:desc"`
}

func (notificationRecord) TableName() string { return "customer_notifications" }

func (r notificationRecord) toDomain() domain.Notification {
	return domain.Notification{
		ID:          r.ID,
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
		RecipientID: r.RecipientID,
		Type:        domain.NotificationType(r.Type),
		Message:     r.Message,
		Read:        r.Read,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (s *NotificationStore) Create(ctx context.Context, n domain.Notification) error {
	if s == nil || s.db == nil {
		return errors.New("postgres notification store not configured")
	}
	record := notificationRecord{
		ID:          n.ID,
		OrderID:     n.OrderID,
		OrderNumber: n.OrderNumber,
		RecipientID: n.RecipientID,
		Type:        string(n.Type),
		Message:     n.Message,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&record).Error
}

func (s *NotificationStore) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres notification store not configured")
	}
	query := s.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []notificationRecord
	if err := query.Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id, recipientID string) (domain.Notification, error) {
	if s == nil || s.db == nil {
		return domain.Notification{}, errors.New("postgres notification store not configured")
	}
	var record notificationRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND recipient_id = ?", id, recipientID).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotificationNotFound
			}
			return err
		}
		if record.Read {
			return nil
		}
		record.Read = true
		return tx.Model(&notificationRecord{}).Where("id = ?", id).Update("is_read", true).Error
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return record.toDomain(), nil
}
