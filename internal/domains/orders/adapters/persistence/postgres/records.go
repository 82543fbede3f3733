package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// Models lists every table owned by the orders context, for migrations.
func Models() []any {
	return []any{
		&orderRecord{},
		&itemRecord{},
		&historyRecord{},
		&idempotencyRecord{},
		&accrualRecord{},
		&notificationRecord{},
	}
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID                   string          `gorm:"primaryKey;column:id;size:36"`
	Number               string          `gorm:"column:number;size:64;uniqueIndex"`
	CustomerID           string          `gorm:"column:customer_id;size:128;index"`
	LocationID           string          `gorm:"column:location_id;size:128;index:idx_orders_location_status"`
	Status               string          `gorm:"column:status;type:varchar(32);index:idx_orders_location_status"`
	Total                decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	Notes                string          `gorm:"column:notes"`
	Version              int64           `gorm:"column:version;not null"`
	EstimatedPrepMinutes *int            `gorm:"column:estimated_prep_minutes"`
	RejectionReason      string          `gorm:"column:rejection_reason;size:32"`
	RejectionComment     string          `gorm:"column:rejection_comment"`
	CreatedAt            time.Time       `gorm:"column:created_at;index"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
	Items                []itemRecord    `gorm:"foreignKey:OrderID"`
	History              []historyRecord `gorm:"foreignKey:OrderID"`
}

func (orderRecord) TableName() string { return "orders" }

type itemRecord struct {
	ID                  int64           `gorm:"primaryKey;column:id"`
	OrderID             string          `gorm:"column:order_id;size:36;index"`
	Position            int             `gorm:"column:position"`
	MenuItemID          string          `gorm:"column:menu_item_id;size:128"`
	Name                string          `gorm:"column:name"`
	Size                string          `gorm:"column:size;size:16"`
	Toppings            pq.StringArray  `gorm:"column:toppings;type:text[]"`
	Quantity            int             `gorm:"column:quantity"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	SpecialInstructions string          `gorm:"column:special_instructions"`
}

func (itemRecord) TableName() string { return "order_items" }

// historyRecord is one transition. (order_id, seq) is unique so a version can
// only ever be written once.
type historyRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	OrderID   string    `gorm:"column:order_id;size:36;uniqueIndex:idx_order_history_seq"`
	Seq       int64     `gorm:"column:seq;uniqueIndex:idx_order_history_seq"`
	Status    string    `gorm:"column:status;type:varchar(32)"`
	ActorRole string    `gorm:"column:actor_role;size:16"`
	ActorID   string    `gorm:"column:actor_id;size:128"`
	Note      string    `gorm:"column:note"`
	At        time.Time `gorm:"column:at"`
}

func (historyRecord) TableName() string { return "order_status_history" }

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:                   order.ID,
		Number:               order.Number,
		CustomerID:           order.CustomerID,
		LocationID:           order.LocationID,
		Status:               string(order.Status),
		Total:                order.Total,
		Notes:                order.Notes,
		Version:              order.Version,
		EstimatedPrepMinutes: order.EstimatedPrepMinutes,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
	if order.Rejection != nil {
		rec.RejectionReason = string(order.Rejection.Reason)
		rec.RejectionComment = order.Rejection.Comment
	}
	for i, item := range order.Items {
		rec.Items = append(rec.Items, itemRecord{
			OrderID:             order.ID,
			Position:            i,
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Size:                string(item.Size),
			Toppings:            pq.StringArray(item.Toppings),
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	for i, entry := range order.History {
		rec.History = append(rec.History, toHistoryRecord(order.ID, int64(i+1), entry))
	}
	return rec
}

func toHistoryRecord(orderID string, seq int64, entry domain.StatusEntry) historyRecord {
	return historyRecord{
		OrderID:   orderID,
		Seq:       seq,
		Status:    string(entry.Status),
		ActorRole: string(entry.Actor.Role),
		ActorID:   entry.Actor.ID,
		Note:      entry.Note,
		At:        entry.At,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:                   r.ID,
		Number:               r.Number,
		CustomerID:           r.CustomerID,
		LocationID:           r.LocationID,
		Items:                make([]domain.LineItem, 0, len(r.Items)),
		Total:                r.Total,
		Notes:                r.Notes,
		Status:               domain.Status(r.Status),
		History:              make([]domain.StatusEntry, 0, len(r.History)),
		Version:              r.Version,
		EstimatedPrepMinutes: r.EstimatedPrepMinutes,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
	if r.RejectionReason != "" {
		order.Rejection = &domain.Rejection{Reason: domain.RejectionReason(r.RejectionReason), Comment: r.RejectionComment}
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, domain.LineItem{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Size:                domain.Size(item.Size),
			Toppings:            []string(item.Toppings),
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	for _, h := range r.History {
		order.History = append(order.History, domain.StatusEntry{
			Status: domain.Status(h.Status),
			At:     h.At.UTC(),
			Actor:  domain.Actor{Role: domain.Role(h.ActorRole), ID: h.ActorID},
			Note:   h.Note,
		})
	}
	return order
}
