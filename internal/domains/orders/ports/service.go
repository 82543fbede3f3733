package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// Service exposes order lifecycle use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, lookup ordertypes.OrderLookup) (*domain.Order, error)
	ListOrders(ctx context.Context, query ordertypes.OrderQuery) ([]*domain.Order, error)
	ApplyAdminAction(ctx context.Context, cmd ordertypes.AdminCommand) (*domain.Order, error)
	CancelOrder(ctx context.Context, cmd ordertypes.CustomerCommand) (*domain.Order, error)
	Track(ctx context.Context, orderID string, viewer domain.Actor, connID string) (TrackingView, error)
	WatchAdmin(ctx context.Context, viewer domain.Actor, connID string) (Subscription, error)
}
