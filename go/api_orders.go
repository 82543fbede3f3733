package orderserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-order-tracking/internal/shared/errors"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
	lookupTimeout        = 2 * time.Second
)

// OrdersAPI serves the customer facing order endpoints.
type OrdersAPI struct {
	service ordersports.Service
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service ordersports.Service) OrdersAPI {
	return OrdersAPI{service: service}
}

// Post /v1/orders
// Place an order from a checked out basket
func (api *OrdersAPI) PlaceOrder(c *gin.Context) {
	var payload orderhttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{headerIdempotencyKey: "too long"}))
		return
	}
	input := orderhttpmapper.ToPlaceOrderInput(payload, actorFromContext(c), key)
	order, err := api.service.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.Header("Location", "/v1/orders/"+order.ID)
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

// Get /v1/orders
// List the caller's orders, newest first
func (api *OrdersAPI) ListMyOrders(c *gin.Context) {
	statuses, ok := bindStatuses(c)
	if !ok {
		return
	}
	limit, ok := bindLimit(c)
	if !ok {
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), ordertypes.OrderQuery{
		Viewer:   actorFromContext(c),
		Statuses: statuses,
		Limit:    limit,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Get /v1/orders/:orderId
// Fetch one order snapshot
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	orderID, ok := bindOrderID(c)
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), ordertypes.OrderLookup{OrderID: orderID, Viewer: actorFromContext(c)})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /v1/orders/:orderId/cancel
// Cancel an order the caller owns
func (api *OrdersAPI) CancelOrder(c *gin.Context) {
	orderID, ok := bindOrderID(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.CancelRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	actor := actorFromContext(c)
	cmd, err := orderhttpmapper.ToCustomerCommand(orderID, payload, actor)
	if err != nil {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"expectedVersion": err.Error()}))
		return
	}
	order, err := api.service.CancelOrder(c.Request.Context(), cmd)
	if err != nil {
		respondCommandError(c, api.service, ordertypes.OrderLookup{OrderID: orderID, Viewer: actor}, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}
