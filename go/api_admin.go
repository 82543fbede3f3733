package orderserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-order-tracking/internal/shared/errors"
)

// AdminAPI serves the store dashboard.
type AdminAPI struct {
	service ordersports.Service
}

// NewAdminAPI creates an AdminAPI backed by the provided service.
func NewAdminAPI(service ordersports.Service) AdminAPI {
	return AdminAPI{service: service}
}

// Get /v1/admin/orders
// List the order queue, optionally filtered by status and location
func (api *AdminAPI) ListQueue(c *gin.Context) {
	statuses, ok := bindStatuses(c)
	if !ok {
		return
	}
	limit, ok := bindLimit(c)
	if !ok {
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), ordertypes.OrderQuery{
		Viewer:     actorFromContext(c),
		Statuses:   statuses,
		LocationID: strings.TrimSpace(c.Query("location")),
		Limit:      limit,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Post /v1/admin/orders/:orderId/actions
// Accept, reject, prepare, mark ready, complete or cancel an order
func (api *AdminAPI) ApplyAction(c *gin.Context) {
	orderID, ok := bindOrderID(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.AdminActionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	actor := actorFromContext(c)
	cmd, err := orderhttpmapper.ToAdminCommand(orderID, payload, actor)
	if err != nil {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"expectedVersion": err.Error()}))
		return
	}
	order, err := api.service.ApplyAdminAction(c.Request.Context(), cmd)
	if err != nil {
		respondCommandError(c, api.service, ordertypes.OrderLookup{OrderID: orderID, Viewer: actor}, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}
