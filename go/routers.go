package orderserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Public routes skip bearer authentication.
	Public bool
	// Roles restricts the route to the listed principals. Empty means any
	// authenticated caller; the service still applies ownership checks.
	Roles []domain.Role
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the order routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{}
		if !route.Public {
			handlers = append(handlers, handleFunctions.Auth.Require(route.Roles...))
		}
		handlers = append(handlers, route.HandlerFunc)
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, handlers...)
		case http.MethodPost:
			router.POST(route.Pattern, handlers...)
		case http.MethodPut:
			router.PUT(route.Pattern, handlers...)
		case http.MethodPatch:
			router.PATCH(route.Pattern, handlers...)
		case http.MethodDelete:
			router.DELETE(route.Pattern, handlers...)
		}
	}
	return router
}

// DefaultHandleFunc is the default handler for not yet implemented routes.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the handlers and middleware the router needs.
type ApiHandleFunctions struct {
	Auth *Authenticator
	// Routes for the OrdersAPI part of the API
	OrdersAPI OrdersAPI
	// Routes for the AdminAPI part of the API
	AdminAPI AdminAPI
	// Routes for the StreamAPI part of the API
	StreamAPI StreamAPI
	// Routes for the NotificationsAPI part of the API
	NotificationsAPI NotificationsAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	staff := []domain.Role{domain.RoleAdmin, domain.RoleSystem}
	return []Route{
		{
			Name:        "Healthz",
			Method:      http.MethodGet,
			Pattern:     "/healthz",
			HandlerFunc: Healthz,
			Public:      true,
		},
		{
			Name:        "PlaceOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders",
			HandlerFunc: handleFunctions.OrdersAPI.PlaceOrder,
			Roles:       []domain.Role{domain.RoleCustomer},
		},
		{
			Name:        "ListMyOrders",
			Method:      http.MethodGet,
			Pattern:     "/v1/orders",
			HandlerFunc: handleFunctions.OrdersAPI.ListMyOrders,
			Roles:       []domain.Role{domain.RoleCustomer},
		},
		{
			Name:        "GetOrder",
			Method:      http.MethodGet,
			Pattern:     "/v1/orders/:orderId",
			HandlerFunc: handleFunctions.OrdersAPI.GetOrder,
		},
		{
			Name:        "CancelOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/:orderId/cancel",
			HandlerFunc: handleFunctions.OrdersAPI.CancelOrder,
		},
		{
			Name:        "TrackOrder",
			Method:      http.MethodGet,
			Pattern:     "/v1/orders/:orderId/stream",
			HandlerFunc: handleFunctions.StreamAPI.TrackOrder,
		},
		{
			Name:        "ListNotifications",
			Method:      http.MethodGet,
			Pattern:     "/v1/notifications",
			HandlerFunc: handleFunctions.NotificationsAPI.ListNotifications,
			Roles:       []domain.Role{domain.RoleCustomer},
		},
		{
			Name:        "MarkNotificationRead",
			Method:      http.MethodPost,
			Pattern:     "/v1/notifications/:notificationId/read",
			HandlerFunc: handleFunctions.NotificationsAPI.MarkRead,
			Roles:       []domain.Role{domain.RoleCustomer},
		},
		{
			Name:        "ListQueue",
			Method:      http.MethodGet,
			Pattern:     "/v1/admin/orders",
			HandlerFunc: handleFunctions.AdminAPI.ListQueue,
			Roles:       staff,
		},
		{
			Name:        "ApplyAction",
			Method:      http.MethodPost,
			Pattern:     "/v1/admin/orders/:orderId/actions",
			HandlerFunc: handleFunctions.AdminAPI.ApplyAction,
			Roles:       staff,
		},
		{
			Name:        "WatchAdmin",
			Method:      http.MethodGet,
			Pattern:     "/v1/admin/stream",
			HandlerFunc: handleFunctions.StreamAPI.WatchAdmin,
			Roles:       staff,
		},
	}
}

// Get /healthz
// Liveness probe
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
