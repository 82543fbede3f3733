package orderserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

// NotificationsAPI serves the customer's persistent inbox.
type NotificationsAPI struct {
	service ordersports.NotificationService
}

func NewNotificationsAPI(service ordersports.NotificationService) NotificationsAPI {
	return NotificationsAPI{service: service}
}

// Get /v1/notifications
// List the caller's notifications, newest first
func (api *NotificationsAPI) ListNotifications(c *gin.Context) {
	unread, ok := bindUnread(c)
	if !ok {
		return
	}
	list, err := api.service.Notifications(c.Request.Context(), actorFromContext(c), unread)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainNotifications(list))
}

// Post /v1/notifications/:notificationId/read
// Mark one notification as read
func (api *NotificationsAPI) MarkRead(c *gin.Context) {
	id, ok := bindNotificationID(c)
	if !ok {
		return
	}
	n, err := api.service.MarkNotificationRead(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		if errors.Is(err, ordersports.ErrNotificationNotFound) {
			orderResponder.NotFound(c, "notification", id)
			return
		}
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainNotification(n))
}
