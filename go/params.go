package orderserver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	apierrors "github.com/Apurer/go-gin-order-tracking/internal/shared/errors"
)

const maxListLimit = 200

func bindOrderID(c *gin.Context) (string, bool) {
	var orderID openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "orderId", c.Param("orderId"), &orderID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"orderId": fmt.Sprintf("invalid format: %v", err)}))
		return "", false
	}
	return orderID.String(), true
}

// bindStatuses accepts repeated and comma separated status parameters.
func bindStatuses(c *gin.Context) ([]domain.Status, bool) {
	var statuses []domain.Status
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, err := domain.ParseStatus(part)
			if err != nil {
				respondProblem(c, apierrors.NewValidationProblem(map[string]string{"status": err.Error()}))
				return nil, false
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, true
}

func bindLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxListLimit {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"limit": fmt.Sprintf("must be between 1 and %d", maxListLimit)}))
		return 0, false
	}
	return limit, true
}

func bindNotificationID(c *gin.Context) (string, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "notificationId", c.Param("notificationId"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"notificationId": fmt.Sprintf("invalid format: %v", err)}))
		return "", false
	}
	return id.String(), true
}

func bindUnread(c *gin.Context) (bool, bool) {
	var unread bool
	if err := runtime.BindQueryParameter("form", true, false, "unread", c.Request.URL.Query(), &unread); err != nil {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"unread": "must be true or false"}))
		return false, false
	}
	return unread, true
}

func newConnID() string {
	return uuid.NewString()
}
