package orderserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-order-tracking/internal/shared/errors"
)

var errServiceUnavailable = apierrors.ProblemDetail{
	Type:   "/problems/unavailable",
	Title:  "Service Unavailable",
	Status: http.StatusServiceUnavailable,
}

var orderResponder = apierrors.NewChainedResponder("", mapOrderError)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	orderResponder.Respond(c, problem)
}

func respondOrderError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	orderResponder.RespondError(c, err)
}

// respondCommandError enriches lifecycle refusals with the order's current
// state so the caller can refresh without a second request.
func respondCommandError(c *gin.Context, service ordersports.Service, lookup ordertypes.OrderLookup, err error) {
	if errors.Is(err, domain.ErrInvalidTransition) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
		defer cancel()
		if current, getErr := service.GetOrder(ctx, lookup); getErr == nil {
			allowed := make([]string, 0)
			for _, next := range domain.NextAllowed(current.Status) {
				allowed = append(allowed, string(next))
			}
			respondProblem(c, apierrors.NewTransitionProblem(err.Error(), string(current.Status), allowed).
				WithExtension("currentVersion", current.Version))
			return
		}
	}
	respondOrderError(c, err)
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	var conflict *ordersports.VersionConflictError
	switch {
	case errors.As(err, &conflict):
		return apierrors.NewVersionConflictProblem("order", conflict.OrderID, conflict.Expected, conflict.Current), true
	case errors.Is(err, ordersports.ErrVersionConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("retryable", true), true
	case errors.Is(err, ordersports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("Idempotency-Key was already used with a different request").
			WithExtension("retryable", false), true
	case errors.Is(err, ordersports.ErrIdempotencyInProgress):
		return apierrors.ErrConflict.WithDetail("a request with this Idempotency-Key is still being processed").
			WithExtension("retryable", true), true
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", "order"), true
	case errors.Is(err, domain.ErrInvalidTransition):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrFeedUnavailable):
		return errServiceUnavailable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
