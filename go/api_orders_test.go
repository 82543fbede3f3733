package orderserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

var (
	alice = domain.CustomerActor("cust-alice")
	bob   = domain.CustomerActor("cust-bob")
	staff = domain.AdminActor("barista-1")
)

func TestHealthzIsPublic(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/orders", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "/problems/unauthorized", decodeProblem(t, rec).Type)

	rec = app.do(t, http.MethodGet, "/v1/orders", nil, nil, "Authorization", "Bearer garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown := domain.Actor{Role: "barista", ID: "x"}
	rec = app.do(t, http.MethodGet, "/v1/orders", &unknown, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/admin/orders", &alice, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceOrder(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/orders", &alice, basket())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeOrder(t, rec)
	require.Equal(t, "/v1/orders/"+order.ID, rec.Header().Get("Location"))
	require.Equal(t, "placed", order.Status)
	require.Equal(t, int64(1), order.Version)
	require.Equal(t, alice.ID, order.CustomerID)
	require.Equal(t, []string{"accepted", "rejected", "cancelled"}, order.AllowedNext)
	require.True(t, decimal.RequireFromString("9").Equal(order.Total))
	require.Regexp(t, `^ORD-\d+-[A-Z0-9]{5}$`, order.Number)

	rec = app.do(t, http.MethodPost, "/v1/orders", &staff, basket())
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/orders", &alice, map[string]any{"locationId": "loc-1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	bad := basket()
	bad["items"] = []map[string]any{{"menuItemId": "latte", "size": "venti", "quantity": 1, "unitPrice": "1"}}
	rec = app.do(t, http.MethodPost, "/v1/orders", &alice, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "/problems/validation-error", decodeProblem(t, rec).Type)

	subCent := basket()
	subCent["items"] = []map[string]any{{"menuItemId": "drip", "size": "small", "quantity": 3, "unitPrice": "1.005"}}
	rec = app.do(t, http.MethodPost, "/v1/orders", &alice, subCent)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeProblem(t, rec).Detail, "decimal places")
}

func TestPlaceOrder_IdempotencyKey(t *testing.T) {
	app := newTestApp(t)

	first := app.do(t, http.MethodPost, "/v1/orders", &alice, basket(), "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, first.Code)
	again := app.do(t, http.MethodPost, "/v1/orders", &alice, basket(), "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, again.Code)
	require.Equal(t, decodeOrder(t, first).ID, decodeOrder(t, again).ID)

	changed := basket()
	changed["notes"] = "different"
	rec := app.do(t, http.MethodPost, "/v1/orders", &alice, changed, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, false, decodeProblem(t, rec).Extensions["retryable"])
}

func TestGetOrder_Visibility(t *testing.T) {
	app := newTestApp(t)
	order := app.placeOrder(t, alice)
	path := "/v1/orders/" + order.ID

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, path, &alice, nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, path, &staff, nil).Code)
	require.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, path, &bob, nil).Code)

	rec := app.do(t, http.MethodGet, "/v1/orders/00000000-0000-0000-0000-000000000000", &alice, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/orders/not-a-uuid", &alice, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeProblem(t, rec).Extensions, "fields")
}

func TestAdminActions_StaleVersionConflicts(t *testing.T) {
	app := newTestApp(t)
	order := app.placeOrder(t, alice)
	path := fmt.Sprintf("/v1/admin/orders/%s/actions", order.ID)

	rec := app.do(t, http.MethodPost, path, &staff, map[string]any{"action": "accept", "expectedVersion": 1, "estimatedPrepMinutes": 7})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decodeOrder(t, rec)
	require.Equal(t, "accepted", accepted.Status)
	require.Equal(t, int64(2), accepted.Version)
	require.Equal(t, ptr(7), accepted.EstimatedPrepMinutes)

	rec = app.do(t, http.MethodPost, path, &staff, map[string]any{
		"action": "reject", "expectedVersion": 1, "rejection": map[string]any{"reason": "out_of_stock"},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decodeProblem(t, rec)
	require.Equal(t, true, problem.Extensions["retryable"])
	require.EqualValues(t, 2, problem.Extensions["currentVersion"])

	rec = app.do(t, http.MethodPost, path, &staff, map[string]any{"action": "accept"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, path, &staff, map[string]any{"action": "brew", "expectedVersion": 2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancel_AfterReadyIsUnprocessable(t *testing.T) {
	app := newTestApp(t)
	order := app.placeOrder(t, alice)
	actions := fmt.Sprintf("/v1/admin/orders/%s/actions", order.ID)

	version := int64(1)
	for _, action := range []string{"accept", "startPreparing", "markReady"} {
		rec := app.do(t, http.MethodPost, actions, &staff, map[string]any{"action": action, "expectedVersion": version})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		version = decodeOrder(t, rec).Version
	}
	require.Equal(t, int64(4), version)

	rec := app.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/cancel", &alice, map[string]any{"expectedVersion": 4})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	problem := decodeProblem(t, rec)
	require.Equal(t, "ready", problem.Extensions["currentStatus"])
	require.EqualValues(t, 4, problem.Extensions["currentVersion"])
	require.ElementsMatch(t, []any{"completed"}, problem.Extensions["allowedNext"])

	rec = app.do(t, http.MethodGet, "/v1/orders/"+order.ID, &alice, nil)
	require.Equal(t, int64(4), decodeOrder(t, rec).Version)
}

func TestCancel_ByOwner(t *testing.T) {
	app := newTestApp(t)
	order := app.placeOrder(t, alice)
	path := "/v1/orders/" + order.ID + "/cancel"

	rec := app.do(t, http.MethodPost, path, &bob, map[string]any{"expectedVersion": 1})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, path, &alice, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, path, &alice, map[string]any{"expectedVersion": 1, "note": "changed my mind"})
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decodeOrder(t, rec)
	require.Equal(t, "cancelled", cancelled.Status)
	require.Empty(t, cancelled.AllowedNext)
	require.Equal(t, "customer", cancelled.History[1].Actor.Role)
}

func TestListing(t *testing.T) {
	app := newTestApp(t)
	first := app.placeOrder(t, alice)
	app.placeOrder(t, alice)
	app.placeOrder(t, bob)

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/v1/admin/orders/%s/actions", first.ID), &staff, map[string]any{"action": "accept", "expectedVersion": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/orders", &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeOrders(t, rec)
	require.Len(t, mine, 2)

	rec = app.do(t, http.MethodGet, "/v1/admin/orders?status=placed&location=loc-1", &staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeOrders(t, rec), 2)

	rec = app.do(t, http.MethodGet, "/v1/admin/orders?status=placed,accepted&limit=1", &staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeOrders(t, rec), 1)

	rec = app.do(t, http.MethodGet, "/v1/admin/orders?status=brewing", &staff, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/admin/orders?limit=0", &staff, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
