package orderserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/realtime"
	ordersapp "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-tracking/internal/platform/auth"
	apierrors "github.com/Apurer/go-gin-order-tracking/internal/shared/errors"
	orderhttpmapper "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/http/mapper"
)

type testApp struct {
	router   *gin.Engine
	service  *ordersapp.Service
	hub      *realtime.Hub
	verifier *auth.Verifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	inbox := memory.NewNotificationStore()
	service := ordersapp.NewService(
		memory.NewRepository(),
		ordersapp.WithPublisher(ordersports.FanOut(hub, ordersapp.NewNotifier(inbox, nil))),
		ordersapp.WithFeed(hub),
		ordersapp.WithIdempotencyStore(memory.NewIdempotencyStore()),
	)
	verifier := auth.NewVerifier("handler-test-secret", time.Hour)
	router := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		Auth:             NewAuthenticator(verifier),
		OrdersAPI:        NewOrdersAPI(service),
		AdminAPI:         NewAdminAPI(service),
		StreamAPI:        NewStreamAPI(service, WithKeepalive(50*time.Millisecond)),
		NotificationsAPI: NewNotificationsAPI(ordersapp.NewInbox(inbox)),
	})
	return &testApp{router: router, service: service, hub: hub, verifier: verifier}
}

func (a *testApp) token(t *testing.T, actor domain.Actor) string {
	t.Helper()
	token, _, err := a.verifier.GenerateToken(actor.ID, string(actor.Role))
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path string, actor *domain.Actor, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, *actor))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) placeOrder(t *testing.T, customer domain.Actor) orderhttpmapper.Order {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/orders", &customer, basket())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeOrder(t, rec)
}

func basket() map[string]any {
	return map[string]any{
		"locationId": "loc-1",
		"notes":      "no lid",
		"items": []map[string]any{
			{"menuItemId": "latte", "name": "Latte", "size": "medium", "quantity": 2, "unitPrice": "4.50", "toppings": []string{"oat"}},
		},
	}
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderhttpmapper.Order {
	t.Helper()
	var order orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	return order
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func ptr[T any](v T) *T { return &v }

func decodeOrders(t *testing.T, rec *httptest.ResponseRecorder) []orderhttpmapper.Order {
	t.Helper()
	var orders []orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	return orders
}
