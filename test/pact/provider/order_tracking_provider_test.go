//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-order-tracking/test/pact"

	orderserver "github.com/Apurer/go-gin-order-tracking/go"
	ordersmemory "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/observability"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/realtime"
	ordersapp "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-tracking/internal/platform/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderTrackingProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateOrdersBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StatePlacedOrder: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedPlaced(t)
			}
			return nil, nil
		},
		pacttest.StateAcceptedOrder: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedPlaced(t)
				app.accept(t)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		RequestFilter:   app.freshTokens,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	repo     *ordersmemory.Repository
	service  *ordersapp.Service
	verifier *auth.Verifier
	server   *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	repo := ordersmemory.NewRepository()
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	notifications := ordersmemory.NewNotificationStore()
	core := ordersapp.NewService(repo,
		ordersapp.WithPublisher(ordersports.FanOut(hub, ordersapp.NewNotifier(notifications, nil))),
		ordersapp.WithFeed(hub),
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()),
	)
	service := ordersobs.New(core)
	verifier := auth.NewVerifier(pacttest.JWTSecret, time.Hour)

	handlers := orderserver.ApiHandleFunctions{
		Auth:             orderserver.NewAuthenticator(verifier),
		OrdersAPI:        orderserver.NewOrdersAPI(service),
		AdminAPI:         orderserver.NewAdminAPI(service),
		StreamAPI:        orderserver.NewStreamAPI(service),
		NotificationsAPI: orderserver.NewNotificationsAPI(ordersobs.NewInbox(ordersapp.NewInbox(notifications))),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = orderserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{repo: repo, service: core, verifier: verifier, server: server}
}

func (a *contractProviderApp) reset() {
	a.repo.Reset()
	a.repo.WithIDGenerator(uuid.NewString)
}

func (a *contractProviderApp) seedPlaced(t testing.TB) {
	t.Helper()
	a.repo.WithIDGenerator(func() string { return pacttest.ExistingOrderID })
	defer a.repo.WithIDGenerator(uuid.NewString)

	order, err := a.service.PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{
		Customer:   domain.CustomerActor(pacttest.CustomerID),
		LocationID: pacttest.LocationID,
		Notes:      "extra hot",
		Items: []domain.LineItem{{
			MenuItemID: "flat-white",
			Name:       "Flat White",
			Size:       domain.SizeMedium,
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("3.80"),
			Toppings:   []string{"oat"},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, pacttest.ExistingOrderID, order.ID)
}

func (a *contractProviderApp) accept(t testing.TB) {
	t.Helper()
	prep := 6
	_, err := a.service.ApplyAdminAction(context.Background(), ordertypes.AdminCommand{
		OrderID:              pacttest.ExistingOrderID,
		Action:               ordertypes.ActionAccept,
		ExpectedVersion:      1,
		Actor:                domain.AdminActor(pacttest.AdminID),
		EstimatedPrepMinutes: &prep,
	})
	require.NoError(t, err)
}

// freshTokens re-signs the bearer token recorded in the pact so verification
// does not depend on when the consumer test ran.
func (a *contractProviderApp) freshTokens(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			userID, role := pacttest.CustomerID, "customer"
			if strings.HasPrefix(r.URL.Path, "/v1/admin/") {
				userID, role = pacttest.AdminID, "admin"
			}
			if token, _, err := a.verifier.GenerateToken(userID, role); err == nil {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}
