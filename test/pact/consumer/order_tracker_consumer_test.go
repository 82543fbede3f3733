//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-order-tracking/test/pact"

	"github.com/Apurer/go-gin-order-tracking/internal/platform/auth"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

const bearerPattern = `^Bearer [A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`

type orderPayload struct {
	ID          string   `json:"id"`
	Number      string   `json:"orderNumber"`
	Status      string   `json:"status"`
	Version     int64    `json:"version"`
	AllowedNext []string `json:"allowedNext"`
}

type problemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Extensions map[string]any `json:"extensions"`
}

type apiError struct {
	problem problemDetail
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.problem.Title, e.problem.Detail, e.problem.Status)
}

func TestOrderTrackerContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	verifier := auth.NewVerifier(pacttest.JWTSecret, time.Hour)
	customerToken, _, err := verifier.GenerateToken(pacttest.CustomerID, "customer")
	require.NoError(t, err)
	adminToken, _, err := verifier.GenerateToken(pacttest.AdminID, "admin")
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	orderBody := func(status string, version int64) matchers.Map {
		return matchers.Map{
			"id":          matchers.Like(pacttest.ExistingOrderID),
			"orderNumber": matchers.Term("ORD-1718000000000-AB12C", `^ORD-\d+-[A-Z0-9]{5}$`),
			"customerId":  matchers.Like(pacttest.CustomerID),
			"locationId":  matchers.Like(pacttest.LocationID),
			"status":      matchers.S(status),
			"version":     matchers.Like(version),
			"total":       matchers.Like("7.6"),
			"allowedNext": matchers.EachLike("cancelled", 1),
			"history":     matchers.EachLike(matchers.Map{"status": matchers.Like("placed")}, 1),
		}
	}

	pact.AddInteraction().
		Given(pacttest.StateOrdersBaseline).
		UponReceiving("a customer placing an order").
		WithRequest("POST", "/v1/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Authorization", matchers.Regex("Bearer "+customerToken, bearerPattern))
			b.JSONBody(pacttest.ExampleBasket())
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderBody("placed", 1))
		})

	pact.AddInteraction().
		Given(pacttest.StatePlacedOrder).
		UponReceiving("a customer fetching their order").
		WithRequest("GET", "/v1/orders/"+pacttest.ExistingOrderID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", matchers.Regex("Bearer "+customerToken, bearerPattern))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderBody("placed", 1))
		})

	pact.AddInteraction().
		Given(pacttest.StatePlacedOrder).
		UponReceiving("a barista accepting the order").
		WithRequest("POST", "/v1/admin/orders/"+pacttest.ExistingOrderID+"/actions", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Authorization", matchers.Regex("Bearer "+adminToken, bearerPattern))
			b.JSONBody(map[string]any{"action": "accept", "expectedVersion": 1, "estimatedPrepMinutes": 6})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderBody("accepted", 2))
		})

	pact.AddInteraction().
		Given(pacttest.StateAcceptedOrder).
		UponReceiving("a customer cancelling with a stale version").
		WithRequest("POST", "/v1/orders/"+pacttest.ExistingOrderID+"/cancel", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Authorization", matchers.Regex("Bearer "+customerToken, bearerPattern))
			b.JSONBody(map[string]any{"expectedVersion": 1})
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/conflict"),
				"status": matchers.Like(http.StatusConflict),
				"extensions": matchers.Map{
					"retryable":      matchers.Like(true),
					"currentVersion": matchers.Like(2),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a customer fetching a missing order").
		WithRequest("GET", "/v1/orders/"+pacttest.MissingOrderID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", matchers.Regex("Bearer "+customerToken, bearerPattern))
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newTrackerClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var placed orderPayload
		if err := client.do(ctx, http.MethodPost, "/v1/orders", customerToken, pacttest.ExampleBasket(), &placed); err != nil {
			return fmt.Errorf("place order: %w", err)
		}
		if placed.Status != "placed" || placed.Version != 1 {
			return fmt.Errorf("unexpected placed order %+v", placed)
		}

		var fetched orderPayload
		if err := client.do(ctx, http.MethodGet, "/v1/orders/"+pacttest.ExistingOrderID, customerToken, nil, &fetched); err != nil {
			return fmt.Errorf("get order: %w", err)
		}

		var accepted orderPayload
		action := map[string]any{"action": "accept", "expectedVersion": 1, "estimatedPrepMinutes": 6}
		if err := client.do(ctx, http.MethodPost, "/v1/admin/orders/"+pacttest.ExistingOrderID+"/actions", adminToken, action, &accepted); err != nil {
			return fmt.Errorf("accept order: %w", err)
		}
		if accepted.Version != 2 {
			return fmt.Errorf("expected version 2 after accept, got %d", accepted.Version)
		}

		err := client.do(ctx, http.MethodPost, "/v1/orders/"+pacttest.ExistingOrderID+"/cancel", customerToken, map[string]any{"expectedVersion": 1}, nil)
		apiErr, ok := err.(apiError)
		if !ok || apiErr.problem.Status != http.StatusConflict {
			return fmt.Errorf("expected conflict for stale cancel, got %v", err)
		}
		if retryable, _ := apiErr.problem.Extensions["retryable"].(bool); !retryable {
			return fmt.Errorf("expected conflict to be retryable")
		}

		err = client.do(ctx, http.MethodGet, "/v1/orders/"+pacttest.MissingOrderID, customerToken, nil, nil)
		if apiErr, ok := err.(apiError); !ok || apiErr.problem.Status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for missing order, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

type trackerClient struct {
	baseURL    string
	httpClient *http.Client
}

func newTrackerClient(config pactconsumer.MockServerConfig) *trackerClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &trackerClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *trackerClient) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var problem problemDetail
		_ = json.NewDecoder(res.Body).Decode(&problem)
		if problem.Status == 0 {
			problem.Status = res.StatusCode
		}
		return apiError{problem: problem}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
