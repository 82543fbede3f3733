//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-tracking-api"
	ConsumerName = "order-tracker-web"

	StateOrdersBaseline = "orders baseline"
	StatePlacedOrder    = "order placed by cust-pact"
	StateAcceptedOrder  = "order accepted at version 2"
	StateOrderMissing   = "no order with the missing id"
)

const (
	ExistingOrderID = "6f1c5a52-9d1b-4a55-8f0b-0d5a3c6f7b11"
	MissingOrderID  = "00000000-0000-0000-0000-000000000404"

	CustomerID = "cust-pact"
	AdminID    = "barista-pact"
	LocationID = "loc-pact"

	// JWTSecret is shared by the consumer, which mints tokens, and the
	// provider, which verifies them.
	JWTSecret = "pact-shared-secret"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the tracker consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleBasket is the checkout payload used by place-order interactions.
func ExampleBasket() map[string]any {
	return map[string]any{
		"locationId": LocationID,
		"notes":      "extra hot",
		"items": []map[string]any{
			{
				"menuItemId": "flat-white",
				"name":       "Flat White",
				"size":       "medium",
				"quantity":   2,
				"unitPrice":  "3.80",
				"toppings":   []string{"oat"},
			},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
