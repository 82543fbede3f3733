package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	ordersmemory "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	loyaltyactivities "github.com/Apurer/go-gin-order-tracking/internal/durable/temporal/activities/loyalty"
	loyaltyworkflows "github.com/Apurer/go-gin-order-tracking/internal/durable/temporal/workflows/loyalty"
	platformobservability "github.com/Apurer/go-gin-order-tracking/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-order-tracking/internal/platform/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}
	ctx := context.Background()
	const serviceName = "order-tracking-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	ledger, cleanup := buildLedger(ctx, logger)
	defer cleanup()
	accrualActivities := loyaltyactivities.NewActivities(ledger)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, loyaltyworkflows.AccrualTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(loyaltyworkflows.AccrualWorkflow, workflow.RegisterOptions{Name: loyaltyworkflows.AccrualWorkflowName})
	w.RegisterActivityWithOptions(accrualActivities.AccruePoints, activity.RegisterOptions{Name: loyaltyactivities.AccruePointsActivityName})

	logger.Info("worker listening", slog.String("taskQueue", loyaltyworkflows.AccrualTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

// buildLedger prefers the shared PostgreSQL ledger. The in-memory fallback
// only makes sense for local runs where the API also accrues inline.
func buildLedger(ctx context.Context, logger *slog.Logger) (ordersports.LoyaltyLedger, func()) {
	db, cleanup := platformpostgres.ConnectOrFallback(ctx, os.Getenv("POSTGRES_DSN"), false, logger)
	if db == nil {
		logger.Warn("worker loyalty ledger is in-memory; balances will not be shared")
		return ordersmemory.NewLoyaltyLedger(), cleanup
	}
	logger.Info("worker loyalty ledger configured with postgres")
	return orderspostgres.NewLoyaltyLedger(db), cleanup
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
