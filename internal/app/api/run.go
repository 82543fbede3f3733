package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	orderserver "github.com/Apurer/go-gin-order-tracking/go"

	ordersmemory "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/memory"
	ordersrelay "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/messaging/kafka"
	ordersobs "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/realtime"
	ordersworkflows "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-tracking/internal/platform/auth"
	platformkafka "github.com/Apurer/go-gin-order-tracking/internal/platform/kafka"
	platformobservability "github.com/Apurer/go-gin-order-tracking/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-order-tracking/internal/platform/postgres"
)

const serviceName = "order-tracking-api"

// Run boots the order tracking HTTP API with observability, stores, live
// fan-out and the loyalty workflow wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectOrFallback(ctx, cfg.PostgresDSN, cfg.PostgresAutoMigrate, logger)
	defer cleanupDB()
	stores := buildStores(db)

	hub := realtime.NewHub(
		realtime.WithBuffer(cfg.FanoutBuffer),
		realtime.WithLogger(logger),
		realtime.WithMeter(instruments.Meter("internal.orders.realtime")),
	)
	defer hub.Close()

	// The inbox is written by whichever instance commits; other instances
	// only feed their hubs from the relay.
	notifier := ordersapp.NewNotifier(stores.notifications, logger)
	publisher := ordersports.FanOut(hub, notifier)
	var consumer *platformkafka.Consumer
	if cfg.RelayEnabled() {
		producer := platformkafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		// The relayed copy comes back through the consumer and is discarded
		// as stale by the local hub.
		relay := ordersrelay.NewPublisher(producer)
		publisher = ordersports.FanOut(hub, notifier, relay)
		consumer = platformkafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, relayGroupID(cfg), logger)
		defer consumer.Close()
		logger.Info("kafka relay enabled", slog.String("topic", cfg.KafkaTopic), slog.Any("brokers", cfg.KafkaBrokers))
	}

	var loyalty ordersports.LoyaltyTrigger = ordersworkflows.NewInlineLoyaltyTrigger(stores.ledger, logger)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, accruing loyalty inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		loyalty = ordersworkflows.NewTemporalLoyaltyTrigger(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	coreService := ordersapp.NewService(
		stores.orders,
		ordersapp.WithPublisher(publisher),
		ordersapp.WithFeed(hub),
		ordersapp.WithIdempotencyStore(stores.idempotency),
		ordersapp.WithLoyaltyTrigger(loyalty),
		ordersapp.WithCancelPolicy(cfg.CancelPolicy),
		ordersapp.WithLogger(logger),
	)
	service := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	inbox := ordersobs.NewInbox(
		ordersapp.NewInbox(stores.notifications),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.notifications")),
	)

	handlers := orderserver.ApiHandleFunctions{
		Auth:      orderserver.NewAuthenticator(auth.NewVerifier(cfg.JWTSecret, defaultTokenExpiry)),
		OrdersAPI: orderserver.NewOrdersAPI(service),
		AdminAPI:  orderserver.NewAdminAPI(service),
		StreamAPI: orderserver.NewStreamAPI(service,
			orderserver.WithKeepalive(cfg.StreamKeepalive),
			orderserver.WithStreamLogger(logger),
		),
		NotificationsAPI: orderserver.NewNotificationsAPI(inbox),
	}
	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName))
	router := orderserver.NewRouterWithGinEngine(engine, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("order tracking API listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("order tracking API exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	})
	if consumer != nil {
		group.Go(func() error {
			err := consumer.Consume(groupCtx, ordersrelay.NewHandler(hub))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

type stores struct {
	orders        ordersports.Repository
	idempotency   ordersports.IdempotencyStore
	ledger        ordersports.LoyaltyLedger
	notifications ordersports.NotificationRepository
}

func buildStores(db *gorm.DB) stores {
	if db == nil {
		return stores{
			orders:        ordersmemory.NewRepository(),
			idempotency:   ordersmemory.NewIdempotencyStore(),
			ledger:        ordersmemory.NewLoyaltyLedger(),
			notifications: ordersmemory.NewNotificationStore(),
		}
	}
	return stores{
		orders:        orderspostgres.NewRepository(db),
		idempotency:   orderspostgres.NewIdempotencyStore(db),
		ledger:        orderspostgres.NewLoyaltyLedger(db),
		notifications: orderspostgres.NewNotificationStore(db),
	}
}

// relayGroupID gives each instance its own consumer group so every instance
// sees the full topic.
func relayGroupID(cfg Config) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return cfg.KafkaGroupPrefix + "-" + host
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
