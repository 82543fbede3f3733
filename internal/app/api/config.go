package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/realtime"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

const (
	defaultKafkaTopic       = "orders.events"
	defaultKafkaGroupPrefix = "orders-api"
	defaultKeepalive        = 15 * time.Second
	defaultTokenExpiry      = 15 * time.Minute
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port                string
	PostgresDSN         string
	PostgresAutoMigrate bool
	JWTSecret           string
	KafkaBrokers        []string
	KafkaTopic          string
	KafkaGroupPrefix    string
	TemporalAddress     string
	TemporalNamespace   string
	TemporalDisabled    bool
	FanoutBuffer        int
	StreamKeepalive     time.Duration
	CancelPolicy        domain.CancelPolicy
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	defaults := domain.DefaultCancelPolicy()
	cfg := Config{
		Port:                envDefault("PORT", "8080"),
		PostgresDSN:         strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresAutoMigrate: isTruthy(envDefault("POSTGRES_AUTO_MIGRATE", "true")),
		JWTSecret:           strings.TrimSpace(os.Getenv("JWT_SECRET")),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          envDefault("KAFKA_TOPIC", defaultKafkaTopic),
		KafkaGroupPrefix:    envDefault("KAFKA_GROUP_PREFIX", defaultKafkaGroupPrefix),
		TemporalAddress:     envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:   envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:    isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		FanoutBuffer:        realtime.DefaultBuffer,
		StreamKeepalive:     defaultKeepalive,
		CancelPolicy: domain.CancelPolicy{
			Customer: boolDefault("CANCEL_BY_CUSTOMER", defaults.Customer),
			Admin:    boolDefault("CANCEL_BY_ADMIN", defaults.Admin),
		},
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if raw := strings.TrimSpace(os.Getenv("FANOUT_BUFFER")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return Config{}, fmt.Errorf("FANOUT_BUFFER must be a positive integer")
		}
		cfg.FanoutBuffer = size
	}
	if raw := strings.TrimSpace(os.Getenv("STREAM_KEEPALIVE")); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return Config{}, fmt.Errorf("STREAM_KEEPALIVE must be a positive duration such as 15s")
		}
		cfg.StreamKeepalive = interval
	}
	return cfg, nil
}

// RelayEnabled reports whether events should cross instances through Kafka.
func (c Config) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func boolDefault(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	return isTruthy(raw)
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
