package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/realtime"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, key := range []string{"PORT", "POSTGRES_DSN", "KAFKA_BROKERS", "FANOUT_BUFFER", "STREAM_KEEPALIVE", "CANCEL_BY_CUSTOMER", "CANCEL_BY_ADMIN", "TEMPORAL_DISABLED", "TEMPORAL_ADDRESS", "POSTGRES_AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, client.DefaultHostPort, cfg.TemporalAddress)
	assert.Equal(t, realtime.DefaultBuffer, cfg.FanoutBuffer)
	assert.Equal(t, 15*time.Second, cfg.StreamKeepalive)
	assert.True(t, cfg.CancelPolicy.Customer)
	assert.True(t, cfg.CancelPolicy.Admin)
	assert.False(t, cfg.RelayEnabled())
	assert.True(t, cfg.PostgresAutoMigrate)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("FANOUT_BUFFER", "8")
	t.Setenv("STREAM_KEEPALIVE", "5s")
	t.Setenv("CANCEL_BY_CUSTOMER", "false")
	t.Setenv("TEMPORAL_DISABLED", "yes")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.RelayEnabled())
	assert.Equal(t, 8, cfg.FanoutBuffer)
	assert.Equal(t, 5*time.Second, cfg.StreamKeepalive)
	assert.False(t, cfg.CancelPolicy.Customer)
	assert.True(t, cfg.TemporalDisabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad buffer", map[string]string{"JWT_SECRET": "x", "FANOUT_BUFFER": "-1"}},
		{"bad keepalive", map[string]string{"JWT_SECRET": "x", "STREAM_KEEPALIVE": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FANOUT_BUFFER", "")
			t.Setenv("STREAM_KEEPALIVE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
