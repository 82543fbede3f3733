package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestConsumer_SkipsMessagesFromBeforeStart(t *testing.T) {
	since := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Consumer{logger: slog.New(slog.DiscardHandler), since: since}

	var seen []string
	handler := func(_ context.Context, key, _ []byte) error {
		seen = append(seen, string(key))
		return nil
	}

	ctx := context.Background()
	c.handle(ctx, kafka.Message{Key: []byte("replayed"), Time: since.Add(-time.Minute)}, handler)
	c.handle(ctx, kafka.Message{Key: []byte("live"), Time: since.Add(time.Second)}, handler)
	c.handle(ctx, kafka.Message{Key: []byte("untimed")}, handler)

	require.Equal(t, []string{"live", "untimed"}, seen)
}

func TestConsumer_HandlerErrorDoesNotStopConsumption(t *testing.T) {
	c := &Consumer{logger: slog.New(slog.DiscardHandler), since: time.Now().Add(-time.Hour)}
	calls := 0
	handler := func(context.Context, []byte, []byte) error {
		calls++
		return errors.New("boom")
	}

	c.handle(context.Background(), kafka.Message{Key: []byte("a"), Time: time.Now()}, handler)
	c.handle(context.Background(), kafka.Message{Key: []byte("b"), Time: time.Now()}, handler)
	require.Equal(t, 2, calls)
}
