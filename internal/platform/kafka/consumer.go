package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
	// since drops messages produced before this consumer started. A group
	// rejoining after a restart would otherwise replay committed offsets.
	since time.Time
}

// NewConsumer joins groupID on topic. Every API instance uses its own group
// so each one sees the full stream.
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.LastOffset,
	})
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consumer{reader: reader, logger: logger, since: time.Now()}
}

// Consume hands each message to handler until ctx ends. Handler errors are
// logged and the message is skipped.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.ErrorContext(ctx, "kafka read failed", slog.String("error", err.Error()))
				continue
			}

			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	if !msg.Time.IsZero() && msg.Time.Before(c.since) {
		c.logger.DebugContext(ctx, "kafka message predates consumer, skipped",
			slog.String("key", string(msg.Key)),
			slog.Int64("offset", msg.Offset),
		)
		return
	}
	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		c.logger.ErrorContext(ctx, "kafka message handling failed",
			slog.String("key", string(msg.Key)),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
