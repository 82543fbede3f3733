package orderserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

const (
	DefaultKeepalive = 15 * time.Second

	eventSnapshot = "snapshot"
	eventClosed   = "closed"
)

// StreamAPI serves Server-Sent Event streams for live tracking.
type StreamAPI struct {
	service   ordersports.Service
	keepalive time.Duration
	logger    *slog.Logger
}

type StreamOption func(*StreamAPI)

// WithKeepalive sets the interval between comment pings on idle streams.
func WithKeepalive(d time.Duration) StreamOption {
	return func(api *StreamAPI) {
		if d > 0 {
			api.keepalive = d
		}
	}
}

func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(api *StreamAPI) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// NewStreamAPI creates a StreamAPI backed by the provided service.
func NewStreamAPI(service ordersports.Service, opts ...StreamOption) StreamAPI {
	api := StreamAPI{
		service:   service,
		keepalive: DefaultKeepalive,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&api)
	}
	return api
}

// Get /v1/orders/:orderId/stream
// Stream the order snapshot followed by every newer status change
func (api *StreamAPI) TrackOrder(c *gin.Context) {
	orderID, ok := bindOrderID(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	connID := newConnID()
	view, err := api.service.Track(ctx, orderID, actorFromContext(c), connID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	defer view.Close()

	prepareStream(c)
	c.SSEvent(eventSnapshot, orderhttpmapper.FromDomainOrder(view.Current()))
	c.Writer.Flush()
	api.streamEvents(ctx, c, connID, trackingUpdates(ctx, view))
}

// Get /v1/admin/stream
// Stream every order event to the dashboard
func (api *StreamAPI) WatchAdmin(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	connID := newConnID()
	sub, err := api.service.WatchAdmin(ctx, actorFromContext(c), connID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	defer sub.Close()

	prepareStream(c)
	c.Writer.Flush()
	api.streamEvents(ctx, c, connID, sub.Events())
}

func (api *StreamAPI) streamEvents(ctx context.Context, c *gin.Context, connID string, events <-chan domain.StatusChanged) {
	ticker := time.NewTicker(api.keepalive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-events:
			if !ok {
				api.logger.InfoContext(ctx, "stream subscription closed", slog.String("conn_id", connID))
				c.SSEvent(eventClosed, gin.H{"reason": "subscription closed, reconnect to resume"})
				return false
			}
			c.SSEvent(evt.EventName(), orderhttpmapper.FromDomainEvent(evt))
			return true
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return false
			}
			return true
		}
	})
}

// trackingUpdates pumps newer events from view until ctx ends or the
// subscription closes.
func trackingUpdates(ctx context.Context, view ordersports.TrackingView) <-chan domain.StatusChanged {
	out := make(chan domain.StatusChanged)
	go func() {
		defer close(out)
		for {
			evt, err := view.Next(ctx)
			if err != nil {
				return
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func prepareStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}
