package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

// DefaultBuffer is the per-connection mailbox size.
const DefaultBuffer = 64

var (
	// ErrTransportFailure marks a connection evicted because it could not keep up.
	ErrTransportFailure = errors.New("transport failure")
	ErrDuplicateConn    = errors.New("connection id already subscribed")
	ErrInvalidScope     = errors.New("subscription scope is invalid")
)

var (
	_ ports.Feed      = (*Hub)(nil)
	_ ports.Publisher = (*Hub)(nil)
)

type Option func(*Hub)

// WithBuffer sets the per-connection mailbox size.
func WithBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.buffer = size
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithMeter(m metric.Meter) Option {
	return func(h *Hub) {
		h.metrics = newHubMetrics(m)
	}
}

// Hub fans committed order events out to live connections. It keeps no
// history: a connection that misses events reconnects and refetches.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]*connection
	byOrder map[string]map[string]*connection
	admins  map[string]*connection

	buffer  int
	logger  *slog.Logger
	metrics hubMetrics
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		conns:   map[string]*connection{},
		byOrder: map[string]map[string]*connection{},
		admins:  map[string]*connection{},
		buffer:  DefaultBuffer,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *Hub) Subscribe(connID string, scope ports.Scope) (ports.Subscription, error) {
	if connID == "" {
		return nil, fmt.Errorf("%w: connection id is required", ErrInvalidScope)
	}
	switch scope.Kind {
	case ports.ScopeOrder:
		if scope.OrderID == "" {
			return nil, fmt.Errorf("%w: order id is required", ErrInvalidScope)
		}
	case ports.ScopeAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, scope.Kind)
	}

	conn := &connection{
		id:     connID,
		scope:  scope,
		events: make(chan domain.StatusChanged, h.buffer),
		last:   map[string]int64{},
		hub:    h,
	}

	h.mu.Lock()
	if _, exists := h.conns[connID]; exists {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateConn, connID)
	}
	h.conns[connID] = conn
	if scope.Kind == ports.ScopeAdmin {
		h.admins[connID] = conn
	} else {
		set, ok := h.byOrder[scope.OrderID]
		if !ok {
			set = map[string]*connection{}
			h.byOrder[scope.OrderID] = set
		}
		set[connID] = conn
	}
	h.mu.Unlock()

	h.metrics.connectionOpened(context.Background(), scope.Kind)
	return conn, nil
}

func (h *Hub) Unsubscribe(connID string) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		conn.Close()
	}
}

// Publish enqueues evt for every connection watching the order and every
// admin connection. It never blocks on a slow connection.
func (h *Hub) Publish(ctx context.Context, evt domain.StatusChanged) error {
	h.mu.RLock()
	targets := make([]*connection, 0, len(h.admins)+len(h.byOrder[evt.OrderID]))
	for _, conn := range h.byOrder[evt.OrderID] {
		targets = append(targets, conn)
	}
	for _, conn := range h.admins {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		switch conn.deliver(evt) {
		case deliveryOK:
			h.metrics.delivered(ctx, conn.scope.Kind)
		case deliveryStale:
			h.metrics.dropped(ctx, conn.scope.Kind)
		case deliveryOverflow:
			h.metrics.evicted(ctx, conn.scope.Kind)
			h.logger.WarnContext(ctx, "evicting slow connection",
				slog.String("conn_id", conn.id),
				slog.String("order_id", evt.OrderID),
				slog.Int64("version", evt.Version),
				slog.String("error", ErrTransportFailure.Error()),
			)
			h.detach(conn)
		}
	}
	return nil
}

// Connections reports the number of live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close ends every live connection.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}
}

// detach removes conn from the registries if it is still the registered
// connection for its id.
func (h *Hub) detach(conn *connection) {
	h.mu.Lock()
	if current, ok := h.conns[conn.id]; !ok || current != conn {
		h.mu.Unlock()
		return
	}
	delete(h.conns, conn.id)
	if conn.scope.Kind == ports.ScopeAdmin {
		delete(h.admins, conn.id)
	} else if set, ok := h.byOrder[conn.scope.OrderID]; ok {
		delete(set, conn.id)
		if len(set) == 0 {
			delete(h.byOrder, conn.scope.OrderID)
		}
	}
	h.mu.Unlock()
	h.metrics.connectionClosed(context.Background(), conn.scope.Kind)
}

type delivery int

const (
	deliveryOK delivery = iota
	deliveryStale
	deliveryOverflow
	deliveryClosed
)

type connection struct {
	id     string
	scope  ports.Scope
	events chan domain.StatusChanged
	hub    *Hub

	mu     sync.Mutex
	closed bool
	last   map[string]int64
}

func (c *connection) ID() string                          { return c.id }
func (c *connection) Scope() ports.Scope                  { return c.scope }
func (c *connection) Events() <-chan domain.StatusChanged { return c.events }

// Close detaches the connection and closes its channel. Safe to call twice.
func (c *connection) Close() {
	if c.shut() {
		c.hub.detach(c)
	}
}

func (c *connection) deliver(evt domain.StatusChanged) delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return deliveryClosed
	}
	if evt.Version <= c.last[evt.OrderID] {
		return deliveryStale
	}
	select {
	case c.events <- evt:
		c.last[evt.OrderID] = evt.Version
		return deliveryOK
	default:
		c.closed = true
		close(c.events)
		return deliveryOverflow
	}
}

func (c *connection) shut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.events)
	return true
}

type hubMetrics struct {
	deliveredCount metric.Int64Counter
	droppedCount   metric.Int64Counter
	evictedCount   metric.Int64Counter
	active         metric.Int64UpDownCounter
}

func newHubMetrics(m metric.Meter) hubMetrics {
	if m == nil {
		return hubMetrics{}
	}
	delivered, _ := m.Int64Counter("orders.fanout.delivered", metric.WithDescription("Events enqueued to live connections"))
	dropped, _ := m.Int64Counter("orders.fanout.dropped", metric.WithDescription("Stale events skipped per connection"))
	evicted, _ := m.Int64Counter("orders.fanout.evicted", metric.WithDescription("Connections evicted for falling behind"))
	active, _ := m.Int64UpDownCounter("orders.fanout.connections", metric.WithDescription("Live connections"))
	return hubMetrics{deliveredCount: delivered, droppedCount: dropped, evictedCount: evicted, active: active}
}

func scopeAttr(kind ports.ScopeKind) metric.AddOption {
	return metric.WithAttributes(attribute.String("fanout.scope", string(kind)))
}

func (m hubMetrics) delivered(ctx context.Context, kind ports.ScopeKind) {
	if m.deliveredCount != nil {
		m.deliveredCount.Add(ctx, 1, scopeAttr(kind))
	}
}

func (m hubMetrics) dropped(ctx context.Context, kind ports.ScopeKind) {
	if m.droppedCount != nil {
		m.droppedCount.Add(ctx, 1, scopeAttr(kind))
	}
}

func (m hubMetrics) evicted(ctx context.Context, kind ports.ScopeKind) {
	if m.evictedCount != nil {
		m.evictedCount.Add(ctx, 1, scopeAttr(kind))
	}
}

func (m hubMetrics) connectionOpened(ctx context.Context, kind ports.ScopeKind) {
	if m.active != nil {
		m.active.Add(ctx, 1, scopeAttr(kind))
	}
}

func (m hubMetrics) connectionClosed(ctx context.Context, kind ports.ScopeKind) {
	if m.active != nil {
		m.active.Add(ctx, -1, scopeAttr(kind))
	}
}
