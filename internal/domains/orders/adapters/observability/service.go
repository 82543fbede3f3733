package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.DiscardHandler),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(
			attribute.String("order.customer_id", input.Customer.ID),
			attribute.String("order.location_id", input.LocationID),
			attribute.Int("order.items", len(input.Items)),
			attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
		))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("customer_id", input.Customer.ID), slog.String("location_id", input.LocationID))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("customer_id", input.Customer.ID))
	}
	span.SetAttributes(attribute.String("order.id", result.ID))
	s.metrics.recordPlaced(ctx, result.LocationID)
	s.logInfo(ctx, "order placed", slog.String("order_id", result.ID), slog.String("order_number", result.Number))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, lookup ordertypes.OrderLookup) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.String("order.id", lookup.OrderID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, lookup)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order_id", lookup.OrderID))
	}
	span.SetAttributes(attribute.Int64("order.version", result.Version))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, query ordertypes.OrderQuery) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders",
		trace.WithAttributes(attribute.String("viewer.role", string(query.Viewer.Role)), attribute.String("order.location_id", query.LocationID)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ApplyAdminAction(ctx context.Context, cmd ordertypes.AdminCommand) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ApplyAdminAction",
		trace.WithAttributes(
			attribute.String("order.id", cmd.OrderID),
			attribute.String("order.action", string(cmd.Action)),
			attribute.Int64("order.expected_version", cmd.ExpectedVersion),
		))
	defer span.End()

	attrs := []slog.Attr{
		slog.String("order_id", cmd.OrderID),
		slog.String("action", string(cmd.Action)),
		slog.Int64("expected_version", cmd.ExpectedVersion),
		slog.String("actor", cmd.Actor.String()),
	}
	s.logInfo(ctx, "applying admin action", attrs...)
	result, err := s.inner.ApplyAdminAction(ctx, cmd)
	if err != nil {
		s.metrics.recordRejected(ctx, err)
		return nil, s.handleError(ctx, span, err, "admin action failed", attrs...)
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order transitioned", slog.String("order_id", result.ID), slog.String("status", string(result.Status)), slog.Int64("version", result.Version))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, cmd ordertypes.CustomerCommand) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder",
		trace.WithAttributes(attribute.String("order.id", cmd.OrderID), attribute.Int64("order.expected_version", cmd.ExpectedVersion)))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.String("order_id", cmd.OrderID), slog.String("actor", cmd.Actor.String()))
	result, err := s.inner.CancelOrder(ctx, cmd)
	if err != nil {
		s.metrics.recordRejected(ctx, err)
		return nil, s.handleError(ctx, span, err, "cancel failed", slog.String("order_id", cmd.OrderID))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order cancelled", slog.String("order_id", result.ID), slog.Int64("version", result.Version))
	return result, nil
}

func (s *Service) Track(ctx context.Context, orderID string, viewer domain.Actor, connID string) (ports.TrackingView, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Track",
		trace.WithAttributes(attribute.String("order.id", orderID), attribute.String("conn.id", connID)))
	defer span.End()

	view, err := s.inner.Track(ctx, orderID, viewer, connID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to open tracking view", slog.String("order_id", orderID))
	}
	s.logInfo(ctx, "tracking view opened", slog.String("order_id", orderID), slog.String("conn_id", connID))
	return view, nil
}

func (s *Service) WatchAdmin(ctx context.Context, viewer domain.Actor, connID string) (ports.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.WatchAdmin", trace.WithAttributes(attribute.String("conn.id", connID)))
	defer span.End()

	sub, err := s.inner.WatchAdmin(ctx, viewer, connID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to open admin feed", slog.String("conn_id", connID))
	}
	s.logInfo(ctx, "admin feed opened", slog.String("conn_id", connID), slog.String("actor", viewer.String()))
	return sub, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersPlaced metric.Int64Counter
	transitions  metric.Int64Counter
	conflicts    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Committed status transitions"))
	conflicts, _ := m.Int64Counter("orders.service.rejected_transitions", metric.WithDescription("Transitions refused by version or lifecycle checks"))
	return serviceMetrics{ordersPlaced: ordersPlaced, transitions: transitions, conflicts: conflicts}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, locationID string) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("order.location_id", locationID)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, err error) {
	if m.conflicts == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, ports.ErrVersionConflict):
		reason = "version_conflict"
	case errors.Is(err, domain.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, domain.ErrForbidden):
		reason = "forbidden"
	}
	m.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

var _ ports.Service = (*Service)(nil)
