package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.Service = (*Service)(nil)

// Option configures the service.
type Option func(*Service)

// WithPublisher sets where committed events are sent.
func WithPublisher(publisher ports.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithFeed wires the live connection registry used by Track and WatchAdmin.
func WithFeed(feed ports.Feed) Option {
	return func(s *Service) {
		s.feed = feed
	}
}

// WithIdempotencyStore enables Idempotency-Key replay on PlaceOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithLoyaltyTrigger sets the hook fired when an order completes.
func WithLoyaltyTrigger(trigger ports.LoyaltyTrigger) Option {
	return func(s *Service) {
		if trigger != nil {
			s.loyalty = trigger
		}
	}
}

// WithCancelPolicy overrides who may cancel.
func WithCancelPolicy(policy domain.CancelPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithLogger sets the logger used for failures that never reach the caller.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source stamped on transitions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service orchestrates the order lifecycle use cases.
type Service struct {
	repo        ports.Repository
	publisher   ports.Publisher
	feed        ports.Feed
	idempotency ports.IdempotencyStore
	loyalty     ports.LoyaltyTrigger
	policy      domain.CancelPolicy
	logger      *slog.Logger
	now         func() time.Time
	locks       *keyedMutex
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: ports.PublisherFunc(func(context.Context, domain.StatusChanged) error { return nil }),
		loyalty:   ports.NoopLoyaltyTrigger{},
		policy:    domain.DefaultCancelPolicy(),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		locks:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder creates a placed order and announces it on the admin feed.
// A repeated IdempotencyKey with the same payload returns the original order.
func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	if err := input.Customer.Validate(); err != nil {
		return nil, mapError(err)
	}
	if input.Customer.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers place orders", domain.ErrForbidden)
	}
	if input.IdempotencyKey == "" || s.idempotency == nil {
		return s.createOrder(ctx, input)
	}

	hash, err := FingerprintPlaceOrder(input)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock("idempotency:" + input.IdempotencyKey)
	defer unlock()

	stored, reserved, err := s.idempotency.Reserve(ctx, ports.IdempotencyRecord{
		Key:         input.IdempotencyKey,
		RequestHash: hash,
	})
	if err != nil {
		return nil, err
	}
	if !reserved {
		if stored.Pending() {
			return nil, ports.ErrIdempotencyInProgress
		}
		order, err := s.repo.Get(ctx, stored.OrderID)
		return order, mapError(err)
	}

	order, err := s.createOrder(ctx, input)
	if err != nil {
		if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), input.IdempotencyKey); releaseErr != nil {
			s.logger.WarnContext(ctx, "idempotency key release failed",
				slog.String("idempotency_key", input.IdempotencyKey),
				slog.String("error", releaseErr.Error()),
			)
		}
		return nil, err
	}
	// The order exists and has been announced; a failed attach leaves the key
	// pending so retries get ErrIdempotencyInProgress instead of a duplicate.
	if err := s.idempotency.Attach(context.WithoutCancel(ctx), input.IdempotencyKey, order.ID); err != nil {
		s.logger.ErrorContext(ctx, "idempotency key attach failed",
			slog.String("idempotency_key", input.IdempotencyKey),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}

func (s *Service) createOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	order, err := s.repo.Create(ctx, input.Draft())
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.NewPlacedEvent(order))
	return order, nil
}

// GetOrder loads one order visible to the viewer.
func (s *Service) GetOrder(ctx context.Context, lookup ordertypes.OrderLookup) (*domain.Order, error) {
	if err := lookup.Viewer.Validate(); err != nil {
		return nil, mapError(err)
	}
	order, err := s.repo.Get(ctx, lookup.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !domain.CanView(order, lookup.Viewer) {
		return nil, fmt.Errorf("%w: order belongs to another customer", domain.ErrForbidden)
	}
	return order, nil
}

// ListOrders returns the admin queue for staff or the order history for a customer.
func (s *Service) ListOrders(ctx context.Context, query ordertypes.OrderQuery) ([]*domain.Order, error) {
	if err := query.Viewer.Validate(); err != nil {
		return nil, mapError(err)
	}
	filter := ports.Filter{
		Statuses:   query.Statuses,
		LocationID: query.LocationID,
		Limit:      query.Limit,
	}
	if query.Viewer.Role == domain.RoleCustomer {
		filter.CustomerID = query.Viewer.ID
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ApplyAdminAction moves an order along the lifecycle on behalf of staff.
func (s *Service) ApplyAdminAction(ctx context.Context, cmd ordertypes.AdminCommand) (*domain.Order, error) {
	target, err := cmd.Action.Target()
	if err != nil {
		return nil, mapError(err)
	}
	change := domain.Change{
		To:    target,
		Actor: cmd.Actor,
		Note:  cmd.Note,
	}
	switch target {
	case domain.StatusAccepted:
		change.EstimatedPrepMinutes = cmd.EstimatedPrepMinutes
	case domain.StatusRejected:
		change.Rejection = cmd.Rejection
	}
	return s.transition(ctx, cmd.OrderID, cmd.ExpectedVersion, change)
}

// CancelOrder cancels an order on behalf of its owner.
func (s *Service) CancelOrder(ctx context.Context, cmd ordertypes.CustomerCommand) (*domain.Order, error) {
	return s.transition(ctx, cmd.OrderID, cmd.ExpectedVersion, domain.Change{
		To:    domain.StatusCancelled,
		Actor: cmd.Actor,
		Note:  cmd.Note,
	})
}

// transition authorizes, commits and publishes one change. Publication for
// a given order happens under the same per-order lock as the commit so events
// leave this process in version order.
func (s *Service) transition(ctx context.Context, orderID string, expectedVersion int64, change domain.Change) (*domain.Order, error) {
	if expectedVersion < 1 {
		return nil, fmt.Errorf("%w: expected version must be at least 1", ErrInvalidInput)
	}
	if err := change.Actor.Validate(); err != nil {
		return nil, mapError(err)
	}

	committed, err := s.commitAndPublish(ctx, orderID, expectedVersion, change)
	if err != nil {
		return nil, mapError(err)
	}
	if committed.Status == domain.StatusCompleted {
		if err := s.loyalty.OrderCompleted(ctx, committed); err != nil {
			s.logger.ErrorContext(ctx, "loyalty trigger failed",
				slog.String("order_id", committed.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return committed, nil
}

func (s *Service) commitAndPublish(ctx context.Context, orderID string, expectedVersion int64, change domain.Change) (*domain.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	current, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(current, change.To, change.Actor, s.policy); err != nil {
		return nil, err
	}
	change.At = s.now()
	committed, err := s.repo.CommitTransition(ctx, orderID, expectedVersion, change)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.NewStatusChangedEvent(committed))
	return committed, nil
}

// publish never fails the caller; viewers that miss an event refetch.
func (s *Service) publish(ctx context.Context, evt domain.StatusChanged) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "order event publish failed",
			slog.String("order_id", evt.OrderID),
			slog.Int64("version", evt.Version),
			slog.String("type", evt.EventName()),
			slog.String("error", err.Error()),
		)
	}
}

// Track opens a live view of one order for its owner (or staff). The
// subscription is registered before the snapshot is read so that no commit
// after the read can be missed.
func (s *Service) Track(ctx context.Context, orderID string, viewer domain.Actor, connID string) (ports.TrackingView, error) {
	if s.feed == nil {
		return nil, ErrFeedUnavailable
	}
	if err := viewer.Validate(); err != nil {
		return nil, mapError(err)
	}
	sub, err := s.feed.Subscribe(connID, ports.OrderScope(orderID))
	if err != nil {
		return nil, err
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		sub.Close()
		return nil, mapError(err)
	}
	if !domain.CanView(order, viewer) {
		sub.Close()
		return nil, fmt.Errorf("%w: order belongs to another customer", domain.ErrForbidden)
	}
	return NewTracker(order, sub), nil
}

// WatchAdmin subscribes staff to every order event.
func (s *Service) WatchAdmin(_ context.Context, viewer domain.Actor, connID string) (ports.Subscription, error) {
	if s.feed == nil {
		return nil, ErrFeedUnavailable
	}
	if err := viewer.Validate(); err != nil {
		return nil, mapError(err)
	}
	if viewer.Role == domain.RoleCustomer {
		return nil, fmt.Errorf("%w: admin feed requires staff", domain.ErrForbidden)
	}
	return s.feed.Subscribe(connID, ports.AdminScope())
}
