package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	loyaltyworkflows "github.com/Apurer/go-gin-order-tracking/internal/durable/temporal/workflows/loyalty"
)

var (
	_ ports.LoyaltyTrigger = (*TemporalLoyaltyTrigger)(nil)
	_ ports.LoyaltyTrigger = (*InlineLoyaltyTrigger)(nil)
)

// WorkflowStarter is the subset of the Temporal client used to start accruals.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalLoyaltyTrigger starts one durable accrual workflow per completed order.
type TemporalLoyaltyTrigger struct {
	client    WorkflowStarter
	taskQueue string
}

func NewTemporalLoyaltyTrigger(c WorkflowStarter) *TemporalLoyaltyTrigger {
	return &TemporalLoyaltyTrigger{client: c, taskQueue: loyaltyworkflows.AccrualTaskQueue}
}

// OrderCompleted starts the accrual without waiting for it. A workflow that
// already exists for the order means the accrual is in flight or done.
func (t *TemporalLoyaltyTrigger) OrderCompleted(ctx context.Context, order *domain.Order) error {
	if t == nil || t.client == nil {
		return errors.New("temporal loyalty trigger not configured")
	}
	if order.Status != domain.StatusCompleted {
		return fmt.Errorf("order %s is %s, not completed", order.ID, order.Status)
	}
	options := client.StartWorkflowOptions{
		ID:                                       AccrualWorkflowID(order.ID),
		TaskQueue:                                t.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	_, err := t.client.ExecuteWorkflow(ctx, options, loyaltyworkflows.AccrualWorkflowName, loyaltyworkflows.AccrualWorkflowInput{
		Accrual: ports.NewAccrual(order),
		TraceID: workflowTraceID(ctx),
	})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// InlineLoyaltyTrigger writes to the ledger directly, useful for tests or dev fallbacks.
type InlineLoyaltyTrigger struct {
	ledger ports.LoyaltyLedger
	logger *slog.Logger
}

func NewInlineLoyaltyTrigger(ledger ports.LoyaltyLedger, logger *slog.Logger) *InlineLoyaltyTrigger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &InlineLoyaltyTrigger{ledger: ledger, logger: logger}
}

func (t *InlineLoyaltyTrigger) OrderCompleted(ctx context.Context, order *domain.Order) error {
	if t == nil || t.ledger == nil {
		return errors.New("inline loyalty trigger not configured")
	}
	accrual := ports.NewAccrual(order)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	applied, err := t.ledger.Accrue(ctx, accrual)
	if err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "loyalty points accrued",
		slog.String("order_id", accrual.OrderID),
		slog.String("customer_id", accrual.CustomerID),
		slog.Int64("points", accrual.Points),
		slog.Bool("applied", applied),
	)
	return nil
}

// AccrualWorkflowID is deterministic per order so a repeated completion
// signal cannot start a second accrual.
func AccrualWorkflowID(orderID string) string {
	return "loyalty-accrual-" + orderID
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
