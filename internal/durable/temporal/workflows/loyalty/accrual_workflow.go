package loyalty

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderports "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
	loyaltyactivities "github.com/Apurer/go-gin-order-tracking/internal/durable/temporal/activities/loyalty"
)

const (
	// AccrualWorkflowName is the public identifier for registering the workflow.
	AccrualWorkflowName = "loyalty.workflows.Accrual"
	// AccrualTaskQueue is the queue consumed by the worker processing loyalty workflows.
	AccrualTaskQueue = "LOYALTY_ACCRUAL"
)

// AccrualWorkflowInput captures a completed order's loyalty credit.
type AccrualWorkflowInput struct {
	Accrual orderports.Accrual
	TraceID string
}

// AccrualWorkflow credits loyalty points for one completed order.
func AccrualWorkflow(ctx workflow.Context, input AccrualWorkflowInput) (*loyaltyactivities.AccrualResult, error) {
	logger := workflow.GetLogger(ctx)
	orderID := input.Accrual.OrderID
	logger.Info("AccrualWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result loyaltyactivities.AccrualResult
	if err := workflow.ExecuteActivity(ctx, loyaltyactivities.AccruePointsActivityName, input.Accrual).Get(ctx, &result); err != nil {
		logger.Error("AccrualWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return nil, err
	}
	logger.Info("AccrualWorkflow completed", withTraceID(input.TraceID, "orderId", orderID, "applied", result.Applied)...)
	return &result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
