package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the orchestrator's instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	executionTotal metric.Int64Counter
	batchTotal     metric.Int64Counter
	forcedTotal    metric.Int64Counter
	taskTotal      metric.Int64Counter
	taskDuration   metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	executionTotal, err := meter.Int64Counter("taskflow.executions",
		metric.WithDescription("Number of Execute calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating taskflow.executions counter: %w", err)
	}

	batchTotal, err := meter.Int64Counter("taskflow.batches",
		metric.WithDescription("Number of batches run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating taskflow.batches counter: %w", err)
	}

	forcedTotal, err := meter.Int64Counter("taskflow.forced_promotions",
		metric.WithDescription("Tasks promoted past unmet dependencies to break a cycle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating taskflow.forced_promotions counter: %w", err)
	}

	taskTotal, err := meter.Int64Counter("taskflow.tasks",
		metric.WithDescription("Tasks resolved, by capability and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating taskflow.tasks counter: %w", err)
	}

	taskDuration, err := meter.Float64Histogram("taskflow.task.duration",
		metric.WithDescription("Task duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating taskflow.task.duration histogram: %w", err)
	}

	return &Metrics{
		executionTotal: executionTotal,
		batchTotal:     batchTotal,
		forcedTotal:    forcedTotal,
		taskTotal:      taskTotal,
		taskDuration:   taskDuration,
	}, nil
}

// RecordExecution counts one Execute call with its plan size.
func (m *Metrics) RecordExecution(ctx context.Context, batches int) {
	if m == nil {
		return
	}
	m.executionTotal.Add(ctx, 1)
	m.batchTotal.Add(ctx, int64(batches))
}

// RecordForced counts forced promotions.
func (m *Metrics) RecordForced(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.forcedTotal.Add(ctx, int64(n))
}

// RecordTask records one resolved task.
func (m *Metrics) RecordTask(ctx context.Context, capability, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("status", status),
	))
	m.taskDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("capability", capability),
	))
}
