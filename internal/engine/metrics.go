package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"flowforge/pkg/models"
)

type engineMetrics struct {
	runsStarted   metric.Int64Counter
	runsCompleted metric.Int64Counter
	nodesExecuted metric.Int64Counter
	runDuration   metric.Float64Histogram
}

func newEngineMetrics() *engineMetrics {
	meter := otel.Meter("flowforge/engine")
	runsStarted, _ := meter.Int64Counter("engine.runs.started",
		metric.WithDescription("Workflow runs started"))
	runsCompleted, _ := meter.Int64Counter("engine.runs.completed",
		metric.WithDescription("Workflow runs reaching a terminal status"))
	nodesExecuted, _ := meter.Int64Counter("engine.nodes.executed",
		metric.WithDescription("Node handler invocations"))
	runDuration, _ := meter.Float64Histogram("engine.run.duration_ms",
		metric.WithDescription("Workflow run duration in milliseconds"))
	return &engineMetrics{
		runsStarted:   runsStarted,
		runsCompleted: runsCompleted,
		nodesExecuted: nodesExecuted,
		runDuration:   runDuration,
	}
}

func (m *engineMetrics) recordStart(ctx context.Context, mode models.ExecutionMode) {
	m.runsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

func (m *engineMetrics) recordNode(ctx context.Context, nodeType string) {
	m.nodesExecuted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", nodeType)))
}

func (m *engineMetrics) recordCompletion(ctx context.Context, status models.ExecutionStatus, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	m.runsCompleted.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}
