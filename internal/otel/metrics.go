package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "assistant-pane"

// Metrics holds all OTEL metric instruments for assistant-pane.
// Every Record method is safe on a nil receiver.
type Metrics struct {
	// Session operations (partitioned by operation + outcome)
	Operations metric.Int64Counter

	// Cached handles found gone on re-probe
	Drift metric.Int64Counter

	// External commands that exited non-zero or could not start
	CommandFailures metric.Int64Counter

	// Wall-clock latency of external multiplexer commands
	CommandDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Operations, err = meter.Int64Counter("pane.operations",
		metric.WithDescription("Terminal session operations partitioned by operation and outcome"))
	if err != nil {
		return nil, err
	}

	m.Drift, err = meter.Int64Counter("pane.drift",
		metric.WithDescription("Tracked pane handles found gone when re-validated"))
	if err != nil {
		return nil, err
	}

	m.CommandFailures, err = meter.Int64Counter("pane.command.failures",
		metric.WithDescription("Multiplexer commands that failed to launch or exited non-zero"))
	if err != nil {
		return nil, err
	}

	m.CommandDuration, err = meter.Float64Histogram("pane.command.duration",
		metric.WithDescription("Latency of multiplexer commands"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOperation records one high-level session operation.
func (m *Metrics) RecordOperation(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.Operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pane.operation", op),
		attribute.String("pane.outcome", outcome),
	))
}

// RecordDrift records a tracked handle that disappeared out of band.
func (m *Metrics) RecordDrift(ctx context.Context) {
	if m == nil {
		return
	}
	m.Drift.Add(ctx, 1)
}

// RecordCommand records the latency of one external command and counts it
// as a failure when it exited non-zero.
func (m *Metrics) RecordCommand(ctx context.Context, subcommand string, elapsed time.Duration, exitCode int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("pane.command", subcommand))
	m.CommandDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if exitCode != 0 {
		m.CommandFailures.Add(ctx, 1, attrs)
	}
}

// RecordLaunchFailure counts a command that could not be started.
func (m *Metrics) RecordLaunchFailure(ctx context.Context, subcommand string) {
	if m == nil {
		return
	}
	m.CommandFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pane.command", subcommand),
		attribute.Bool("pane.launch_failure", true),
	))
}
