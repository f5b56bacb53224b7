package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRaise records a completed raise, its fan-out and its outcome.
	RecordRaise(ctx context.Context, eventType string, handlers int, success bool, duration time.Duration)

	// RecordHandler records one handler invocation and its final status
	// ("succeeded", "recovered", "skipped" or "faulted").
	RecordHandler(ctx context.Context, eventType, handler, kind, status string, duration time.Duration)

	// RecordFault records a fault that surfaced in an outcome.
	RecordFault(ctx context.Context, eventType, handler, stage string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	raises         metric.Int64Counter
	raiseLatency   metric.Float64Histogram
	raiseFanOut    metric.Int64Histogram
	invocations    metric.Int64Counter
	handlerLatency metric.Float64Histogram
	handlerFaults  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("eventmanager"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	raises, err := meter.Int64Counter("eventmanager.raise.count",
		metric.WithDescription("Number of raised events"),
	)
	if err != nil {
		return nil, err
	}

	raiseLatency, err := meter.Float64Histogram("eventmanager.raise.latency_ms",
		metric.WithDescription("Raise latency in milliseconds, including every handler"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	raiseFanOut, err := meter.Int64Histogram("eventmanager.raise.handlers",
		metric.WithDescription("Number of handlers resolved per raise"),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("eventmanager.handler.invocations",
		metric.WithDescription("Number of handler invocations by final status"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("eventmanager.handler.latency_ms",
		metric.WithDescription("Handler latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerFaults, err := meter.Int64Counter("eventmanager.handler.faults",
		metric.WithDescription("Number of handler faults surfaced in outcomes"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		raises:         raises,
		raiseLatency:   raiseLatency,
		raiseFanOut:    raiseFanOut,
		invocations:    invocations,
		handlerLatency: handlerLatency,
		handlerFaults:  handlerFaults,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFromMeter returns a MetricsRecorder bound to a specific
// meter instead of the global provider.
func NewMetricsRecorderFromMeter(meter metric.Meter) (MetricsRecorder, error) {
	m, err := newOtelMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRaise records a raise.
func (m *otelMetrics) RecordRaise(ctx context.Context, eventType string, handlers int, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.Bool("success", success),
	)
	m.raises.Add(ctx, 1, attrs)
	m.raiseLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.raiseFanOut.Record(ctx, int64(handlers), metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordHandler records a handler invocation.
func (m *otelMetrics) RecordHandler(ctx context.Context, eventType, handler, kind, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("handler", handler),
		attribute.String("kind", kind),
		attribute.String("status", status),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.handlerLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordFault records a surfaced fault.
func (m *otelMetrics) RecordFault(ctx context.Context, eventType, handler, stage string) {
	m.handlerFaults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("handler", handler),
		attribute.String("stage", stage),
	))
}
