package dispatch

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/journal"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/observability"
)

// coordinatorConfig holds the coordinator's observability settings.
type coordinatorConfig struct {
	logger          *slog.Logger
	metrics         observability.MetricsRecorder
	spans           observability.SpanManager
	tracingEnabled  bool
	journal         journal.Journal
	recordRecovered bool
	slowThreshold   time.Duration
}

// defaultCoordinatorConfig returns the default configuration: logging to
// slog.Default(), no metrics, no tracing, no journal.
func defaultCoordinatorConfig() coordinatorConfig {
	return coordinatorConfig{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Coordinator.
type Option func(*coordinatorConfig)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *coordinatorConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Nil restores the no-op recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *coordinatorConfig) {
		if m == nil {
			m = observability.NoopMetrics{}
		}
		c.metrics = m
	}
}

// WithSpans sets the span manager and enables tracing.
func WithSpans(sm observability.SpanManager) Option {
	return func(c *coordinatorConfig) {
		if sm == nil {
			c.spans = observability.NoopSpanManager{}
			c.tracingEnabled = false
			return
		}
		c.spans = sm
		c.tracingEnabled = true
	}
}

// WithTracing enables or disables OpenTelemetry spans for raises and
// handler invocations. Enabling it without WithSpans uses the global
// tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *coordinatorConfig) {
		c.tracingEnabled = enabled
		if _, isNoop := c.spans.(observability.NoopSpanManager); enabled && isNoop {
			c.spans = observability.NewSpanManager()
		}
	}
}

// WithJournal records every fault in j.
//
// Journal failures are logged and never change the outcome.
func WithJournal(j journal.Journal) Option {
	return func(c *coordinatorConfig) {
		c.journal = j
	}
}

// WithRecordRecovered also journals failures that Graceful handlers
// absorbed. It has no effect without WithJournal.
func WithRecordRecovered(enabled bool) Option {
	return func(c *coordinatorConfig) {
		c.recordRecovered = enabled
	}
}

// WithSlowThreshold logs a warning for every handler that runs longer
// than d. Zero disables the check. Handlers are never interrupted.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *coordinatorConfig) {
		if d >= 0 {
			c.slowThreshold = d
		}
	}
}
