package eventmanager

import (
	"log/slog"
	"os"
	"time"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/config"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/journal"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/observability"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/registry"
)

// managerConfig holds configuration for a Manager.
type managerConfig struct {
	activator       registry.Activator
	logger          *slog.Logger
	metricsEnabled  bool
	metrics         observability.MetricsRecorder
	tracingEnabled  bool
	journal         journal.Journal
	openJournal     *config.Settings
	recordRecovered bool
	slowThreshold   time.Duration
}

// defaultManagerConfig returns the default configuration.
func defaultManagerConfig() managerConfig {
	return managerConfig{
		activator: registry.FactoryActivator{},
		logger:    slog.Default(),
	}
}

// Option configures a Manager.
//
// Options are applied in order, so an option overrides whatever an
// earlier WithSettings chose.
type Option func(*managerConfig)

// WithActivator sets how handler instances are built.
// Default: registry.FactoryActivator, which calls the registered factory.
//
// Use it to plug in a dependency injection container:
//
//	m, err := eventmanager.New(reg, eventmanager.WithActivator(
//	    registry.ActivatorFunc(func(ctx context.Context, d registry.Descriptor) (any, error) {
//	        return container.Resolve(ctx, d.HandlerType)
//	    }),
//	))
func WithActivator(a registry.Activator) Option {
	return func(c *managerConfig) {
		if a != nil {
			c.activator = a
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter
// provider.
// Default: false
func WithMetrics(enabled bool) Option {
	return func(c *managerConfig) {
		c.metricsEnabled = enabled
	}
}

// WithMetricsRecorder records metrics through m instead of the global
// meter provider. It implies WithMetrics(true).
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(c *managerConfig) {
		c.metrics = m
		c.metricsEnabled = m != nil
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer
// provider.
// Default: false
func WithTracing(enabled bool) Option {
	return func(c *managerConfig) {
		c.tracingEnabled = enabled
	}
}

// WithJournal records faults in j. The caller keeps ownership: Close does
// not close it.
func WithJournal(j journal.Journal) Option {
	return func(c *managerConfig) {
		c.journal = j
		c.openJournal = nil
	}
}

// WithRecordRecovered also journals failures that Graceful handlers
// absorbed.
// Default: false
func WithRecordRecovered(enabled bool) Option {
	return func(c *managerConfig) {
		c.recordRecovered = enabled
	}
}

// WithSlowHandlerThreshold logs a warning for handlers running longer
// than d. Handlers are never interrupted.
// Default: 0 (disabled)
func WithSlowHandlerThreshold(d time.Duration) Option {
	return func(c *managerConfig) {
		if d >= 0 {
			c.slowThreshold = d
		}
	}
}

// WithSettings applies loaded settings: metrics, tracing, the slow
// handler threshold, a JSON logger on stderr at the configured level, and
// the configured journal, which the Manager opens and Close closes.
func WithSettings(s config.Settings) Option {
	return func(c *managerConfig) {
		c.metricsEnabled = s.Metrics
		c.tracingEnabled = s.Tracing
		c.slowThreshold = s.SlowHandlerThreshold
		c.recordRecovered = s.Journal.RecordRecovered
		c.logger = s.Logger(os.Stderr)
		c.journal = nil
		c.openJournal = &s
	}
}
