package eventmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/dispatch"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/event"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/journal"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/observability"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/registry"
)

// Sentinel errors.
var (
	// ErrNilEvent indicates Raise was called with a nil event.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrNilContext indicates Raise was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilRegistry indicates New was called without a registry.
	ErrNilRegistry = errors.New("registry cannot be nil")
)

// Manager raises events to their registered handlers.
//
// A Manager is safe for concurrent use. Raises share nothing but the
// sealed registry.
type Manager struct {
	registry    *registry.Registry
	coordinator *dispatch.Coordinator
	journal     journal.Journal
	ownsJournal bool
}

// New creates a Manager over reg and seals reg. Registrations must be
// complete before New is called.
func New(reg *registry.Registry, opts ...Option) (*Manager, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}

	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{registry: reg, journal: cfg.journal}
	if cfg.openJournal != nil {
		j, err := cfg.openJournal.OpenJournal()
		if err != nil {
			return nil, fmt.Errorf("open fault journal: %w", err)
		}
		m.journal = j
		m.ownsJournal = j != nil
	}

	dopts := []dispatch.Option{
		dispatch.WithLogger(cfg.logger),
		dispatch.WithTracing(cfg.tracingEnabled),
		dispatch.WithSlowThreshold(cfg.slowThreshold),
		dispatch.WithRecordRecovered(cfg.recordRecovered),
	}
	if cfg.metricsEnabled {
		metrics := cfg.metrics
		if metrics == nil {
			metrics = observability.NewMetricsRecorder()
		}
		dopts = append(dopts, dispatch.WithMetrics(metrics))
	}
	if m.journal != nil {
		dopts = append(dopts, dispatch.WithJournal(m.journal))
	}

	reg.Seal()
	m.coordinator = dispatch.New(cfg.activator, dopts...)
	return m, nil
}

// Raise delivers evt to every handler registered for its exact type and to
// every Conditional and Convention handler, concurrently, and returns once
// all of them have finished.
//
// The returned error is nil exactly when the outcome succeeded; otherwise
// it is a *dispatch.FaultError carrying every fault. The outcome is
// returned in both cases, except for a nil event or context.
//
// Example:
//
//	out, err := m.Raise(ctx, orders.Placed{ID: id})
//	if err != nil {
//	    var fe *dispatch.FaultError
//	    errors.As(err, &fe) // fe.Faults holds one error per failed handler
//	}
//	_ = out.Results // per-handler status
func (m *Manager) Raise(ctx context.Context, evt any) (*dispatch.Outcome, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if evt == nil {
		return nil, ErrNilEvent
	}

	raiseID := uuid.NewString()
	descriptors := m.registry.Resolve(event.KeyOf(evt))
	out := m.coordinator.Dispatch(ctx, raiseID, evt, descriptors)
	return out, out.Err()
}

// Registry returns the sealed registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Journal returns the fault journal, or nil when none is configured.
func (m *Manager) Journal() journal.Journal {
	return m.journal
}

// Close closes the journal if the Manager opened it from settings.
// A journal passed with WithJournal is left open.
func (m *Manager) Close() error {
	if !m.ownsJournal || m.journal == nil {
		return nil
	}
	return m.journal.Close()
}
