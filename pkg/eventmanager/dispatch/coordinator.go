// Package dispatch delivers one event to every resolved handler
// concurrently and collects the results.
//
// Each handler gets its own goroutine and its own instance. The raise
// returns only after every handler has finished, and every fault is
// reported, not just the first.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/event"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/handler"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/journal"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/observability"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/registry"
)

// ErrNilInstance indicates an activator returned no instance and no error.
var ErrNilInstance = errors.New("activator returned a nil instance")

// Coordinator fans events out to handlers.
// A Coordinator holds no per-raise state and is safe for concurrent use.
type Coordinator struct {
	activator registry.Activator
	cfg       coordinatorConfig
}

// New creates a Coordinator. A nil activator uses registry.FactoryActivator.
func New(activator registry.Activator, opts ...Option) *Coordinator {
	if activator == nil {
		activator = registry.FactoryActivator{}
	}
	cfg := defaultCoordinatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Coordinator{activator: activator, cfg: cfg}
}

// Dispatch invokes every descriptor for evt concurrently and waits for all
// of them. Descriptors are neither filtered nor reordered; Conditional
// handlers are asked CanHandle on their own instance.
//
// ctx is passed to the activator and to every handler method. Dispatch
// never cancels it and never enforces a deadline.
func (c *Coordinator) Dispatch(ctx context.Context, raiseID string, evt any, descriptors []registry.Descriptor) (out *Outcome) {
	startTime := time.Now()
	eventType := event.KeyOf(evt).String()
	logger := observability.EnrichLogger(c.cfg.logger, raiseID, eventType)

	observability.LogRaiseStart(logger, len(descriptors))

	execCtx := ctx
	var raiseSpan trace.Span
	if c.cfg.tracingEnabled {
		execCtx, raiseSpan = c.cfg.spans.StartRaiseSpan(ctx, raiseID, eventType)
		defer func() {
			c.cfg.spans.EndSpanWithError(raiseSpan, out.Err())
		}()
	}

	inv := invocation{
		raiseID:   raiseID,
		eventType: eventType,
		evt:       evt,
		logger:    logger,
	}

	results := make([]Result, len(descriptors))
	var wg sync.WaitGroup
	for i, d := range descriptors {
		wg.Add(1)
		go func(i int, d registry.Descriptor) {
			defer wg.Done()
			results[i] = c.invoke(execCtx, inv, d)
		}(i, d)
	}
	wg.Wait()

	out = &Outcome{
		RaiseID:   raiseID,
		EventType: eventType,
		Results:   results,
		Duration:  time.Since(startTime),
	}
	for _, r := range results {
		if r.Status == StatusFaulted {
			out.Faults = append(out.Faults, r.Err)
		}
	}

	durationMs := float64(out.Duration.Milliseconds())
	c.cfg.metrics.RecordRaise(ctx, eventType, len(descriptors), out.Success(), out.Duration)
	if out.Success() {
		observability.LogRaiseComplete(logger, durationMs,
			len(results)-out.Count(StatusSkipped), out.Count(StatusSkipped), out.Count(StatusRecovered))
	} else {
		observability.LogRaiseFaulted(logger, durationMs, len(out.Faults))
	}

	return out
}

// invocation is the per-raise data shared by every handler goroutine.
type invocation struct {
	raiseID   string
	eventType string
	evt       any
	logger    *slog.Logger
}

// invoke runs one descriptor and reports its result.
func (c *Coordinator) invoke(ctx context.Context, inv invocation, d registry.Descriptor) Result {
	startTime := time.Now()
	name := d.String()
	kind := d.Kind.String()

	handlerCtx := ctx
	var span trace.Span
	if c.cfg.tracingEnabled {
		handlerCtx, span = c.cfg.spans.StartHandlerSpan(ctx, name, kind)
	}

	status, stage, err := c.run(handlerCtx, inv.evt, d)
	res := Result{
		Handler:  name,
		Kind:     d.Kind,
		Status:   status,
		Err:      err,
		Duration: time.Since(startTime),
	}

	c.cfg.metrics.RecordHandler(ctx, inv.eventType, name, kind, status.String(), res.Duration)

	switch status {
	case StatusFaulted:
		observability.LogHandlerFault(inv.logger, name, kind, string(stage), err)
		c.cfg.metrics.RecordFault(ctx, inv.eventType, name, string(stage))
		c.record(inv, name, kind, stage, journal.StatusFaulted, err)
	case StatusRecovered:
		observability.LogHandlerRecovered(inv.logger, name, err)
		if c.cfg.recordRecovered {
			c.record(inv, name, kind, stage, journal.StatusRecovered, err)
		}
	case StatusSkipped:
		observability.LogHandlerSkipped(inv.logger, name)
		c.cfg.spans.AddSpanEvent(handlerCtx, "handler.skipped", attribute.String("handler.name", name))
	}

	if c.cfg.slowThreshold > 0 && res.Duration > c.cfg.slowThreshold {
		observability.LogSlowHandler(inv.logger, name, float64(res.Duration.Milliseconds()), c.cfg.slowThreshold)
	}

	if c.cfg.tracingEnabled {
		var spanErr error
		if status == StatusFaulted {
			spanErr = err
		}
		c.cfg.spans.EndSpanWithError(span, spanErr)
	}

	return res
}

// run activates the handler and drives its capability methods.
// It returns the final status, the stage the error came from, and the
// error: the fault for StatusFaulted or the absorbed failure for
// StatusRecovered.
func (c *Coordinator) run(ctx context.Context, evt any, d registry.Descriptor) (Status, Stage, error) {
	name := d.String()

	b, err := c.activate(ctx, d)
	if err != nil {
		return StatusFaulted, StageActivate, &ActivationError{Handler: name, Kind: d.Kind, Err: err}
	}

	if d.Kind == handler.KindConditional {
		accepted, err := canHandle(ctx, name, b, evt)
		if err != nil {
			return StatusFaulted, StageCanHandle, &HandlerFault{
				Handler: name, Kind: d.Kind, Stage: StageCanHandle, Err: err,
			}
		}
		if !accepted {
			return StatusSkipped, "", nil
		}
	}

	handleErr := guard(name, StageHandle, func() error { return b.Handle(ctx, evt) })
	if handleErr == nil {
		return StatusSucceeded, "", nil
	}

	gb, ok := b.(registry.GracefulBinding)
	if !ok || d.Kind != handler.KindGraceful {
		return StatusFaulted, StageHandle, &HandlerFault{
			Handler: name, Kind: d.Kind, Stage: StageHandle, Err: handleErr,
		}
	}

	excErr := guard(name, StageHandleException, func() error {
		return gb.HandleException(ctx, evt, handleErr)
	})
	if excErr != nil {
		return StatusFaulted, StageHandleException, &HandlerFault{
			Handler:  name,
			Kind:     d.Kind,
			Stage:    StageHandleException,
			Err:      excErr,
			Double:   true,
			Original: handleErr,
		}
	}
	return StatusRecovered, StageHandle, handleErr
}

// activate obtains a fresh instance and binds it to the descriptor's
// capability.
func (c *Coordinator) activate(ctx context.Context, d registry.Descriptor) (b registry.Binding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Handler: d.String(),
				Stage:   StageActivate,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()

	instance, err := c.activator.Activate(ctx, d)
	if err != nil {
		return nil, err
	}
	if isNil(instance) {
		return nil, ErrNilInstance
	}
	return d.Bind(instance)
}

// canHandle asks a Conditional handler whether it accepts evt.
func canHandle(ctx context.Context, name string, b registry.Binding, evt any) (accepted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			accepted = false
			err = &PanicError{
				Handler: name,
				Stage:   StageCanHandle,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()
	return b.CanHandle(ctx, evt), nil
}

// guard calls fn and converts a panic into a *PanicError.
func guard(name string, stage Stage, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Handler: name,
				Stage:   stage,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()
	return fn()
}

// record writes a journal entry. Failures and panics are logged only.
func (c *Coordinator) record(inv invocation, name, kind string, stage Stage, status string, err error) {
	if c.cfg.journal == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LogJournalError(inv.logger, name, fmt.Errorf("record %s fault: panic: %v", status, r))
		}
	}()
	entry := journal.Entry{
		RaiseID:   inv.raiseID,
		EventType: inv.eventType,
		Handler:   name,
		Kind:      kind,
		Stage:     string(stage),
		Status:    status,
		Message:   err.Error(),
		Payload:   journal.Snapshot(inv.evt),
	}
	if jerr := c.cfg.journal.Record(entry); jerr != nil {
		observability.LogJournalError(inv.logger, name, fmt.Errorf("record %s fault: %w", status, jerr))
	}
}

// isNil reports whether v is nil or a typed nil pointer, map, slice,
// channel, function or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
