/*
Package eventmanager raises in-process events to registered handlers.

# Overview

An event is any Go value. Handlers are registered for events at startup
and, when an event is raised, every applicable handler runs concurrently on
its own fresh instance. Raise returns only after all of them have finished,
with an Outcome that reports every fault rather than the first one.

Handlers come in four kinds (see package handler):

  - Direct: handles one event type. Its errors fail the raise.
  - Graceful: handles one event type and receives its own errors through
    HandleException. A raise only fails if HandleException fails too.
  - Conditional: offered every event. CanHandle decides per event; a
    declined event is skipped and does not affect the outcome.
  - Convention: receives every event.

# Basic Usage

	type OrderPlaced struct{ ID string }

	reg := registry.New()
	registry.AddDirect[OrderPlaced](reg, func(ctx context.Context) (handler.DirectFunc[OrderPlaced], error) {
	    return func(ctx context.Context, e OrderPlaced) error {
	        return reserveStock(ctx, e.ID)
	    }, nil
	}, registry.WithName("reserve-stock"))

	m, err := eventmanager.New(reg)
	if err != nil {
	    log.Fatal(err)
	}

	out, err := m.Raise(ctx, OrderPlaced{ID: "o-1"})
	if err != nil {
	    // err is a *dispatch.FaultError; errors.Is/As see every fault
	}
	for _, r := range out.Results {
	    fmt.Println(r.Handler, r.Status)
	}

# Matching

Direct and Graceful handlers match the event's exact dynamic type. A
handler registered for OrderPlaced does not see *OrderPlaced and vice
versa. Conditional and Convention handlers see every event.

# Error Handling

Every fault is one of:

  - *dispatch.ActivationError: the handler instance could not be built.
    This is a fault even for Graceful handlers.
  - *dispatch.HandlerFault: a handler returned an error or panicked. For a
    Graceful handler whose HandleException also failed, Double is true and
    both errors are reachable with errors.Is.

Panics in handler code are recovered into *dispatch.PanicError with the
stack attached.

# Observability

Logging uses log/slog (slog.Default() unless WithLogger is given).
OpenTelemetry metrics and spans are opt-in via WithMetrics and WithTracing.
A fault journal (WithJournal, or WithSettings with a journal driver)
records every fault with its raise ID for later inspection. The journal is
diagnostic only; nothing is redelivered.

# Configuration

Settings can be loaded from YAML, JSON or EVENTMANAGER_* environment
variables (see package config) and applied with WithSettings:

	settings, err := config.SettingsFromEnv()
	if err != nil {
	    log.Fatal(err)
	}
	m, err := eventmanager.New(reg, eventmanager.WithSettings(settings))
	if err != nil {
	    log.Fatal(err)
	}
	defer m.Close()

# Cancellation

The context given to Raise reaches the activator and every handler method.
Handlers honor it themselves; the manager never cancels a handler and
enforces no deadline.
*/
package eventmanager
