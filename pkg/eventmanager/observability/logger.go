// Package observability provides structured logging, metrics and tracing
// for event dispatch.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every logging helper accepts a nil logger and does nothing with it.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds raise context to a logger.
// Returns a new logger with raise_id and event_type fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "4b7c...", "orders.Placed")
//	enriched.Info("dispatching") // includes raise_id, event_type
func EnrichLogger(logger *slog.Logger, raiseID, eventType string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("raise_id", raiseID),
		slog.String("event_type", eventType),
	)
}

// LogRaiseStart logs the start of a raise.
func LogRaiseStart(logger *slog.Logger, handlers int) {
	if logger == nil {
		return
	}
	logger.Debug("raise starting",
		slog.Int("handlers", handlers),
	)
}

// LogRaiseComplete logs a raise in which every applicable handler succeeded.
func LogRaiseComplete(logger *slog.Logger, durationMs float64, invoked, skipped, recovered int) {
	if logger == nil {
		return
	}
	logger.Debug("raise completed",
		slog.Float64("duration_ms", durationMs),
		slog.Int("invoked", invoked),
		slog.Int("skipped", skipped),
		slog.Int("recovered", recovered),
	)
}

// LogRaiseFaulted logs a raise that ended with unrecovered faults.
func LogRaiseFaulted(logger *slog.Logger, durationMs float64, faults int) {
	if logger == nil {
		return
	}
	logger.Error("raise faulted",
		slog.Float64("duration_ms", durationMs),
		slog.Int("faults", faults),
	)
}

// LogHandlerFault logs a handler fault that surfaces in the outcome.
func LogHandlerFault(logger *slog.Logger, handler, kind, stage string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler faulted",
		slog.String("handler", handler),
		slog.String("kind", kind),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// LogHandlerRecovered logs a graceful handler that absorbed its own fault.
func LogHandlerRecovered(logger *slog.Logger, handler string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("handler fault recovered",
		slog.String("handler", handler),
		slog.String("error", err.Error()),
	)
}

// LogHandlerSkipped logs a conditional handler that declined the event.
func LogHandlerSkipped(logger *slog.Logger, handler string) {
	if logger == nil {
		return
	}
	logger.Debug("handler skipped",
		slog.String("handler", handler),
	)
}

// LogSlowHandler logs a handler that ran longer than the configured threshold.
func LogSlowHandler(logger *slog.Logger, handler string, durationMs float64, threshold time.Duration) {
	if logger == nil {
		return
	}
	logger.Warn("slow handler",
		slog.String("handler", handler),
		slog.Float64("duration_ms", durationMs),
		slog.Duration("threshold", threshold),
	)
}

// LogJournalError logs a failure to record a fault (non-fatal).
func LogJournalError(logger *slog.Logger, handler string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("fault journal write failed",
		slog.String("handler", handler),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
