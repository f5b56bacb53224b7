package dispatch

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/handler"
)

// Stage names the capability method a fault came from.
type Stage string

// Fault stages.
const (
	StageActivate        Stage = "activate"
	StageHandle          Stage = "handle"
	StageCanHandle       Stage = "can_handle"
	StageHandleException Stage = "handle_exception"
)

// ActivationError reports that no usable instance could be obtained for a
// handler. It is always a fault, even for Graceful handlers, since there is
// no instance to receive HandleException.
type ActivationError struct {
	// Handler is the descriptor name ("kind:name").
	Handler string
	// Kind is the capability the handler was registered under.
	Kind handler.Kind
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate %s: %v", e.Handler, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ActivationError) Unwrap() error {
	return e.Err
}

// HandlerFault is an error or panic raised by a handler that was not
// absorbed by the handler itself.
type HandlerFault struct {
	// Handler is the descriptor name ("kind:name").
	Handler string
	// Kind is the capability the handler was registered under.
	Kind handler.Kind
	// Stage is the method that failed.
	Stage Stage
	// Err is the underlying error. For a double fault this is the error
	// returned by HandleException.
	Err error
	// Double is true when a Graceful handler's HandleException failed
	// while processing its own Handle failure.
	Double bool
	// Original is the Handle failure that HandleException was given.
	// Only set when Double is true.
	Original error
}

// Error implements the error interface.
func (e *HandlerFault) Error() string {
	if e.Double {
		return fmt.Sprintf("handler %s: %s failed (%v) while handling: %v",
			e.Handler, e.Stage, e.Err, e.Original)
	}
	return fmt.Sprintf("handler %s: %s: %v", e.Handler, e.Stage, e.Err)
}

// Unwrap exposes both errors of a double fault to errors.Is/As.
func (e *HandlerFault) Unwrap() []error {
	if e.Double && e.Original != nil {
		return []error{e.Err, e.Original}
	}
	return []error{e.Err}
}

// PanicError captures a panic from handler code.
// It includes the stack trace for debugging.
type PanicError struct {
	// Handler is the descriptor name ("kind:name").
	Handler string
	// Stage is the method that panicked.
	Stage Stage
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s panicked in %s: %v", e.Handler, e.Stage, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// FaultError aggregates every fault of one raise.
type FaultError struct {
	// RaiseID identifies the raise.
	RaiseID string
	// EventType is the event's type name.
	EventType string
	// Faults holds one ActivationError or HandlerFault per failed handler.
	Faults []error
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "raise %s of %s: %d handler fault", e.RaiseID, e.EventType, len(e.Faults))
	if len(e.Faults) != 1 {
		b.WriteString("s")
	}
	for _, f := range e.Faults {
		b.WriteString("\n\t")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes every fault to errors.Is/As.
func (e *FaultError) Unwrap() []error {
	return e.Faults
}
