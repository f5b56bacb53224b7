package dispatch

import (
	"time"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/handler"
)

// Status is the final state of one handler within a raise.
type Status int

// Handler statuses.
const (
	// StatusSucceeded means Handle returned without error.
	StatusSucceeded Status = iota
	// StatusRecovered means a Graceful handler absorbed its own failure.
	StatusRecovered
	// StatusSkipped means a Conditional handler declined the event.
	StatusSkipped
	// StatusFaulted means the handler's failure surfaces in the outcome.
	StatusFaulted
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusRecovered:
		return "recovered"
	case StatusSkipped:
		return "skipped"
	case StatusFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Result records what happened to one handler.
type Result struct {
	// Handler is the descriptor name ("kind:name").
	Handler string
	// Kind is the capability the handler was registered under.
	Kind handler.Kind
	// Status is the handler's final state.
	Status Status
	// Err is the fault for StatusFaulted, or the absorbed failure for
	// StatusRecovered. Nil otherwise.
	Err error
	// Duration covers activation and every capability call.
	Duration time.Duration
}

// Outcome is the aggregate result of one raise.
type Outcome struct {
	// RaiseID identifies the raise.
	RaiseID string
	// EventType is the event's type name.
	EventType string
	// Results holds one entry per resolved handler, in resolution order.
	Results []Result
	// Faults holds every fault, in resolution order.
	Faults []error
	// Duration covers the whole raise.
	Duration time.Duration
}

// Success reports whether no fault surfaced.
func (o *Outcome) Success() bool {
	return len(o.Faults) == 0
}

// Err returns a *FaultError carrying every fault, or nil on success.
func (o *Outcome) Err() error {
	if o.Success() {
		return nil
	}
	return &FaultError{
		RaiseID:   o.RaiseID,
		EventType: o.EventType,
		Faults:    o.Faults,
	}
}

// Count returns how many handlers ended with the given status.
func (o *Outcome) Count(s Status) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

// Result returns the first result for the named handler ("kind:name").
// A handler type registered more than once without WithName shares one
// name across its registrations; use ResultsFor to see all of them.
func (o *Outcome) Result(name string) (Result, bool) {
	for _, r := range o.Results {
		if r.Handler == name {
			return r, true
		}
	}
	return Result{}, false
}

// ResultsFor returns every result for the named handler.
func (o *Outcome) ResultsFor(name string) []Result {
	var out []Result
	for _, r := range o.Results {
		if r.Handler == name {
			out = append(out, r)
		}
	}
	return out
}
