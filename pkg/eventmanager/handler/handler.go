// Package handler defines the capabilities an event handler may implement.
//
// There are four, and a single type may implement several of them:
//
//   - Direct handles one event type; its errors fail the raise.
//   - Graceful handles one event type and receives its own errors through
//     HandleException, so they never fail the raise.
//   - Conditional sees every event and opts in per event via CanHandle.
//   - Convention sees every event unconditionally.
//
// Direct and Graceful are generic over their event type, which fixes the
// type they are resolved against. Conditional and Convention receive the
// event boxed as any.
//
// A returned error is the handler's fault. Panics are recovered by the
// dispatcher and treated the same way.
package handler

import "context"

// Kind names a handler capability.
type Kind int

const (
	// KindDirect is a Direct handler.
	KindDirect Kind = iota

	// KindGraceful is a Graceful handler.
	KindGraceful

	// KindConditional is a Conditional handler.
	KindConditional

	// KindConvention is a Convention handler.
	KindConvention
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindGraceful:
		return "graceful"
	case KindConditional:
		return "conditional"
	case KindConvention:
		return "convention"
	default:
		return "unknown"
	}
}

// Global reports whether handlers of this kind are evaluated against every
// raised event rather than registered for one event type.
func (k Kind) Global() bool {
	return k == KindConditional || k == KindConvention
}

// Direct handles events of exactly type E.
type Direct[E any] interface {
	Handle(ctx context.Context, evt E) error
}

// Graceful handles events of exactly type E and recovers its own faults.
//
// When Handle returns an error (or panics), HandleException is called on the
// same instance with the same event and that error. If HandleException
// returns nil the fault is absorbed. If it fails too, the dispatcher reports
// a double fault.
type Graceful[E any] interface {
	Direct[E]
	HandleException(ctx context.Context, evt E, err error) error
}

// Conditional is offered every raised event and handles those it accepts.
type Conditional interface {
	CanHandle(ctx context.Context, evt any) bool
	Handle(ctx context.Context, evt any) error
}

// Convention handles every raised event.
type Convention interface {
	Handle(ctx context.Context, evt any) error
}

// DirectFunc adapts a function to the Direct interface.
type DirectFunc[E any] func(ctx context.Context, evt E) error

// Handle implements Direct.
func (f DirectFunc[E]) Handle(ctx context.Context, evt E) error {
	return f(ctx, evt)
}

// GracefulFuncs adapts a pair of functions to the Graceful interface.
// A nil OnException absorbs every fault.
type GracefulFuncs[E any] struct {
	OnHandle    func(ctx context.Context, evt E) error
	OnException func(ctx context.Context, evt E, err error) error
}

// Handle implements Graceful.
func (g GracefulFuncs[E]) Handle(ctx context.Context, evt E) error {
	if g.OnHandle == nil {
		return nil
	}
	return g.OnHandle(ctx, evt)
}

// HandleException implements Graceful.
func (g GracefulFuncs[E]) HandleException(ctx context.Context, evt E, err error) error {
	if g.OnException == nil {
		return nil
	}
	return g.OnException(ctx, evt, err)
}

// ConditionalFuncs adapts a predicate and a function to the Conditional
// interface. A nil Accept rejects every event.
type ConditionalFuncs struct {
	Accept   func(ctx context.Context, evt any) bool
	OnHandle func(ctx context.Context, evt any) error
}

// CanHandle implements Conditional.
func (c ConditionalFuncs) CanHandle(ctx context.Context, evt any) bool {
	if c.Accept == nil {
		return false
	}
	return c.Accept(ctx, evt)
}

// Handle implements Conditional.
func (c ConditionalFuncs) Handle(ctx context.Context, evt any) error {
	if c.OnHandle == nil {
		return nil
	}
	return c.OnHandle(ctx, evt)
}

// ConventionFunc adapts a function to the Convention interface.
type ConventionFunc func(ctx context.Context, evt any) error

// Handle implements Convention.
func (f ConventionFunc) Handle(ctx context.Context, evt any) error {
	return f(ctx, evt)
}

// Compile-time interface checks.
var (
	_ Direct[struct{}]   = DirectFunc[struct{}](nil)
	_ Graceful[struct{}] = GracefulFuncs[struct{}]{}
	_ Conditional        = ConditionalFuncs{}
	_ Convention         = ConventionFunc(nil)
)
