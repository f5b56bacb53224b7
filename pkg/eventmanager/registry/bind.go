package registry

import (
	"context"
	"fmt"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/event"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/handler"
)

// Binding is a type-erased view of an activated handler instance.
//
// CanHandle is only meaningful for Conditional handlers; every other kind
// reports true.
type Binding interface {
	CanHandle(ctx context.Context, evt any) bool
	Handle(ctx context.Context, evt any) error
}

// GracefulBinding is the Binding of a Graceful handler.
type GracefulBinding interface {
	Binding
	HandleException(ctx context.Context, evt any, err error) error
}

type directBinding[E any] struct {
	h handler.Direct[E]
}

func (b directBinding[E]) CanHandle(context.Context, any) bool { return true }

func (b directBinding[E]) Handle(ctx context.Context, evt any) error {
	e, err := castEvent[E](evt)
	if err != nil {
		return err
	}
	return b.h.Handle(ctx, e)
}

type gracefulBinding[E any] struct {
	h handler.Graceful[E]
}

func (b gracefulBinding[E]) CanHandle(context.Context, any) bool { return true }

func (b gracefulBinding[E]) Handle(ctx context.Context, evt any) error {
	e, err := castEvent[E](evt)
	if err != nil {
		return err
	}
	return b.h.Handle(ctx, e)
}

func (b gracefulBinding[E]) HandleException(ctx context.Context, evt any, cause error) error {
	e, err := castEvent[E](evt)
	if err != nil {
		return err
	}
	return b.h.HandleException(ctx, e, cause)
}

type conditionalBinding struct {
	h handler.Conditional
}

func (b conditionalBinding) CanHandle(ctx context.Context, evt any) bool {
	return b.h.CanHandle(ctx, evt)
}

func (b conditionalBinding) Handle(ctx context.Context, evt any) error {
	return b.h.Handle(ctx, evt)
}

type conventionBinding struct {
	h handler.Convention
}

func (b conventionBinding) CanHandle(context.Context, any) bool { return true }

func (b conventionBinding) Handle(ctx context.Context, evt any) error {
	return b.h.Handle(ctx, evt)
}

// castEvent guards against descriptors used outside Resolve.
func castEvent[E any](evt any) (E, error) {
	e, ok := evt.(E)
	if !ok {
		var zero E
		return zero, fmt.Errorf("event %s does not match handler event type %s",
			event.KeyOf(evt), event.KeyFor[E]())
	}
	return e, nil
}

// Compile-time interface checks.
var (
	_ GracefulBinding = gracefulBinding[struct{}]{}
	_ Binding         = directBinding[struct{}]{}
	_ Binding         = conditionalBinding{}
	_ Binding         = conventionBinding{}
)
