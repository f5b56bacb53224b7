package registry

import "context"

// Activator turns a descriptor into a live handler instance.
//
// Implementations must return a new instance, or one they know to be safe
// to use for a single raise. The dispatcher never caches what it gets back.
type Activator interface {
	Activate(ctx context.Context, d Descriptor) (any, error)
}

// ActivatorFunc adapts a function to the Activator interface.
type ActivatorFunc func(ctx context.Context, d Descriptor) (any, error)

// Activate implements Activator.
func (f ActivatorFunc) Activate(ctx context.Context, d Descriptor) (any, error) {
	return f(ctx, d)
}

// FactoryActivator activates handlers by calling the factory they were
// registered with.
type FactoryActivator struct{}

// Activate implements Activator.
func (FactoryActivator) Activate(ctx context.Context, d Descriptor) (any, error) {
	if d.Factory == nil {
		return nil, ErrNilFactory
	}
	return d.Factory(ctx)
}

// Compile-time interface checks.
var (
	_ Activator = FactoryActivator{}
	_ Activator = ActivatorFunc(nil)
)
