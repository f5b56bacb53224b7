// Package registry holds the registration set and resolves handlers for
// raised events.
//
// Handlers are registered explicitly at startup, each with a factory that
// builds a fresh instance per raise:
//
//	reg := registry.New()
//	registry.AddDirect[orders.Placed](reg, func(ctx context.Context) (*EmailReceipt, error) {
//	    return &EmailReceipt{mailer: mailer}, nil
//	})
//	registry.AddConvention(reg, func(ctx context.Context) (*AuditLog, error) {
//	    return &AuditLog{sink: sink}, nil
//	})
//	reg.Seal()
//
// Direct and Graceful handlers are keyed by their event type. Conditional
// and Convention handlers are global and come back from every Resolve call.
//
// # Resolution
//
// Resolve returns, for an event key:
//
//  1. every Direct and Graceful handler registered for exactly that key,
//  2. every Conditional handler (CanHandle is evaluated later, against a
//     live instance),
//  3. every Convention handler.
//
// Resolution does no I/O and has no side effects. Given the same
// registrations it always returns the same descriptors. Callers must not
// depend on their order.
//
// # Activation
//
// An Activator turns a Descriptor into a live handler instance. The default
// FactoryActivator calls the factory given at registration. Applications
// with their own container can supply an ActivatorFunc instead.
//
// # Sealing
//
// Registration is a bootstrap activity. Seal freezes the set; later
// registrations fail with ErrSealed. The registry is safe for concurrent
// use either way.
package registry
