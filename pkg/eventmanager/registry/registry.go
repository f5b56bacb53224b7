package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/event"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/handler"
)

// Sentinel errors for registration.
var (
	// ErrSealed indicates a registration after Seal.
	ErrSealed = errors.New("registry is sealed")

	// ErrNilFactory indicates a registration without a factory.
	ErrNilFactory = errors.New("handler factory is nil")

	// ErrInterfaceEvent indicates a Direct or Graceful registration for an
	// interface event type, which no raised event can ever match.
	ErrInterfaceEvent = errors.New("event type must be a concrete type")

	// ErrCapabilityMismatch indicates an activated instance does not
	// implement the capability its descriptor was registered under.
	ErrCapabilityMismatch = errors.New("instance does not implement handler capability")
)

// Factory builds a handler instance.
type Factory func(ctx context.Context) (any, error)

// Descriptor describes one registered handler: which type it is, which
// capability it was registered under, and for which event type.
type Descriptor struct {
	// Name identifies the handler in logs, spans, metrics and the journal.
	// Defaults to the handler's Go type name.
	Name string

	// HandlerType is the Go type produced by the factory.
	HandlerType reflect.Type

	// Kind is the capability the handler was registered under.
	Kind handler.Kind

	// Event is the event key for Direct and Graceful handlers. It is the
	// zero Key for Conditional and Convention handlers.
	Event event.Key

	// Factory builds a new instance. Used by FactoryActivator.
	Factory Factory

	bind func(instance any) (Binding, error)
}

// String returns "kind:name".
func (d Descriptor) String() string {
	return d.Kind.String() + ":" + d.Name
}

// Bind checks that instance implements the descriptor's capability and
// returns a type-erased view of it.
func (d Descriptor) Bind(instance any) (Binding, error) {
	if d.bind == nil {
		return nil, fmt.Errorf("descriptor %s was not built by a registry", d)
	}
	return d.bind(instance)
}

// Option configures a registration.
type Option func(*Descriptor)

// WithName overrides the handler name used for observability.
func WithName(name string) Option {
	return func(d *Descriptor) {
		if name != "" {
			d.Name = name
		}
	}
}

// Registry is the registration set: Direct and Graceful handlers by event
// type, plus the global Conditional and Convention handlers.
type Registry struct {
	mu           sync.RWMutex
	byEvent      map[event.Key][]Descriptor
	conditionals []Descriptor
	conventions  []Descriptor
	sealed       bool
}

// New creates an empty, unsealed registry.
func New() *Registry {
	return &Registry{
		byEvent: make(map[event.Key][]Descriptor),
	}
}

// AddDirect registers a Direct handler for events of type E.
func AddDirect[E any, H handler.Direct[E]](r *Registry, factory func(context.Context) (H, error), opts ...Option) error {
	if err := checkEventType[E](); err != nil {
		return err
	}
	d, err := newDescriptor(handler.KindDirect, event.KeyFor[E](), factory, opts)
	if err != nil {
		return err
	}
	d.bind = func(instance any) (Binding, error) {
		h, ok := instance.(handler.Direct[E])
		if !ok {
			return nil, mismatch(d, instance)
		}
		return directBinding[E]{h: h}, nil
	}
	return r.add(d)
}

// AddGraceful registers a Graceful handler for events of type E.
func AddGraceful[E any, H handler.Graceful[E]](r *Registry, factory func(context.Context) (H, error), opts ...Option) error {
	if err := checkEventType[E](); err != nil {
		return err
	}
	d, err := newDescriptor(handler.KindGraceful, event.KeyFor[E](), factory, opts)
	if err != nil {
		return err
	}
	d.bind = func(instance any) (Binding, error) {
		h, ok := instance.(handler.Graceful[E])
		if !ok {
			return nil, mismatch(d, instance)
		}
		return gracefulBinding[E]{h: h}, nil
	}
	return r.add(d)
}

// AddConditional registers a Conditional handler offered every event.
func AddConditional[H handler.Conditional](r *Registry, factory func(context.Context) (H, error), opts ...Option) error {
	d, err := newDescriptor(handler.KindConditional, event.Key{}, factory, opts)
	if err != nil {
		return err
	}
	d.bind = func(instance any) (Binding, error) {
		h, ok := instance.(handler.Conditional)
		if !ok {
			return nil, mismatch(d, instance)
		}
		return conditionalBinding{h: h}, nil
	}
	return r.add(d)
}

// AddConvention registers a Convention handler that receives every event.
func AddConvention[H handler.Convention](r *Registry, factory func(context.Context) (H, error), opts ...Option) error {
	d, err := newDescriptor(handler.KindConvention, event.Key{}, factory, opts)
	if err != nil {
		return err
	}
	d.bind = func(instance any) (Binding, error) {
		h, ok := instance.(handler.Convention)
		if !ok {
			return nil, mismatch(d, instance)
		}
		return conventionBinding{h: h}, nil
	}
	return r.add(d)
}

func checkEventType[E any]() error {
	if key := event.KeyFor[E](); key.IsInterface() {
		return fmt.Errorf("%w: %s", ErrInterfaceEvent, key)
	}
	return nil
}

func newDescriptor[H any](kind handler.Kind, key event.Key, factory func(context.Context) (H, error), opts []Option) (Descriptor, error) {
	ht := reflect.TypeFor[H]()
	if factory == nil {
		return Descriptor{}, fmt.Errorf("%w: %s handler %s", ErrNilFactory, kind, ht)
	}

	d := Descriptor{
		Name:        ht.String(),
		HandlerType: ht,
		Kind:        kind,
		Event:       key,
		Factory: func(ctx context.Context) (any, error) {
			h, err := factory(ctx)
			if err != nil {
				return nil, err
			}
			return h, nil
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d, nil
}

func mismatch(d Descriptor, instance any) error {
	if d.Kind.Global() {
		return fmt.Errorf("%w: %T is not a %s handler", ErrCapabilityMismatch, instance, d.Kind)
	}
	return fmt.Errorf("%w: %T is not a %s handler for %s", ErrCapabilityMismatch, instance, d.Kind, d.Event)
}

func (r *Registry) add(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s: %w", d, ErrSealed)
	}

	switch d.Kind {
	case handler.KindConditional:
		r.conditionals = append(r.conditionals, d)
	case handler.KindConvention:
		r.conventions = append(r.conventions, d)
	default:
		r.byEvent[d.Event] = append(r.byEvent[d.Event], d)
	}
	return nil
}

// Seal freezes the registration set. It is safe to call more than once.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Resolve returns every descriptor applicable to events with the given key.
// The returned slice is owned by the caller. An empty result is not an
// error.
func (r *Registry) Resolve(key event.Key) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.byEvent[key]
	out := make([]Descriptor, 0, len(typed)+len(r.conditionals)+len(r.conventions))
	out = append(out, typed...)
	out = append(out, r.conditionals...)
	out = append(out, r.conventions...)
	return out
}

// Keys returns the event keys that have Direct or Graceful handlers.
// The order is not guaranteed.
func (r *Registry) Keys() []event.Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]event.Key, 0, len(r.byEvent))
	for k := range r.byEvent {
		keys = append(keys, k)
	}
	return keys
}

// Globals returns the Conditional and Convention descriptors.
func (r *Registry) Globals() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.conditionals)+len(r.conventions))
	out = append(out, r.conditionals...)
	out = append(out, r.conventions...)
	return out
}

// Len returns the total number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

// Range calls fn for every registered descriptor until fn returns false.
// It iterates over a snapshot, so fn may call back into the registry.
func (r *Registry) Range(fn func(Descriptor) bool) {
	r.mu.RLock()
	snapshot := make([]Descriptor, 0, r.lenLocked())
	for _, ds := range r.byEvent {
		snapshot = append(snapshot, ds...)
	}
	snapshot = append(snapshot, r.conditionals...)
	snapshot = append(snapshot, r.conventions...)
	r.mu.RUnlock()

	for _, d := range snapshot {
		if !fn(d) {
			return
		}
	}
}

func (r *Registry) lenLocked() int {
	n := len(r.conditionals) + len(r.conventions)
	for _, ds := range r.byEvent {
		n += len(ds)
	}
	return n
}
