// Package event identifies event types for dispatch.
//
// Events are plain Go values. The dispatcher never looks inside them; it
// only needs a stable identifier for their dynamic type so that handlers
// registered for that type can be found. Key is that identifier.
package event

import "reflect"

// Key identifies an event type. Two events share a Key exactly when they
// have the same dynamic Go type, so Ping and *Ping are different keys.
//
// The zero Key identifies no type and is returned for nil events.
type Key struct {
	t reflect.Type
}

// KeyOf returns the Key for the dynamic type of evt.
func KeyOf(evt any) Key {
	return Key{t: reflect.TypeOf(evt)}
}

// KeyFor returns the Key for type E.
func KeyFor[E any]() Key {
	return Key{t: reflect.TypeFor[E]()}
}

// IsZero reports whether k identifies no type.
func (k Key) IsZero() bool {
	return k.t == nil
}

// IsInterface reports whether k names an interface type. No event value
// can ever have an interface as its dynamic type, so handlers keyed by one
// would never run.
func (k Key) IsInterface() bool {
	return k.t != nil && k.t.Kind() == reflect.Interface
}

// Type returns the underlying reflect.Type, or nil for the zero Key.
func (k Key) Type() reflect.Type {
	return k.t
}

// String returns the Go type name, e.g. "orders.Placed" or "*orders.Placed".
func (k Key) String() string {
	if k.t == nil {
		return "<nil>"
	}
	return k.t.String()
}
