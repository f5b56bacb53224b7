// Package journal records dispatch faults for later inspection.
//
// The journal is diagnostic only. Nothing in it is ever redelivered, and a
// failure to write an entry never changes the outcome of a raise.
package journal

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Journal stores fault entries.
// Implementations must be safe for concurrent use.
type Journal interface {
	// Record stores an entry. A missing ID or RecordedAt is filled in.
	Record(e Entry) error

	// List returns up to limit entries, newest first.
	// A limit of zero or less returns every entry.
	List(limit int) ([]Entry, error)

	// ListByRaise returns the entries of one raise in the order they were
	// recorded. Returns an empty slice (not error) for an unknown raise.
	ListByRaise(raiseID string) ([]Entry, error)

	// Count returns the number of stored entries.
	Count() (int, error)

	// CountByHandler returns the number of stored entries per handler name.
	CountByHandler() (map[string]int, error)

	// Purge deletes entries recorded before the given time and returns how
	// many were removed.
	Purge(before time.Time) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Entry is one recorded fault.
type Entry struct {
	ID         string
	RaiseID    string
	EventType  string
	Handler    string
	Kind       string
	Stage      string
	Status     string // "faulted" or "recovered"
	Message    string
	Payload    []byte // JSON snapshot of the event, nil when not encodable
	RecordedAt time.Time
}

// Entry statuses.
const (
	StatusFaulted   = "faulted"
	StatusRecovered = "recovered"
)

// ErrClosed indicates the journal has been closed.
var ErrClosed = errors.New("fault journal closed")

// Snapshot returns a best-effort JSON encoding of evt, or nil. A panic
// raised while encoding evt also yields nil.
func Snapshot(evt any) (data []byte) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
		}
	}()
	data, err := json.Marshal(evt)
	if err != nil {
		return nil
	}
	return data
}

// normalize fills in the generated fields of an entry.
func normalize(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	return e
}
