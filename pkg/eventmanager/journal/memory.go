package journal

import (
	"sync"
	"time"
)

// MemoryJournal is an in-memory journal.
// Data is lost when the process exits.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
	closed  bool
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Record implements Journal.
func (m *MemoryJournal) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.entries = append(m.entries, clone(normalize(e)))
	return nil
}

// List implements Journal.
func (m *MemoryJournal) List(limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, clone(m.entries[i]))
	}
	return out, nil
}

// ListByRaise implements Journal.
func (m *MemoryJournal) ListByRaise(raiseID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	out := []Entry{}
	for _, e := range m.entries {
		if e.RaiseID == raiseID {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

// Count implements Journal.
func (m *MemoryJournal) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	return len(m.entries), nil
}

// CountByHandler implements Journal.
func (m *MemoryJournal) CountByHandler() (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	counts := make(map[string]int)
	for _, e := range m.entries {
		counts[e.Handler]++
	}
	return counts, nil
}

// Purge implements Journal.
func (m *MemoryJournal) Purge(before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	kept := m.entries[:0]
	for _, e := range m.entries {
		if !e.RecordedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	removed := len(m.entries) - len(kept)
	m.entries = kept
	return removed, nil
}

// Close implements Journal.
func (m *MemoryJournal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}

// clone returns e with its own copy of Payload.
func clone(e Entry) Entry {
	if e.Payload != nil {
		e.Payload = append([]byte(nil), e.Payload...)
	}
	return e
}

// Compile-time interface check.
var _ Journal = (*MemoryJournal)(nil)
