package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteJournal persists fault entries to SQLite.
// It is suitable for single-process production use.
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteJournal opens (or creates) a journal database.
// The path should be a file path (e.g., "./faults.db") or ":memory:" for testing.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS faults (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			raise_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			handler TEXT NOT NULL,
			kind TEXT NOT NULL,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			payload BLOB,
			recorded_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_faults_raise_id
		ON faults(raise_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Record implements Journal.
func (s *SQLiteJournal) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	e = normalize(e)
	_, err := s.db.Exec(`
		INSERT INTO faults (id, raise_id, event_type, handler, kind, stage, status, message, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.RaiseID, e.EventType, e.Handler, e.Kind, e.Stage, e.Status, e.Message, e.Payload,
		e.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record fault: %w", err)
	}
	return nil
}

const selectEntry = `
	SELECT id, raise_id, event_type, handler, kind, stage, status, message, payload, recorded_at
	FROM faults`

// List implements Journal.
func (s *SQLiteJournal) List(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(selectEntry+` ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list faults: %w", err)
	}
	return scanEntries(rows)
}

// ListByRaise implements Journal.
func (s *SQLiteJournal) ListByRaise(raiseID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(selectEntry+` WHERE raise_id = ? ORDER BY seq`, raiseID)
	if err != nil {
		return nil, fmt.Errorf("list raise faults: %w", err)
	}
	return scanEntries(rows)
}

// Count implements Journal.
func (s *SQLiteJournal) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM faults`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count faults: %w", err)
	}
	return n, nil
}

// CountByHandler implements Journal.
func (s *SQLiteJournal) CountByHandler() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(`SELECT handler, COUNT(*) FROM faults GROUP BY handler`)
	if err != nil {
		return nil, fmt.Errorf("count faults by handler: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan handler count: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handler counts: %w", err)
	}
	return counts, nil
}

// Purge implements Journal.
func (s *SQLiteJournal) Purge(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	res, err := s.db.Exec(`DELETE FROM faults WHERE recorded_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge faults: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge faults: %w", err)
	}
	return int(n), nil
}

// Close implements Journal.
func (s *SQLiteJournal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var recordedAt int64
		if err := rows.Scan(&e.ID, &e.RaiseID, &e.EventType, &e.Handler, &e.Kind,
			&e.Stage, &e.Status, &e.Message, &e.Payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan fault: %w", err)
		}
		e.RecordedAt = time.Unix(0, recordedAt).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faults: %w", err)
	}
	return entries, nil
}

// Compile-time interface check.
var _ Journal = (*SQLiteJournal)(nil)
