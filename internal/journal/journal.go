// Package journal persists per-signal execution outcomes so a signal is
// never reported twice, even across connector restarts.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Outcome records how the connector disposed of one signal. Delivered marks
// that the backend acknowledged the status report; an undelivered outcome is
// resent on the next cycle but the signal is never executed again.
type Outcome struct {
	SignalID   int64
	Status     string
	Message    string
	Ticket     int64
	Delivered  bool
	ReportedAt time.Time
}

// Store is a SQLite-backed outcome journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path. ":memory:" yields an
// ephemeral journal for tests and dry runs.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_outcomes (
			signal_id INTEGER PRIMARY KEY,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			ticket INTEGER NOT NULL DEFAULT 0,
			delivered INTEGER NOT NULL DEFAULT 0,
			reported_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create signal_outcomes table: %w", err)
	}
	return &Store{db: db}, nil
}

// Seen reports whether the signal already has a recorded outcome.
func (s *Store) Seen(signalID int64) (bool, error) {
	_, ok, err := s.Get(signalID)
	return ok, err
}

// Get returns the recorded outcome for a signal, if any.
func (s *Store) Get(signalID int64) (Outcome, bool, error) {
	var o Outcome
	var delivered int
	var ts int64
	err := s.db.QueryRow(
		"SELECT signal_id, status, message, ticket, delivered, reported_at FROM signal_outcomes WHERE signal_id = ?",
		signalID,
	).Scan(&o.SignalID, &o.Status, &o.Message, &o.Ticket, &delivered, &ts)
	if err == sql.ErrNoRows {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, fmt.Errorf("query outcome: %w", err)
	}
	o.Delivered = delivered != 0
	o.ReportedAt = time.Unix(ts, 0)
	return o, true, nil
}

// Record stores the outcome for a signal. The first write wins; replays of
// the same signal id keep the original outcome.
func (s *Store) Record(o Outcome) error {
	if o.ReportedAt.IsZero() {
		o.ReportedAt = time.Now()
	}
	delivered := 0
	if o.Delivered {
		delivered = 1
	}
	_, err := s.db.Exec(
		"INSERT INTO signal_outcomes (signal_id, status, message, ticket, delivered, reported_at) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(signal_id) DO NOTHING",
		o.SignalID, o.Status, o.Message, o.Ticket, delivered, o.ReportedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// MarkDelivered flags an outcome as acknowledged by the backend.
func (s *Store) MarkDelivered(signalID int64) error {
	_, err := s.db.Exec("UPDATE signal_outcomes SET delivered = 1 WHERE signal_id = ?", signalID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// Outcomes returns the most recent outcomes, newest first.
func (s *Store) Outcomes(limit int) ([]Outcome, error) {
	rows, err := s.db.Query(
		"SELECT signal_id, status, message, ticket, delivered, reported_at FROM signal_outcomes ORDER BY reported_at DESC, signal_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var delivered int
		var ts int64
		if err := rows.Scan(&o.SignalID, &o.Status, &o.Message, &o.Ticket, &delivered, &ts); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Delivered = delivered != 0
		o.ReportedAt = time.Unix(ts, 0)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
