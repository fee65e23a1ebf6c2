// Package journal records every zone actuation attempt in SQLite so that
// operators can see what the controller did and why.
//
// The journal is write-mostly: the controller appends one entry per apply
// attempt, the status API reads recent history, and a retention ticker
// prunes old rows. It is never consulted to restore zone state.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sources of an actuation.
const (
	SourceGet   = "get"
	SourceDelta = "delta"
)

// History page limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Entry is one actuation attempt.
type Entry struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Zone      string    `json:"zone"`
	Source    string    `json:"source"`
	Desired   bool      `json:"desired"`
	Changed   bool      `json:"changed"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines the journal operations.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
	History(ctx context.Context, deviceID string, limit int) ([]Entry, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// SQLiteRepository stores entries in the actuation_journal table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a journal repository.
// The schema must already be migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts an entry. ID and CreatedAt are filled in if empty.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "act-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actuation_journal (id, device_id, zone, source, desired, changed, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeviceID, e.Zone, e.Source,
		boolToInt(e.Desired), boolToInt(e.Changed),
		nullableString(e.Error),
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// History returns the most recent entries for a device, newest first.
// limit is clamped to [1, MaxHistoryLimit]; zero or negative means the default.
func (r *SQLiteRepository) History(ctx context.Context, deviceID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, zone, source, desired, changed, error, created_at
		 FROM actuation_journal
		 WHERE device_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e                Entry
			desired, changed int
			errText          sql.NullString
			createdAt        string
		)
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Zone, &e.Source, &desired, &changed, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Desired = desired == 1
		e.Changed = changed == 1
		e.Error = errText.String
		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before olderThan and returns how many were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM actuation_journal WHERE created_at < ?",
		olderThan.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableString maps "" to NULL for the error column.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
