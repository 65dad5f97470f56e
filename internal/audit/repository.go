// Package audit stores the relay's session history: which connections
// came and went and which device ids they held.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeFormat sorts lexically in the same order as the times it encodes.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded lifecycle event.
type Entry struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	ConnectionID string    `json:"connection_id,omitempty"`
	DeviceID     string    `json:"device_id,omitempty"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter selects entries for List.
type Filter struct {
	Kind     string // optional: connected, registered, superseded, disconnected
	DeviceID string // optional
	Limit    int    // default 50, max 200
	Offset   int
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the session audit operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores entries in the relay_events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over db. The relay_events
// migration must already be applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts entry, filling in ID and CreatedAt when empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.Kind == "" {
		return fmt.Errorf("audit entry: kind is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO relay_events (id, kind, connection_id, device_id, remote_addr, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Kind, entry.ConnectionID, entry.DeviceID, entry.RemoteAddr,
		entry.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting relay event: %w", err)
	}
	return nil
}

// List returns entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM relay_events " + where //nolint:gosec // conditions are fixed strings with ? placeholders
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting relay events: %w", err)
	}

	query := "SELECT id, kind, connection_id, device_id, remote_addr, created_at FROM relay_events " + //nolint:gosec // as above
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying relay events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Kind, &e.ConnectionID, &e.DeviceID, &e.RemoteAddr, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning relay event: %w", err)
		}
		e.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing relay event timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relay events: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
