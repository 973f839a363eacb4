package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ticketdesk/ticketdesk-server/internal/store"
)

// ErrNotFound is returned when a ticket does not exist.
var ErrNotFound = errors.New("ticket not found")

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id              TEXT PRIMARY KEY,
	channel_id      TEXT NOT NULL,
	channel_name    TEXT NOT NULL,
	opened_by       TEXT NOT NULL,
	open_time       TEXT NOT NULL,
	closed_by       TEXT NOT NULL,
	closed_at       DATETIME NOT NULL,
	event_count     INTEGER NOT NULL DEFAULT 0,
	transcript_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_closed_at ON tickets(closed_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and ensures the schema exists.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTicket inserts a closed-ticket record.
func (s *SQLiteStore) SaveTicket(ctx context.Context, t *store.Ticket) error {
	query := `
		INSERT INTO tickets (id, channel_id, channel_name, opened_by, open_time, closed_by, closed_at, event_count, transcript_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.ChannelID, t.ChannelName, t.OpenedBy, t.OpenTime,
		t.ClosedBy, t.ClosedAt, t.EventCount, t.TranscriptPath,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID.
func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*store.Ticket, error) {
	query := `
		SELECT id, channel_id, channel_name, opened_by, open_time, closed_by, closed_at, event_count, transcript_path
		FROM tickets
		WHERE id = ?
	`
	var t store.Ticket
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.ChannelID,
		&t.ChannelName,
		&t.OpenedBy,
		&t.OpenTime,
		&t.ClosedBy,
		&t.ClosedAt,
		&t.EventCount,
		&t.TranscriptPath,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query ticket: %w", err)
	}

	return &t, nil
}

// ListTickets lists closed tickets, most recently closed first.
func (s *SQLiteStore) ListTickets(ctx context.Context, limit int) ([]*store.Ticket, error) {
	query := `
		SELECT id, channel_id, channel_name, opened_by, open_time, closed_by, closed_at, event_count, transcript_path
		FROM tickets
		ORDER BY closed_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*store.Ticket, 0)
	for rows.Next() {
		var t store.Ticket
		if err := rows.Scan(
			&t.ID,
			&t.ChannelID,
			&t.ChannelName,
			&t.OpenedBy,
			&t.OpenTime,
			&t.ClosedBy,
			&t.ClosedAt,
			&t.EventCount,
			&t.TranscriptPath,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	return tickets, nil
}
