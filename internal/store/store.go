package store

import (
	"context"
	"time"
)

// Ticket is the durable record of a closed ticket. The transcript document
// itself lives in the transcript store; this row indexes it.
type Ticket struct {
	ID             string // TICKET-XXXXXXXX
	ChannelID      string
	ChannelName    string
	OpenedBy       string
	OpenTime       string // display string captured at channel creation
	ClosedBy       string
	ClosedAt       time.Time
	EventCount     int
	TranscriptPath string
}

// TicketStore handles closed-ticket persistence.
type TicketStore interface {
	// SaveTicket inserts a closed-ticket record. Ticket IDs are unique;
	// saving the same ID twice is an error.
	SaveTicket(ctx context.Context, t *Ticket) error

	// GetTicket retrieves a ticket by ID.
	GetTicket(ctx context.Context, id string) (*Ticket, error)

	// ListTickets lists closed tickets, most recently closed first.
	ListTickets(ctx context.Context, limit int) ([]*Ticket, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	TicketStore

	// Close closes the underlying database connection.
	Close() error
}
