package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNotTicketChannel = "not_ticket_channel"
	ErrCodeChannelClosing   = "channel_closing"
	ErrCodeTicketExists     = "ticket_exists"
	ErrCodeHistoryFetch     = "history_fetch_failed"
	ErrCodePermission       = "permission_denied"
)

var (
	// ErrChannelClosing is returned when an event arrives for a channel
	// whose close is already in progress.
	ErrChannelClosing = errors.New("channel close in progress")
	// ErrNotClosing is returned when aborting or completing a close that
	// was never started.
	ErrNotClosing = errors.New("channel is not closing")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// NewError builds a coded domain error.
func NewError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
