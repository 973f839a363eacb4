package core

// EventKind tags a message lifecycle event captured in a ticket channel.
type EventKind int

const (
	// EventMessageCreated records a message being sent.
	EventMessageCreated EventKind = iota
	// EventMessageEdited records a content change with before/after text.
	EventMessageEdited
	// EventMessageDeleted records a removal with the last-known content.
	EventMessageDeleted
)

// String returns the wire/display name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventMessageCreated:
		return "create"
	case EventMessageEdited:
		return "edit"
	case EventMessageDeleted:
		return "delete"
	default:
		return "unknown"
	}
}

// ChannelEvent is one entry in a channel's event log. Exactly one payload
// pointer is set, matching Kind. Timestamp is Unix milliseconds and is
// always non-zero: create events carry the message creation instant,
// edit/delete events the instant they were observed.
type ChannelEvent struct {
	Kind      EventKind
	ChannelID string
	Timestamp int64
	Snapshot  *MessageSnapshot // EventMessageCreated
	Edit      *EditEvent       // EventMessageEdited
	Delete    *DeleteEvent     // EventMessageDeleted
}

// EditEvent holds the before/after pair for an edited message.
type EditEvent struct {
	MessageID  string
	AuthorID   string
	AuthorTag  string
	OldContent string
	NewContent string
}

// DeleteEvent holds the last-known state of a deleted message.
type DeleteEvent struct {
	MessageID string
	AuthorID  string
	AuthorTag string
	Content   string
}

// CreateEvent builds a create event from a snapshot.
func CreateEvent(snap MessageSnapshot) ChannelEvent {
	s := snap
	return ChannelEvent{
		Kind:      EventMessageCreated,
		ChannelID: snap.ChannelID,
		Timestamp: snap.Timestamp,
		Snapshot:  &s,
	}
}
