package core

import (
	"sync"
	"time"
)

// EventLog is the process-scoped capture state for open ticket channels: an
// append-only event buffer per channel plus a table of the latest snapshot
// per message, used to recover prior content on edit and delete.
//
// The log is channel-identity-agnostic; deciding which channels to track is
// the caller's policy. Entries exist only while a ticket is open and are
// removed wholesale by Clear.
//
// The source platform delivered events on a single loop; here gateway and
// HTTP goroutines interleave, so a mutex guards both maps. Close is a
// two-phase protocol: BeginClose atomically fences the channel so further
// records are rejected, then either AbortClose (history fetch failed, ticket
// stays open) or Clear (transcript written) ends the window.
type EventLog struct {
	mu        sync.Mutex
	events    map[string][]ChannelEvent
	snapshots map[string]MessageSnapshot
	closing   map[string]struct{}
}

// NewEventLog constructs an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{
		events:    make(map[string][]ChannelEvent),
		snapshots: make(map[string]MessageSnapshot),
		closing:   make(map[string]struct{}),
	}
}

// OpenChannel eagerly creates the channel's buffer. Recording into an
// unknown channel also creates it lazily; this exists so a freshly created
// ticket channel is tracked before its first message arrives.
func (l *EventLog) OpenChannel(channelID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.events[channelID]; !ok {
		l.events[channelID] = nil
	}
}

// RecordCreate appends a create event and upserts the message snapshot.
func (l *EventLog) RecordCreate(channelID string, snap MessageSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, closing := l.closing[channelID]; closing {
		return ErrChannelClosing
	}

	l.snapshots[snap.ID] = snap
	l.events[channelID] = append(l.events[channelID], CreateEvent(snap))
	return nil
}

// RecordEdit appends an edit event for the message and replaces its
// snapshot. Prior content comes from the snapshot table when the message was
// seen before, otherwise from fallbackOld (whatever the update notification
// carried). The stored snapshot keeps the original creation timestamp.
func (l *EventLog) RecordEdit(channelID, messageID string, updated MessageSnapshot, fallbackOld string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, closing := l.closing[channelID]; closing {
		return ErrChannelClosing
	}

	now := time.Now().UnixMilli()

	oldContent := fallbackOld
	prev, seen := l.snapshots[messageID]
	if seen {
		oldContent = prev.Content
		updated.Timestamp = prev.Timestamp
		// Update notifications may omit attachments; keep the ones we saw.
		if len(updated.Attachments) == 0 {
			updated.Attachments = prev.Attachments
		}
		if updated.AuthorID == UnknownAuthorID && prev.AuthorID != UnknownAuthorID {
			updated.AuthorID = prev.AuthorID
			updated.AuthorTag = prev.AuthorTag
		}
	}
	if updated.EditedTimestamp == nil {
		updated.EditedTimestamp = &now
	}

	l.snapshots[messageID] = updated
	l.events[channelID] = append(l.events[channelID], ChannelEvent{
		Kind:      EventMessageEdited,
		ChannelID: channelID,
		Timestamp: now,
		Edit: &EditEvent{
			MessageID:  messageID,
			AuthorID:   updated.AuthorID,
			AuthorTag:  updated.AuthorTag,
			OldContent: oldContent,
			NewContent: updated.Content,
		},
	})
	return nil
}

// RecordDelete appends a delete event and drops the message snapshot.
// Attribution and content resolve snapshot first, then the notification's
// fallback fields, then the Unknown sentinels.
func (l *EventLog) RecordDelete(channelID, messageID string, fallback DeleteEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, closing := l.closing[channelID]; closing {
		return ErrChannelClosing
	}

	ev := DeleteEvent{
		MessageID: messageID,
		AuthorID:  fallback.AuthorID,
		AuthorTag: fallback.AuthorTag,
		Content:   fallback.Content,
	}
	if prev, seen := l.snapshots[messageID]; seen {
		ev.AuthorID = prev.AuthorID
		ev.AuthorTag = prev.AuthorTag
		ev.Content = prev.Content
	}
	if ev.AuthorID == "" {
		ev.AuthorID = UnknownAuthorID
	}
	if ev.AuthorTag == "" {
		ev.AuthorTag = UnknownAuthorTag
	}

	delete(l.snapshots, messageID)
	l.events[channelID] = append(l.events[channelID], ChannelEvent{
		Kind:      EventMessageDeleted,
		ChannelID: channelID,
		Timestamp: time.Now().UnixMilli(),
		Delete:    &ev,
	})
	return nil
}

// Drain returns a copy of the channel's buffered events in insertion order.
// Insertion order is not guaranteed to be temporal order; callers sort after
// merging with fetched history.
func (l *EventLog) Drain(channelID string) []ChannelEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	buffered := l.events[channelID]
	out := make([]ChannelEvent, len(buffered))
	copy(out, buffered)
	return out
}

// BeginClose fences the channel: subsequent Record calls fail with
// ErrChannelClosing until AbortClose or Clear. Returns ErrChannelClosing if
// a close is already in flight.
func (l *EventLog) BeginClose(channelID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, closing := l.closing[channelID]; closing {
		return ErrChannelClosing
	}
	l.closing[channelID] = struct{}{}
	return nil
}

// AbortClose lifts the close fence, leaving the buffer intact so the close
// can be retried.
func (l *EventLog) AbortClose(channelID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, closing := l.closing[channelID]; !closing {
		return ErrNotClosing
	}
	delete(l.closing, channelID)
	return nil
}

// Clear removes the channel's event buffer, every snapshot belonging to it,
// and any close fence. After Clear the channel is untracked.
func (l *EventLog) Clear(channelID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.events, channelID)
	delete(l.closing, channelID)
	for id, snap := range l.snapshots {
		if snap.ChannelID == channelID {
			delete(l.snapshots, id)
		}
	}
}

// HasChannel reports whether the channel is currently tracked.
func (l *EventLog) HasChannel(channelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.events[channelID]
	return ok
}

// SnapshotCount returns how many snapshots belong to the channel.
func (l *EventLog) SnapshotCount(channelID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, snap := range l.snapshots {
		if snap.ChannelID == channelID {
			n++
		}
	}
	return n
}
