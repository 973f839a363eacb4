package core

import (
	"time"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// Sentinels substituted when the platform reports no author, e.g. for
// messages from deleted accounts.
const (
	UnknownAuthorID  = "Unknown"
	UnknownAuthorTag = "Unknown#0000"
)

// Attachment is a file reference captured with a message.
type Attachment struct {
	URL  string
	Name string
}

// MessageSnapshot is the last-known materialized state of a single message.
// It is immutable at capture; an edit produces a new snapshot rather than
// mutating the old one.
type MessageSnapshot struct {
	ID              string
	ChannelID       string
	AuthorID        string
	AuthorTag       string
	Content         string
	Attachments     []Attachment
	Timestamp       int64 // Unix milliseconds
	EditedTimestamp *int64
}

// BuildSnapshot normalizes a raw platform message into a snapshot. Missing
// author information falls back to the Unknown sentinels, a missing creation
// timestamp falls back to the capture time, and an absent edited timestamp
// stays nil rather than defaulting to the creation instant.
func BuildSnapshot(m proto.Message) MessageSnapshot {
	snap := MessageSnapshot{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  UnknownAuthorID,
		AuthorTag: UnknownAuthorTag,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}

	if m.Author != nil {
		if m.Author.ID != "" {
			snap.AuthorID = m.Author.ID
		}
		if m.Author.Tag != "" {
			snap.AuthorTag = m.Author.Tag
		}
	}

	if snap.Timestamp == 0 {
		snap.Timestamp = time.Now().UnixMilli()
	}

	if m.EditedTimestamp != nil {
		ts := *m.EditedTimestamp
		snap.EditedTimestamp = &ts
	}

	snap.Attachments = make([]Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		snap.Attachments = append(snap.Attachments, Attachment{URL: a.URL, Name: a.Name})
	}

	return snap
}
