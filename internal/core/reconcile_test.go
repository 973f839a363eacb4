package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// pagedHistory serves a fixed newest-first history in pages, as the platform
// history API would.
func pagedHistory(messages []proto.Message) PageFunc {
	return func(_ context.Context, beforeID string, limit int) ([]proto.Message, error) {
		start := 0
		if beforeID != "" {
			for i, m := range messages {
				if m.ID == beforeID {
					start = i + 1
					break
				}
			}
		}
		end := start + limit
		if end > len(messages) {
			end = len(messages)
		}
		if start >= len(messages) {
			return nil, nil
		}
		return messages[start:end], nil
	}
}

func historyMessage(id string, ts int64, content string) proto.Message {
	return proto.Message{
		ID:        id,
		ChannelID: "c1",
		Author:    &proto.Author{ID: "u1", Tag: "alice#0001"},
		Content:   content,
		Timestamp: ts,
	}
}

func TestReconcileHistoryOnly(t *testing.T) {
	// Newest first, as fetched.
	history := []proto.Message{
		historyMessage("m3", 3000, "third"),
		historyMessage("m2", 2000, "second"),
		historyMessage("m1", 1000, "first"),
	}

	events, err := Reconcile(context.Background(), pagedHistory(history), nil, time.Second)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"first", "second", "third"} {
		if events[i].Kind != EventMessageCreated {
			t.Fatalf("event %d: expected create, got %v", i, events[i].Kind)
		}
		if events[i].Snapshot.Content != want {
			t.Errorf("event %d: expected %q, got %q", i, want, events[i].Snapshot.Content)
		}
	}
}

func TestReconcilePaginatesUntilShortPage(t *testing.T) {
	var history []proto.Message
	for i := 250; i >= 1; i-- {
		history = append(history, historyMessage(fmt.Sprintf("m%03d", i), int64(i*10), "x"))
	}

	var calls int
	fetch := pagedHistory(history)
	counting := func(ctx context.Context, beforeID string, limit int) ([]proto.Message, error) {
		calls++
		return fetch(ctx, beforeID, limit)
	}

	events, err := Reconcile(context.Background(), counting, nil, time.Second)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(events) != 250 {
		t.Fatalf("expected 250 events, got %d", len(events))
	}
	// 100 + 100 + 50; the short final page stops the loop.
	if calls != 3 {
		t.Fatalf("expected 3 page fetches, got %d", calls)
	}
	if events[0].Snapshot.ID != "m001" || events[249].Snapshot.ID != "m250" {
		t.Fatalf("unexpected ordering: first %s last %s", events[0].Snapshot.ID, events[249].Snapshot.ID)
	}
}

func TestReconcileMergesBufferedEvents(t *testing.T) {
	history := []proto.Message{
		historyMessage("m2", 2000, "kept"),
		historyMessage("m1", 1000, "hello"),
	}

	buffered := []ChannelEvent{
		{
			Kind:      EventMessageEdited,
			ChannelID: "c1",
			Timestamp: 1500,
			Edit: &EditEvent{
				MessageID:  "m1",
				AuthorID:   "u1",
				AuthorTag:  "alice#0001",
				OldContent: "hello",
				NewContent: "hello world",
			},
		},
		{
			Kind:      EventMessageDeleted,
			ChannelID: "c1",
			Timestamp: 2500,
			Delete: &DeleteEvent{
				MessageID: "m3",
				AuthorID:  "u2",
				AuthorTag: "bob#0002",
				Content:   "gone",
			},
		},
	}

	events, err := Reconcile(context.Background(), pagedHistory(history), buffered, time.Second)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// N history creates + M live edit/delete events, no loss, no duplication.
	kinds := []EventKind{EventMessageCreated, EventMessageEdited, EventMessageCreated, EventMessageDeleted}
	if len(events) != len(kinds) {
		t.Fatalf("expected %d events, got %d", len(kinds), len(events))
	}
	for i, k := range kinds {
		if events[i].Kind != k {
			t.Errorf("event %d: expected kind %v, got %v", i, k, events[i].Kind)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			t.Fatalf("timestamps not non-decreasing at %d: %d < %d", i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}
}

func TestReconcileStableForEqualTimestamps(t *testing.T) {
	buffered := []ChannelEvent{
		{Kind: EventMessageEdited, ChannelID: "c1", Timestamp: 1000, Edit: &EditEvent{MessageID: "m1", NewContent: "a"}},
		{Kind: EventMessageEdited, ChannelID: "c1", Timestamp: 1000, Edit: &EditEvent{MessageID: "m1", NewContent: "b"}},
	}

	events, err := Reconcile(context.Background(), pagedHistory(nil), buffered, time.Second)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if events[0].Edit.NewContent != "a" || events[1].Edit.NewContent != "b" {
		t.Fatal("equal timestamps must keep insertion order")
	}
}

func TestReconcileFetchErrorAborts(t *testing.T) {
	fetchErr := errors.New("platform unavailable")
	fetch := func(context.Context, string, int) ([]proto.Message, error) {
		return nil, fetchErr
	}

	_, err := Reconcile(context.Background(), fetch, nil, time.Second)
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}
