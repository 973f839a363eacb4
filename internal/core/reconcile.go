package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// HistoryPageSize bounds each page of the platform history fetch.
const HistoryPageSize = 100

// PageFunc fetches one page of channel history, newest first. beforeID is
// empty for the first page, thereafter the ID of the oldest message already
// fetched. An empty result or a short page means the history is exhausted.
type PageFunc func(ctx context.Context, beforeID string, limit int) ([]proto.Message, error)

// Reconcile merges the platform's stored history with the locally buffered
// event log into one chronological timeline.
//
// Every fetched message becomes a synthetic create event: this recovers
// messages sent before tracking started. It cannot recover historical edits
// or deletes of those messages, because the history API only exposes current
// content; those come solely from the buffered events. The combined stream
// is stable-sorted by timestamp so equal instants keep their relative order.
func Reconcile(ctx context.Context, fetch PageFunc, buffered []ChannelEvent, pageTimeout time.Duration) ([]ChannelEvent, error) {
	merged := make([]ChannelEvent, 0, len(buffered))

	beforeID := ""
	for {
		page, err := fetchPage(ctx, fetch, beforeID, pageTimeout)
		if err != nil {
			return nil, fmt.Errorf("fetch history page before %q: %w", beforeID, err)
		}
		if len(page) == 0 {
			break
		}

		for _, m := range page {
			merged = append(merged, CreateEvent(BuildSnapshot(m)))
		}

		if len(page) < HistoryPageSize {
			break
		}
		beforeID = page[len(page)-1].ID
	}

	merged = append(merged, buffered...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})

	return merged, nil
}

func fetchPage(ctx context.Context, fetch PageFunc, beforeID string, pageTimeout time.Duration) ([]proto.Message, error) {
	if pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pageTimeout)
		defer cancel()
	}
	return fetch(ctx, beforeID, HistoryPageSize)
}
