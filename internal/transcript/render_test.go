package transcript

import (
	"strings"
	"testing"

	"github.com/ticketdesk/ticketdesk-server/internal/core"
)

func testMeta() TicketMeta {
	return TicketMeta{
		TicketID:    "TICKET-0A1B2C3D",
		ChannelName: "ticket-alice-0001",
		OpenedByID:  "u1",
		OpenedByTag: "<@u1>",
		OpenTime:    "01/01/2026, 12:00:00",
	}
}

func createEvent(content string, ts int64, atts ...core.Attachment) core.ChannelEvent {
	return core.CreateEvent(core.MessageSnapshot{
		ID:          "m1",
		ChannelID:   "c1",
		AuthorID:    "u1",
		AuthorTag:   "alice#0001",
		Content:     content,
		Attachments: atts,
		Timestamp:   ts,
	})
}

func TestRenderDeterministic(t *testing.T) {
	events := []core.ChannelEvent{
		createEvent("hello", 1000),
		{
			Kind: core.EventMessageEdited, ChannelID: "c1", Timestamp: 2000,
			Edit: &core.EditEvent{MessageID: "m1", AuthorID: "u1", AuthorTag: "alice#0001", OldContent: "hello", NewContent: "hi"},
		},
		{
			Kind: core.EventMessageDeleted, ChannelID: "c1", Timestamp: 3000,
			Delete: &core.DeleteEvent{MessageID: "m1", AuthorID: "u1", AuthorTag: "alice#0001", Content: "hi"},
		},
	}

	first, n1 := Render(testMeta(), events)
	second, n2 := Render(testMeta(), events)

	if first != second {
		t.Fatal("expected byte-identical output for identical inputs")
	}
	if n1 != 0 || n2 != 0 {
		t.Fatalf("expected no fallback rows, got %d and %d", n1, n2)
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	events := []core.ChannelEvent{
		createEvent("<script>alert('x')</script> & more", 1000),
	}

	doc, _ := Render(testMeta(), events)

	if strings.Contains(doc, "<script>") {
		t.Fatal("script tag leaked into output unescaped")
	}
	if !strings.Contains(doc, "&lt;script&gt;") {
		t.Fatal("expected escaped script tag in output")
	}
	if !strings.Contains(doc, "&amp; more") {
		t.Fatal("expected escaped ampersand in output")
	}
}

func TestRenderAttachmentLinks(t *testing.T) {
	events := []core.ChannelEvent{
		createEvent("see files", 1000,
			core.Attachment{URL: "https://cdn.example/a.png", Name: "a.png"},
			core.Attachment{URL: "https://cdn.example/b?x=<1>", Name: ""},
			core.Attachment{URL: "https://cdn.example/c.txt", Name: "c.txt"},
		),
	}

	doc, _ := Render(testMeta(), events)

	if got := strings.Count(doc, "<a href="); got != 3 {
		t.Fatalf("expected 3 attachment links, got %d", got)
	}
	// Nameless attachment is labeled by its escaped URL.
	if !strings.Contains(doc, ">https://cdn.example/b?x=&lt;1&gt;</a>") {
		t.Fatal("expected raw URL label, escaped, for nameless attachment")
	}
	if strings.Contains(doc, "x=<1>") {
		t.Fatal("attachment URL leaked unescaped")
	}
}

func TestRenderEditShowsBeforeAndAfter(t *testing.T) {
	events := []core.ChannelEvent{
		{
			Kind: core.EventMessageEdited, ChannelID: "c1", Timestamp: 2000,
			Edit: &core.EditEvent{MessageID: "m1", AuthorID: "u1", AuthorTag: "alice#0001", OldContent: "hello", NewContent: "hello world"},
		},
	}

	doc, _ := Render(testMeta(), events)

	if !strings.Contains(doc, "Before:</div><pre>hello</pre>") {
		t.Fatal("missing before block")
	}
	if !strings.Contains(doc, "After:</div><pre>hello world</pre>") {
		t.Fatal("missing after block")
	}
}

func TestRenderHeaderFields(t *testing.T) {
	doc, _ := Render(testMeta(), nil)

	for _, want := range []string{
		"TICKET-0A1B2C3D",
		"Channel: ticket-alice-0001",
		"Opened by: &lt;@u1&gt;",
		"Open time: 01/01/2026, 12:00:00",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("header missing %q", want)
		}
	}
}

func TestRenderUnknownKindFallback(t *testing.T) {
	events := []core.ChannelEvent{
		{Kind: core.EventKind(99), ChannelID: "c1", Timestamp: 1000},
	}

	doc, unknown := Render(testMeta(), events)

	if unknown != 1 {
		t.Fatalf("expected 1 fallback row, got %d", unknown)
	}
	if !strings.Contains(doc, "<div class=\"row\">") {
		t.Fatal("expected a raw fallback row in output")
	}
}

func TestStoreWriteOnce(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := store.Write("TICKET-AAAA1111", "<html></html>")
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if path == "" {
		t.Fatal("expected a path")
	}

	if _, err := store.Write("TICKET-AAAA1111", "<html>other</html>"); err == nil {
		t.Fatal("expected second write to fail")
	}

	data, err := store.Read("TICKET-AAAA1111")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Fatalf("unexpected document: %q", data)
	}
}
