package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/ticketdesk/ticketdesk-server/internal/core"
)

// TicketMeta is the header information embedded in every transcript.
type TicketMeta struct {
	TicketID    string
	ChannelName string
	OpenedByID  string
	OpenedByTag string
	OpenTime    string
}

// Render produces a self-contained HTML transcript for a closed ticket.
// The output is deterministic for identical inputs: no wall-clock fields are
// embedded. All user-supplied text is escaped before embedding. Events with
// an unrecognized kind render as a raw fallback row so reconstruction never
// silently loses an event; Render reports how many such rows were emitted
// so the caller can log the anomaly.
func Render(meta TicketMeta, events []core.ChannelEvent) (string, int) {
	var rows strings.Builder
	unknown := 0

	for i, ev := range events {
		if i > 0 {
			rows.WriteByte('\n')
		}
		switch ev.Kind {
		case core.EventMessageCreated:
			rows.WriteString(createRow(ev))
		case core.EventMessageEdited:
			rows.WriteString(editRow(ev))
		case core.EventMessageDeleted:
			rows.WriteString(deleteRow(ev))
		default:
			unknown++
			rows.WriteString(fallbackRow(ev))
		}
	}

	var doc strings.Builder
	doc.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n")
	fmt.Fprintf(&doc, "<title>%s — Transcript</title>\n", escape(meta.TicketID))
	doc.WriteString(styleBlock)
	doc.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&doc, "<h1>%s</h1>\n", escape(meta.TicketID))
	fmt.Fprintf(&doc, "<div class=\"meta-info\">Channel: %s | Opened by: %s | Open time: %s</div>\n",
		escape(meta.ChannelName), escape(meta.OpenedByTag), escape(meta.OpenTime))
	fmt.Fprintf(&doc, "<div class=\"transcript\">%s</div>\n", rows.String())
	doc.WriteString("</body>\n</html>\n")

	return doc.String(), unknown
}

func createRow(ev core.ChannelEvent) string {
	snap := ev.Snapshot
	if snap == nil {
		return fallbackRow(ev)
	}

	var atts strings.Builder
	for i, a := range snap.Attachments {
		if i > 0 {
			atts.WriteString("<br>")
		}
		label := a.Name
		if label == "" {
			label = a.URL
		}
		fmt.Fprintf(&atts, "<a href=\"%s\" target=\"_blank\">%s</a>", escape(a.URL), escape(label))
	}

	body := escape(snap.Content)
	if atts.Len() > 0 {
		body += "<div class='attachments'>" + atts.String() + "</div>"
	}

	return fmt.Sprintf("<div class=\"row create\"><div class=\"meta\">[%s] <strong>%s</strong> (%s)</div><div class=\"content\">%s</div></div>",
		formatTime(ev.Timestamp), escape(snap.AuthorTag), escape(snap.AuthorID), body)
}

func editRow(ev core.ChannelEvent) string {
	edit := ev.Edit
	if edit == nil {
		return fallbackRow(ev)
	}

	return fmt.Sprintf("<div class=\"row edit\"><div class=\"meta\">[%s] <strong>%s</strong> edited message (%s)</div><div class=\"content\"><div class=\"label\">Before:</div><pre>%s</pre><div class=\"label\">After:</div><pre>%s</pre></div></div>",
		formatTime(ev.Timestamp), escape(edit.AuthorTag), escape(edit.AuthorID),
		escape(edit.OldContent), escape(edit.NewContent))
}

func deleteRow(ev core.ChannelEvent) string {
	del := ev.Delete
	if del == nil {
		return fallbackRow(ev)
	}

	return fmt.Sprintf("<div class=\"row delete\"><div class=\"meta\">[%s] <strong>%s</strong> deleted a message (%s)</div><div class=\"content\"><pre>%s</pre></div></div>",
		formatTime(ev.Timestamp), escape(del.AuthorTag), escape(del.AuthorID), escape(del.Content))
}

func fallbackRow(ev core.ChannelEvent) string {
	return fmt.Sprintf("<div class=\"row\"><div class=\"meta\">[%s] %s</div></div>",
		formatTime(ev.Timestamp), escape(fmt.Sprintf("%+v", ev)))
}

func formatTime(unixMilli int64) string {
	return time.UnixMilli(unixMilli).UTC().Format("02/01/2006, 15:04:05") + " UTC"
}

// escape neutralizes the three reserved markup characters in user-supplied
// text. The replacement set is deliberately exactly these three: the output
// format depends on it.
var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return escaper.Replace(s)
}

const styleBlock = `<style>
body { font-family: Inter, Roboto, Arial, sans-serif; background:#0f0b13; color:#e9e6f3; padding:20px; }
.row { border-left:3px solid rgba(214,183,255,0.12); padding:10px 12px; margin-bottom:10px; border-radius:8px; background:rgba(255,255,255,0.02);}
.row.create{border-left-color:#8b5cf6;}
.row.edit{border-left-color:#a78bfa;}
.row.delete{border-left-color:#f472b6;}
.meta{font-size:0.9rem;color:#cfc7f6;margin-bottom:6px;}
.content pre{white-space:pre-wrap;font-family:monospace;background:rgba(0,0,0,0.2);padding:8px;border-radius:6px;color:#efeaff;}
.label{font-weight:600;color:#d6b7ff;margin-top:6px;}
</style>
`
