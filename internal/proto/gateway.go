package proto

import "encoding/json"

// Envelope wraps every frame received from the platform gateway.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	// EventReady confirms the gateway session is established.
	EventReady = "ready"
	// EventMessageCreate notifies about a new message in a channel.
	EventMessageCreate = "message_create"
	// EventMessageUpdate notifies about an edited message.
	EventMessageUpdate = "message_update"
	// EventMessageDelete notifies about a deleted message.
	EventMessageDelete = "message_delete"
	// EventTicketOpen is a user command requesting a new ticket channel.
	EventTicketOpen = "ticket_open"
	// EventTicketClose is a user command closing the current ticket channel.
	EventTicketClose = "ticket_close"
)

// Author identifies the sender of a message. The platform may omit it
// entirely for deleted accounts.
type Author struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// Attachment is a file attached to a message.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Message is the raw message shape the platform sends, both on the gateway
// and from the history API. Timestamps are Unix milliseconds; an absent
// EditedTimestamp means the message was never edited.
type Message struct {
	ID              string       `json:"id"`
	ChannelID       string       `json:"channel_id"`
	Author          *Author      `json:"author,omitempty"`
	Content         string       `json:"content"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	Timestamp       int64        `json:"timestamp"`
	EditedTimestamp *int64       `json:"edited_timestamp,omitempty"`
}

// Channel is the raw channel shape from the platform.
type Channel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Topic string `json:"topic,omitempty"`
}

// ReadyData is sent once after the gateway handshake.
type ReadyData struct {
	SessionID string `json:"session_id"`
	BotTag    string `json:"bot_tag"`
}

// MessageCreateData carries a freshly sent message.
type MessageCreateData struct {
	Message     Message `json:"message"`
	ChannelName string  `json:"channel_name"`
}

// MessageUpdateData carries the updated message and, when the platform had
// it cached, the content before the edit.
type MessageUpdateData struct {
	Message     Message `json:"message"`
	ChannelName string  `json:"channel_name"`
	OldContent  string  `json:"old_content,omitempty"`
}

// MessageDeleteData carries what the platform still knows about a deleted
// message. Author and content may be absent when the message was never cached.
type MessageDeleteData struct {
	MessageID   string  `json:"message_id"`
	ChannelID   string  `json:"channel_id"`
	ChannelName string  `json:"channel_name"`
	Author      *Author `json:"author,omitempty"`
	Content     string  `json:"content,omitempty"`
}

// Actor identifies the user issuing a ticket command, with the role
// memberships the platform reports for them.
type Actor struct {
	ID            string   `json:"id"`
	Tag           string   `json:"tag"`
	Username      string   `json:"username"`
	Discriminator string   `json:"discriminator"`
	Roles         []string `json:"roles,omitempty"`
}

// TicketOpenData is the open-ticket command payload.
type TicketOpenData struct {
	Actor    Actor  `json:"actor"`
	Category string `json:"category"`
}

// TicketCloseData is the close-ticket command payload.
type TicketCloseData struct {
	Actor     Actor  `json:"actor"`
	ChannelID string `json:"channel_id"`
}
