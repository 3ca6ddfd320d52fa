package models

// Push channel event types.
const (
	EventMessage   = "message"
	EventStatus    = "status"
	EventRecovered = "recovered"
)

// PushEvent is received over the websocket push channel.
type PushEvent struct {
	Type      string        `json:"type"`
	Message   *Message      `json:"message,omitempty"`
	MessageID int64         `json:"message_id,omitempty"`
	Status    MessageStatus `json:"status,omitempty"`
	Batch     []Message     `json:"batch,omitempty"`
}

// Push channel outbound command types.
const (
	CommandSetOffset = "set_offset"
	CommandMarkSeen  = "mark_seen"
)

// PushCommand is sent to the server over the push channel.
type PushCommand struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	LastSeenID     int64  `json:"last_seen_id,omitempty"`
	MessageID      int64  `json:"message_id,omitempty"`
	RecipientID    int64  `json:"recipient_id,omitempty"`
}
