package models

// WindowSnapshot is the read-only view of an open conversation handed
// to the UI renderer after every mutation.
type WindowSnapshot struct {
	ConversationID   int64            `json:"conversation_id"`
	ConversationKind ConversationKind `json:"conversation_kind"`
	Messages         []Message        `json:"messages"`
	HasMoreOlder     bool             `json:"has_more_older"`
	ContextEndID     *int64           `json:"context_end_id,omitempty"`
	UnreadCount      int              `json:"unread_count"`
	FirstUnreadID    *int64           `json:"first_unread_id,omitempty"`
}

// SendState is the lifecycle of an optimistic outgoing message.
type SendState string

const (
	SendQueued       SendState = "queued"
	SendAcknowledged SendState = "acknowledged"
	SendFailed       SendState = "failed"
)

// PendingSend is an outgoing message the server has not confirmed yet.
// It is rendered by the UI separately from the store, keyed by token.
type PendingSend struct {
	Token   string      `json:"token"`
	Payload SendPayload `json:"payload"`
	State   SendState   `json:"state"`
}
