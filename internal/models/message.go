package models

import "time"

// ConversationKind distinguishes direct chats from groups.
type ConversationKind string

const (
	KindDirect ConversationKind = "direct"
	KindGroup  ConversationKind = "group"
)

// MessageType enumerates the supported message payloads.
type MessageType string

const (
	TypeText      MessageType = "text"
	TypeSticker   MessageType = "sticker"
	TypeImage     MessageType = "image"
	TypeVideo     MessageType = "video"
	TypeAudio     MessageType = "audio"
	TypeDocument  MessageType = "document"
	TypePinNotice MessageType = "pin-notice"
)

// MessageStatus is the delivery status of a message. It only ever
// advances sent -> seen.
type MessageStatus string

const (
	StatusSent MessageStatus = "sent"
	StatusSeen MessageStatus = "seen"
)

// Message is a server-confirmed chat message. IDs are assigned by the
// server strictly increasing in send order within a conversation, so id
// order and time order coincide.
type Message struct {
	ID               int64            `json:"id"`
	ConversationID   int64            `json:"conversation_id"`
	ConversationKind ConversationKind `json:"conversation_kind"`
	AuthorID         int64            `json:"author_id"`
	Type             MessageType      `json:"type"`
	Content          string           `json:"content"`
	MediaURL         string           `json:"media_url,omitempty"`
	StickerURL       string           `json:"sticker_url,omitempty"`
	ReplyToID        *int64           `json:"reply_to_id,omitempty"`
	Status           MessageStatus    `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	IsDeleted        bool             `json:"is_deleted"`
	IsViolated       bool             `json:"is_violated"`

	// IsContextMessage marks messages fetched via a context jump rather
	// than normal pagination. Client-only, never sent on the wire.
	IsContextMessage bool `json:"-"`
}

// SendPayload is the user-authored content of an outgoing message
// before the server has assigned it an id.
type SendPayload struct {
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	MediaURL   string      `json:"media_url,omitempty"`
	StickerURL string      `json:"sticker_url,omitempty"`
	ReplyToID  *int64      `json:"reply_to_id,omitempty"`
}
