package engine

import (
	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/store"
)

// window is the client-side state for one open conversation. It lives
// from Open to the next Open or Close and is never persisted.
type window struct {
	conversationID int64
	kind           models.ConversationKind

	store        *store.Store
	hasMoreOlder bool

	// contextEndID is the upper bound of a jumped-to context block.
	// While set, forward catch-up resumes from here instead of the
	// true tail; an empty forward page clears it.
	contextEndID *int64

	// offsetCursor is the last id reported to the push channel so a
	// reconnect knows where recovery should resume.
	offsetCursor int64
}

func newWindow(conversationID int64, kind models.ConversationKind) *window {
	return &window{
		conversationID: conversationID,
		kind:           kind,
		store:          store.New(),
		hasMoreOlder:   true,
	}
}

// catchUpCursor is the id forward catch-up fetches resume from.
func (w *window) catchUpCursor() int64 {
	if w.contextEndID != nil {
		return *w.contextEndID
	}
	if tail, ok := w.store.Tail(); ok {
		return tail.ID
	}
	return 0
}

func (w *window) snapshot(unreadCount int, firstUnreadID *int64) models.WindowSnapshot {
	return models.WindowSnapshot{
		ConversationID:   w.conversationID,
		ConversationKind: w.kind,
		Messages:         w.store.All(),
		HasMoreOlder:     w.hasMoreOlder,
		ContextEndID:     w.contextEndID,
		UnreadCount:      unreadCount,
		FirstUnreadID:    firstUnreadID,
	}
}
