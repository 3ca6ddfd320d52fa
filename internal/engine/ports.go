package engine

import (
	"context"

	"github.com/codevcn/thunderchat-client/internal/models"
)

// Direction selects which side of the cursor a history page covers.
type Direction string

const (
	DirectionOlder Direction = "older"
	DirectionNewer Direction = "newer"
)

// HistoryAPI is the paginated history collaborator. A cursor of zero
// with DirectionOlder means "the latest page".
type HistoryAPI interface {
	FetchPage(ctx context.Context, conversationID int64, kind models.ConversationKind, cursorID int64, direction Direction, limit int) ([]models.Message, error)
	FetchContext(ctx context.Context, conversationID int64, kind models.ConversationKind, aroundID int64) ([]models.Message, error)
}

// PushCommands is the outbound side of the push channel.
type PushCommands interface {
	SetOffset(conversationID int64, lastSeenID int64) error
	MarkSeen(messageID int64, recipientID int64) error
}

// Callbacks is the explicit wiring to the UI collaborator, owned by
// whoever constructs the engine. Any field may be nil. Callbacks are
// invoked without the engine lock held.
type Callbacks struct {
	OnSnapshot         func(models.WindowSnapshot)
	OnUnreadChanged    func(count int, firstUnreadID *int64)
	OnFetchError       func(op string, err error)
	OnSendStateChanged func(models.PendingSend)
}
