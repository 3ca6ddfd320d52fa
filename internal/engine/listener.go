package engine

import (
	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
)

// HandlePush reconciles one push channel event into the active window.
// Events for a conversation whose window does not exist yet are held in
// a single-slot buffer, last write wins, and replayed exactly once when
// that conversation is opened. Because ids are server-assigned in send
// order no reordering is ever needed here, only merge and gap
// detection, through the same merge path pagination uses.
func (e *Engine) HandlePush(conversationID int64, kind models.ConversationKind, ev models.PushEvent) {
	observability.IncPushEvent(ev.Type)

	e.mu.Lock()
	if e.win == nil || e.win.conversationID != conversationID {
		e.pending = &pendingPush{conversationID: conversationID, kind: kind, event: ev}
		e.mu.Unlock()
		return
	}

	switch ev.Type {
	case models.EventMessage:
		if ev.Message == nil {
			e.mu.Unlock()
			return
		}
		e.mergeLocked("live", []models.Message{*ev.Message})
		e.advanceOffsetLocked(ev.Message.ID)
		e.emitSnapshotLocked()
		e.queueFollowTailLocked(ev.Message.AuthorID == e.cfg.LocalUserID)

	case models.EventStatus:
		// Re-enter through the merge path so status handling cannot
		// diverge from message handling.
		if held, ok := e.win.store.Get(ev.MessageID); ok {
			held.Status = ev.Status
			e.mergeLocked("live", []models.Message{held})
			e.emitSnapshotLocked()
		}

	case models.EventRecovered:
		if len(ev.Batch) > 0 {
			e.mergeLocked("recovery", ev.Batch)
			e.advanceOffsetLocked(maxID(ev.Batch))
			e.emitSnapshotLocked()
		}

	default:
		e.log.Debugw("unknown push event dropped", "type", ev.Type)
	}

	e.mu.Unlock()
	e.flushNotifies()
}
