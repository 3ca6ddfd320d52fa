package engine

import (
	"context"

	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
)

// LoadOlder fetches one page of history before the oldest held message
// and merges it. A call while another LoadOlder is pending is dropped,
// not queued. The scroll anchor is captured before the merge; the
// offset correction is deferred until after the renderer has received
// the snapshot, so the viewport stays pinned to its pre-fetch content.
func (e *Engine) LoadOlder(ctx context.Context) error {
	e.mu.Lock()
	if e.win == nil || e.inflightOlder {
		e.mu.Unlock()
		return nil
	}
	e.inflightOlder = true
	epoch := e.epoch
	conversationID, kind := e.win.conversationID, e.win.kind

	var beforeID int64
	if head, ok := e.win.store.Head(); ok {
		beforeID = head.ID
	}
	e.mu.Unlock()

	msgs, err := e.history.FetchPage(ctx, conversationID, kind, beforeID, DirectionOlder, e.cfg.PageSize)

	e.mu.Lock()
	if e.epoch != epoch {
		e.discardStaleLocked("load_older")
		e.mu.Unlock()
		return nil
	}
	e.inflightOlder = false
	if err != nil {
		e.reportFetchErrorLocked("load_older", err)
		e.mu.Unlock()
		e.flushNotifies()
		return err
	}

	mark := e.anchor.Capture()
	e.mergeLocked("pagination_older", msgs)
	e.win.hasMoreOlder = len(msgs) >= e.cfg.PageSize
	if beforeID == 0 {
		// Initial page: seed the reconnection offset cursor from the tail.
		if tail, ok := e.win.store.Tail(); ok {
			e.advanceOffsetLocked(tail.ID)
		}
	}
	e.emitSnapshotLocked()
	e.queueAnchorRestoreLocked(mark)
	e.mu.Unlock()
	e.flushNotifies()
	return nil
}

// LoadNewer fetches messages after the catch-up cursor: the context
// block's upper bound while one is set, the true tail otherwise. An
// empty result while a context block is set means the window re-joined
// the live tail, so the context state is cleared.
func (e *Engine) LoadNewer(ctx context.Context) error {
	e.mu.Lock()
	if e.win == nil || e.inflightNewer {
		e.mu.Unlock()
		return nil
	}
	e.inflightNewer = true
	epoch := e.epoch
	conversationID, kind := e.win.conversationID, e.win.kind
	afterID := e.win.catchUpCursor()
	e.mu.Unlock()

	msgs, err := e.history.FetchPage(ctx, conversationID, kind, afterID, DirectionNewer, e.cfg.PageSize)

	e.mu.Lock()
	if e.epoch != epoch {
		e.discardStaleLocked("load_newer")
		e.mu.Unlock()
		return nil
	}
	e.inflightNewer = false
	if err != nil {
		e.reportFetchErrorLocked("load_newer", err)
		e.mu.Unlock()
		e.flushNotifies()
		return err
	}

	if len(msgs) == 0 {
		if e.win.contextEndID != nil {
			e.win.contextEndID = nil
			e.win.store.ClearContextFlags()
			e.emitSnapshotLocked()
		}
		e.mu.Unlock()
		e.flushNotifies()
		return nil
	}

	if e.win.contextEndID != nil {
		// The context block grew; catch-up resumes from its new end.
		// Updated before the merge so the gap scan sees the moved
		// catch-up hole, not a missed-push one.
		end := maxID(msgs)
		e.win.contextEndID = &end
	}
	e.mergeLocked("pagination_newer", msgs)
	e.advanceOffsetLocked(maxID(msgs))
	e.emitSnapshotLocked()
	e.mu.Unlock()
	e.flushNotifies()
	return nil
}

// LoadContext jumps to a bounded neighborhood of messages around an
// arbitrary id (reply, pin or search navigation). The block is merged
// with a context marker and forward catch-up then resumes from the
// block's upper bound instead of the true tail.
func (e *Engine) LoadContext(ctx context.Context, aroundID int64) error {
	e.mu.Lock()
	if e.win == nil || e.inflightContext {
		e.mu.Unlock()
		return nil
	}
	e.inflightContext = true
	epoch := e.epoch
	conversationID, kind := e.win.conversationID, e.win.kind
	e.mu.Unlock()

	msgs, err := e.history.FetchContext(ctx, conversationID, kind, aroundID)

	e.mu.Lock()
	if e.epoch != epoch {
		e.discardStaleLocked("load_context")
		e.mu.Unlock()
		return nil
	}
	e.inflightContext = false
	if err != nil {
		e.reportFetchErrorLocked("load_context", err)
		e.mu.Unlock()
		e.flushNotifies()
		return err
	}
	if len(msgs) == 0 {
		e.mu.Unlock()
		e.flushNotifies()
		return nil
	}

	for i := range msgs {
		msgs[i].IsContextMessage = true
	}

	// contextEndID must be set before the merge: the span between the
	// block and the previously held messages is the catch-up hole
	// LoadNewer owns, and the backfill scheduler skips it by this
	// marker.
	end := maxID(msgs)
	e.win.contextEndID = &end
	e.mergeLocked("context", msgs)
	e.win.hasMoreOlder = true
	e.emitSnapshotLocked()
	e.mu.Unlock()
	e.flushNotifies()
	return nil
}

func (e *Engine) discardStaleLocked(op string) {
	observability.IncStaleResult()
	e.log.Debugw("stale fetch result discarded", "op", op)
}

func maxID(msgs []models.Message) int64 {
	var max int64
	for _, m := range msgs {
		if m.ID > max {
			max = m.ID
		}
	}
	return max
}
