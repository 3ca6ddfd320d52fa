package engine

import (
	"context"

	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
	"github.com/codevcn/thunderchat-client/internal/store"
)

// scheduleBackfillLocked picks the first gap not already accepted as
// permanent and starts a backfill walk for it. At most one backfill is
// in flight per window; further gaps are picked up by the gap scan that
// runs after the backfill's own merges.
func (e *Engine) scheduleBackfillLocked(gaps []store.Range) {
	if e.inflightBackfill || e.win == nil {
		return
	}
	for _, g := range gaps {
		if e.acceptedPermanentLocked(g) {
			continue
		}
		// The span between a jumped-to context block and the rest of
		// the window is not a missed-push hole; LoadNewer walks it as
		// the user catches up.
		if e.win.contextEndID != nil && g.From == *e.win.contextEndID+1 {
			continue
		}
		e.inflightBackfill = true
		observability.IncGap("detected")
		go e.backfill(e.winCtx, e.epoch, e.win.conversationID, e.win.kind, g)
		return
	}
}

// backfill walks a gap forward in bounded batches until the gap is
// closed or the server has nothing more to give. Repeated empty
// responses mean those ids were never destined for this client; the gap
// is then accepted as permanent rather than retried forever.
func (e *Engine) backfill(ctx context.Context, epoch uint64, conversationID int64, kind models.ConversationKind, g store.Range) {
	offset := g.From - 1
	empty := 0

	for {
		if err := e.limiter.Wait(ctx); err != nil {
			e.finishBackfill(epoch)
			return
		}

		msgs, err := e.history.FetchPage(ctx, conversationID, kind, offset, DirectionNewer, e.cfg.BackfillBatchSize)

		e.mu.Lock()
		if e.epoch != epoch {
			observability.IncStaleResult()
			e.mu.Unlock()
			return
		}

		if err != nil || len(msgs) == 0 {
			if err != nil {
				e.log.Warnw("backfill fetch failed", "conversation_id", conversationID, "from", g.From, "to", g.To, "error", err)
			}
			empty++
			if empty >= e.cfg.BackfillMaxEmpty {
				e.acceptPermanentGapLocked(conversationID, g)
				e.mu.Unlock()
				e.flushNotifies()
				return
			}
			e.mu.Unlock()
			continue
		}

		// Backfilled messages insert above the viewport like any other
		// backward load, so each merge gets the same anchor treatment.
		mark := e.anchor.Capture()
		e.mergeLocked("backfill", msgs)
		offset = maxID(msgs)
		closed := offset >= g.To
		if closed {
			e.inflightBackfill = false
			observability.IncGap("closed")
		}
		e.emitSnapshotLocked()
		e.queueAnchorRestoreLocked(mark)
		if closed {
			// The post-merge gap scan may have found further holes.
			e.scheduleBackfillLocked(store.FindMissingRanges(e.win.store.IDs()))
		}
		e.mu.Unlock()
		e.flushNotifies()
		if closed {
			return
		}
	}
}

// acceptPermanentGapLocked records a gap that cannot be closed. The
// conversation stays usable; this is an anomaly, not a user-facing
// error.
// acceptedPermanentLocked reports whether the gap lies inside a span
// already accepted as permanent. A partial fill splits an accepted span
// into sub-ranges; those stay accepted rather than re-triggering walks
// for ids already proven unfillable.
func (e *Engine) acceptedPermanentLocked(g store.Range) bool {
	for _, p := range e.permanentGaps {
		if g.From >= p.From && g.To <= p.To {
			return true
		}
	}
	return false
}

func (e *Engine) acceptPermanentGapLocked(conversationID int64, g store.Range) {
	e.inflightBackfill = false
	e.permanentGaps = append(e.permanentGaps, g)
	observability.IncGap("permanent")
	e.log.Warnw("gap accepted as permanent", "conversation_id", conversationID, "from", g.From, "to", g.To)
	_ = observability.PublishEvent(context.Background(), "sync_events.anomalies", observability.EventEnvelope{
		EventType: "sync_events",
		EventName: "permanent_gap",
		Payload: map[string]interface{}{
			"conversation_id": conversationID,
			"from":            g.From,
			"to":              g.To,
		},
	}, nil)
}

func (e *Engine) finishBackfill(epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch == epoch {
		e.inflightBackfill = false
	}
}
