package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
	"github.com/codevcn/thunderchat-client/internal/scroll"
	"github.com/codevcn/thunderchat-client/internal/send"
	"github.com/codevcn/thunderchat-client/internal/store"
	"github.com/codevcn/thunderchat-client/internal/unread"
)

// Config carries the engine's tunables.
type Config struct {
	LocalUserID       int64
	PageSize          int
	BackfillBatchSize int
	BackfillMaxEmpty  int
	BackfillInterval  time.Duration
	ReadFraction      float64
	FollowBottomPx    float64
}

// Deps are the collaborators the engine is wired against. Viewport and
// View may be nil when no renderer is attached (headless runs, tests).
type Deps struct {
	History   HistoryAPI
	Push      PushCommands
	Send      send.Transport
	Viewport  unread.Viewport
	View      scroll.View
	Log       *zap.SugaredLogger
	Callbacks Callbacks
}

// pendingPush holds at most one push event that arrived before its
// conversation's window existed. Last write wins; replayed exactly once.
type pendingPush struct {
	conversationID int64
	kind           models.ConversationKind
	event          models.PushEvent
}

// Engine keeps the message window of the single active conversation
// consistent with the history API and the push channel. One engine
// serves both conversation kinds.
//
// All window mutations are serialized behind mu; asynchronous I/O
// completions re-enter through methods that take the lock and verify
// the window epoch, so a result that resolves after a conversation
// switch is discarded rather than merged.
type Engine struct {
	cfg     Config
	history HistoryAPI
	push    PushCommands
	log     *zap.SugaredLogger
	cb      Callbacks

	sends   *send.Coordinator
	tracker *unread.Tracker
	anchor  *scroll.Anchor
	limiter *rate.Limiter

	mu        sync.Mutex
	epoch     uint64
	win       *window
	winCtx    context.Context
	winCancel context.CancelFunc

	inflightOlder    bool
	inflightNewer    bool
	inflightContext  bool
	inflightBackfill bool

	permanentGaps []store.Range
	pending       *pendingPush

	// notifyQueue defers UI callbacks until the lock is released. Each
	// entry carries the epoch it was queued under; entries for a
	// switched-away window are discarded at flush, like stale fetch
	// results.
	notifyQueue []notifyEntry
}

type notifyEntry struct {
	epoch uint64
	fn    func()
}

// New builds the engine and its owned sub-components.
func New(cfg Config, deps Deps) *Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.BackfillBatchSize <= 0 {
		cfg.BackfillBatchSize = cfg.PageSize
	}
	if cfg.BackfillMaxEmpty <= 0 {
		cfg.BackfillMaxEmpty = 3
	}
	if cfg.BackfillInterval <= 0 {
		cfg.BackfillInterval = 200 * time.Millisecond
	}

	e := &Engine{
		cfg:     cfg,
		history: deps.History,
		push:    deps.Push,
		log:     deps.Log,
		cb:      deps.Callbacks,
		anchor:  scroll.NewAnchor(deps.View, cfg.FollowBottomPx),
		limiter: rate.NewLimiter(rate.Every(cfg.BackfillInterval), 1),
	}

	e.tracker = unread.NewTracker(deps.Viewport, deps.Push, cfg.LocalUserID, cfg.ReadFraction, deps.Log,
		func(count int, firstUnreadID *int64) {
			observability.SetUnreadCount(count)
			e.queueNotifyLocked(func() {
				if e.cb.OnUnreadChanged != nil {
					e.cb.OnUnreadChanged(count, firstUnreadID)
				}
			})
		})

	e.sends = send.NewCoordinator(deps.Send, deps.Log, e.handleAck, func(ps models.PendingSend) {
		if e.cb.OnSendStateChanged != nil {
			e.cb.OnSendStateChanged(ps)
		}
	})

	return e
}

// Open makes the conversation the active window, discarding the
// previous one. In-flight fetches for the old window keep running but
// their results are discarded by the epoch guard. The initial page is
// fetched before Open returns; a buffered pre-ready push event for this
// conversation is replayed once afterwards.
func (e *Engine) Open(ctx context.Context, conversationID int64, kind models.ConversationKind) error {
	e.mu.Lock()
	e.teardownLocked()
	e.win = newWindow(conversationID, kind)
	e.winCtx, e.winCancel = context.WithCancel(context.Background())

	var replay *pendingPush
	if e.pending != nil && e.pending.conversationID == conversationID {
		replay = e.pending
		e.pending = nil
	}
	e.mu.Unlock()

	err := e.LoadOlder(ctx)

	if replay != nil {
		e.HandlePush(replay.conversationID, replay.kind, replay.event)
	}
	return err
}

// Close discards the active window.
func (e *Engine) Close() {
	e.mu.Lock()
	e.teardownLocked()
	e.win = nil
	e.mu.Unlock()
}

// Snapshot returns the current window view, or false when no
// conversation is open.
func (e *Engine) Snapshot() (models.WindowSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.win == nil {
		return models.WindowSnapshot{}, false
	}
	return e.win.snapshot(e.tracker.Count(), e.tracker.FirstUnread()), true
}

// Send queues an outgoing message for the active conversation and
// returns its idempotency token. The store only ever holds
// server-confirmed ids; until acknowledgment the message exists solely
// as a PendingSend.
func (e *Engine) Send(ctx context.Context, payload models.SendPayload) (string, bool) {
	e.mu.Lock()
	if e.win == nil {
		e.mu.Unlock()
		return "", false
	}
	conversationID, kind := e.win.conversationID, e.win.kind
	e.mu.Unlock()

	return e.sends.Enqueue(ctx, conversationID, kind, payload), true
}

// RetrySend resubmits a failed send under its original token.
func (e *Engine) RetrySend(ctx context.Context, token string) error {
	return e.sends.Retry(ctx, token)
}

// AbandonSend drops a failed send.
func (e *Engine) AbandonSend(token string) error {
	return e.sends.Abandon(token)
}

// PendingSends lists queued and failed sends for the UI.
func (e *Engine) PendingSends() []models.PendingSend {
	return e.sends.Pending()
}

// ViewportTick re-evaluates read state against the current viewport.
// Cheap enough to call on every scroll tick and store mutation.
func (e *Engine) ViewportTick() {
	e.mu.Lock()
	if e.win == nil {
		e.mu.Unlock()
		return
	}
	newlyRead := e.tracker.Recompute()
	for _, id := range newlyRead {
		e.win.store.MarkSeen(id)
	}
	if len(newlyRead) > 0 {
		e.emitSnapshotLocked()
	}
	e.mu.Unlock()
	e.flushNotifies()
}

// handleAck merges a server-confirmed send through the normal merge
// path. An acknowledgment that targets a no-longer-active conversation
// is discarded.
func (e *Engine) handleAck(msg models.Message) {
	e.mu.Lock()
	if e.win == nil || e.win.conversationID != msg.ConversationID {
		observability.IncStaleResult()
		e.mu.Unlock()
		return
	}
	e.mergeLocked("ack", []models.Message{msg})
	e.advanceOffsetLocked(msg.ID)
	e.emitSnapshotLocked()
	e.queueFollowTailLocked(true)
	e.mu.Unlock()
	e.flushNotifies()
}

// mergeLocked is the single merge path all sources converge on.
func (e *Engine) mergeLocked(source string, msgs []models.Message) store.MergeResult {
	res := e.win.store.Merge(msgs)
	observability.IncMerge(source, res.Added)
	e.tracker.Observe(msgs)
	e.scheduleBackfillLocked(res.Gaps)
	return res
}

// advanceOffsetLocked moves the reconnection offset cursor forward and
// echoes it to the push channel. Never moves backwards.
func (e *Engine) advanceOffsetLocked(id int64) {
	if id <= e.win.offsetCursor {
		return
	}
	e.win.offsetCursor = id
	if e.push != nil {
		if err := e.push.SetOffset(e.win.conversationID, id); err != nil {
			e.log.Warnw("set offset failed", "conversation_id", e.win.conversationID, "last_seen_id", id, "error", err)
		}
	}
}

func (e *Engine) emitSnapshotLocked() {
	snap := e.win.snapshot(e.tracker.Count(), e.tracker.FirstUnread())
	e.queueNotifyLocked(func() {
		if e.cb.OnSnapshot != nil {
			e.cb.OnSnapshot(snap)
		}
	})
}

func (e *Engine) reportFetchErrorLocked(op string, err error) {
	e.log.Warnw("history fetch failed", "op", op, "error", err)
	e.queueNotifyLocked(func() {
		if e.cb.OnFetchError != nil {
			e.cb.OnFetchError(op, err)
		}
	})
}

func (e *Engine) teardownLocked() {
	e.epoch++
	if e.winCancel != nil {
		e.winCancel()
		e.winCancel = nil
	}
	e.inflightOlder = false
	e.inflightNewer = false
	e.inflightContext = false
	e.inflightBackfill = false
	e.permanentGaps = nil
	e.notifyQueue = nil
	e.tracker.Reset()
	e.sends.Reset()
	observability.SetUnreadCount(0)
}

// Anchor corrections run through the notify queue, after the snapshot
// entry, so they execute once the renderer has applied the mutation. A
// correction computed against pre-render geometry would see no height
// delta.
func (e *Engine) queueAnchorRestoreLocked(mark scroll.Mark) {
	e.queueNotifyLocked(func() { e.anchor.Restore(mark) })
}

// queueFollowTailLocked decides against pre-render geometry whether a
// forward arrival should pull the viewport down, and defers the scroll
// itself until the renderer has appended the content.
func (e *Engine) queueFollowTailLocked(authoredLocally bool) {
	if !authoredLocally && !e.anchor.NearBottom() {
		return
	}
	e.queueNotifyLocked(func() { e.anchor.FollowTail(true) })
}

func (e *Engine) queueNotifyLocked(f func()) {
	e.notifyQueue = append(e.notifyQueue, notifyEntry{epoch: e.epoch, fn: f})
}

func (e *Engine) flushNotifies() {
	e.mu.Lock()
	queue := e.notifyQueue
	e.notifyQueue = nil
	e.mu.Unlock()
	for _, n := range queue {
		e.mu.Lock()
		stale := n.epoch != e.epoch
		e.mu.Unlock()
		if stale {
			continue
		}
		n.fn()
	}
}
