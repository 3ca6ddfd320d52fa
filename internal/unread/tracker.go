package unread

import (
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/models"
)

// Bounds is the rendered geometry of one message, in the same
// coordinate space as the viewport's visible bottom edge.
type Bounds struct {
	Top     float64
	Bottom  float64
	Visible bool
}

// Viewport is the abstract viewport model the tracker reads geometry
// from, so read tracking carries no dependency on any particular
// rendering technology.
type Viewport interface {
	VisibleBottom() float64
	MessageBounds(messageID int64) (Bounds, bool)
}

// SeenSink receives the read-receipt signal for a message the local
// user has seen.
type SeenSink interface {
	MarkSeen(messageID int64, recipientID int64) error
}

// Tracker classifies held messages as read or unread from viewport
// visibility. Once an id leaves the unread set it never re-enters it
// for the lifetime of the window.
type Tracker struct {
	viewport    Viewport
	sink        SeenSink
	log         *zap.SugaredLogger
	localUserID int64
	// readFraction is the fraction of a message's own height below the
	// visible bottom edge within which its trailing edge counts as read.
	readFraction float64

	unread      map[int64]struct{}
	read        map[int64]struct{}
	firstUnread *int64

	onChanged func(count int, firstUnreadID *int64)
}

// NewTracker builds a Tracker for one window lifetime.
func NewTracker(viewport Viewport, sink SeenSink, localUserID int64, readFraction float64, log *zap.SugaredLogger, onChanged func(int, *int64)) *Tracker {
	return &Tracker{
		viewport:     viewport,
		sink:         sink,
		log:          log,
		localUserID:  localUserID,
		readFraction: readFraction,
		unread:       make(map[int64]struct{}),
		read:         make(map[int64]struct{}),
		onChanged:    onChanged,
	}
}

// Observe registers newly merged messages as unread candidates.
// Messages authored locally or already seen never enter the set.
func (t *Tracker) Observe(msgs []models.Message) {
	changed := false
	for _, msg := range msgs {
		if msg.AuthorID == t.localUserID || msg.Status == models.StatusSeen {
			continue
		}
		if _, done := t.read[msg.ID]; done {
			continue
		}
		if _, ok := t.unread[msg.ID]; ok {
			continue
		}
		t.unread[msg.ID] = struct{}{}
		if t.firstUnread == nil || msg.ID < *t.firstUnread {
			id := msg.ID
			t.firstUnread = &id
		}
		changed = true
	}
	if changed {
		t.notify()
	}
}

// Recompute re-classifies the unread set against the current viewport
// and returns the ids that just became read. Safe to call on every
// scroll tick and every store mutation; already-read ids are never
// re-counted.
func (t *Tracker) Recompute() []int64 {
	if t.viewport == nil || len(t.unread) == 0 {
		return nil
	}

	visibleBottom := t.viewport.VisibleBottom()
	var newlyRead []int64
	anyHidden := false

	for id := range t.unread {
		b, ok := t.viewport.MessageBounds(id)
		if !ok {
			continue
		}
		limit := visibleBottom + t.readFraction*(b.Bottom-b.Top)
		if b.Bottom <= limit {
			newlyRead = append(newlyRead, id)
			continue
		}
		if !b.Visible {
			anyHidden = true
		}
	}

	for _, id := range newlyRead {
		delete(t.unread, id)
		t.read[id] = struct{}{}
		if t.firstUnread != nil && *t.firstUnread == id {
			t.firstUnread = nil
		}
		if t.sink != nil {
			if err := t.sink.MarkSeen(id, t.localUserID); err != nil {
				t.log.Warnw("mark seen signal failed", "message_id", id, "error", err)
			}
		}
	}
	if t.firstUnread == nil {
		t.recomputeFirstUnread()
	}

	if len(newlyRead) > 0 || anyHidden {
		t.notify()
	}
	return newlyRead
}

// Count returns the current unread count.
func (t *Tracker) Count() int {
	return len(t.unread)
}

// FirstUnread returns the oldest unread id, if any.
func (t *Tracker) FirstUnread() *int64 {
	return t.firstUnread
}

// Reset clears all state when the window is discarded.
func (t *Tracker) Reset() {
	t.unread = make(map[int64]struct{})
	t.read = make(map[int64]struct{})
	t.firstUnread = nil
}

func (t *Tracker) recomputeFirstUnread() {
	var first *int64
	for id := range t.unread {
		if first == nil || id < *first {
			v := id
			first = &v
		}
	}
	t.firstUnread = first
}

func (t *Tracker) notify() {
	if t.onChanged != nil {
		t.onChanged(len(t.unread), t.firstUnread)
	}
}
