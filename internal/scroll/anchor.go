package scroll

// View is the abstract scrollable surface the engine corrects. It is
// implemented by the rendering collaborator; the engine never touches
// layout directly.
type View interface {
	ScrollOffset() float64
	ContentHeight() float64
	ViewportHeight() float64
	SetScrollOffset(offset float64)
}

// Mark captures the viewport state before a mutation that may change
// total content height above the current position.
type Mark struct {
	Offset float64
	Height float64
}

// Anchor keeps the user's visual position stable across backward
// history loads and decides whether forward arrivals pull the viewport
// to the bottom.
type Anchor struct {
	view     View
	followPx float64
}

// NewAnchor builds an Anchor. followPx is the distance from the bottom
// within which new arrivals auto-scroll.
func NewAnchor(view View, followPx float64) *Anchor {
	return &Anchor{view: view, followPx: followPx}
}

// Capture records the current offset and content height.
func (a *Anchor) Capture() Mark {
	if a == nil || a.view == nil {
		return Mark{}
	}
	return Mark{Offset: a.view.ScrollOffset(), Height: a.view.ContentHeight()}
}

// Restore adjusts the scroll offset by the height delta since Capture,
// so content the user was looking at stays where it was.
func (a *Anchor) Restore(m Mark) {
	if a == nil || a.view == nil {
		return
	}
	delta := a.view.ContentHeight() - m.Height
	if delta != 0 {
		a.view.SetScrollOffset(m.Offset + delta)
	}
}

// NearBottom reports whether the viewport is within the follow
// threshold of the content bottom.
func (a *Anchor) NearBottom() bool {
	if a == nil || a.view == nil {
		return false
	}
	rest := a.view.ContentHeight() - (a.view.ScrollOffset() + a.view.ViewportHeight())
	return rest <= a.followPx
}

// FollowTail scrolls to the bottom when a forward arrival should be
// followed: the viewport was already near the bottom, or the message
// was authored locally. Returns whether it scrolled.
func (a *Anchor) FollowTail(authoredLocally bool) bool {
	if a == nil || a.view == nil {
		return false
	}
	if !authoredLocally && !a.NearBottom() {
		return false
	}
	a.view.SetScrollOffset(a.view.ContentHeight() - a.view.ViewportHeight())
	return true
}
