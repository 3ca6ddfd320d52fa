package scroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codevcn/thunderchat-client/internal/mocks"
	"github.com/codevcn/thunderchat-client/internal/scroll"
)

func TestRestoreCompensatesPrependedContent(t *testing.T) {
	view := &mocks.FakeView{Offset: 150, Content: 1000, Viewport: 400}
	a := scroll.NewAnchor(view, 120)

	mark := a.Capture()
	view.Grow(300) // a page of history inserted above
	a.Restore(mark)

	assert.Equal(t, 450.0, view.ScrollOffset(), "content under the viewport must not move")
}

func TestRestoreNoopWhenHeightUnchanged(t *testing.T) {
	view := &mocks.FakeView{Offset: 150, Content: 1000, Viewport: 400}
	a := scroll.NewAnchor(view, 120)

	mark := a.Capture()
	a.Restore(mark)

	assert.Equal(t, 150.0, view.ScrollOffset())
}

func TestNearBottomThreshold(t *testing.T) {
	view := &mocks.FakeView{Offset: 500, Content: 1000, Viewport: 400}
	a := scroll.NewAnchor(view, 120)
	assert.True(t, a.NearBottom(), "100px from the bottom is within the 120px threshold")

	view.SetScrollOffset(400)
	assert.False(t, a.NearBottom(), "200px from the bottom is beyond the threshold")
}

func TestFollowTailWhenNearBottom(t *testing.T) {
	view := &mocks.FakeView{Offset: 500, Content: 1000, Viewport: 400}
	a := scroll.NewAnchor(view, 120)

	view.Grow(50) // new arrival appended
	assert.True(t, a.FollowTail(false))
	assert.Equal(t, 650.0, view.ScrollOffset())
}

func TestFollowTailSkippedWhenReadingHistory(t *testing.T) {
	view := &mocks.FakeView{Offset: 100, Content: 1000, Viewport: 400}
	a := scroll.NewAnchor(view, 120)

	view.Grow(50)
	assert.False(t, a.FollowTail(false), "arrivals must not yank the viewport away from old messages")
	assert.Equal(t, 100.0, view.ScrollOffset())
}

func TestFollowTailAlwaysForOwnMessages(t *testing.T) {
	view := &mocks.FakeView{Offset: 100, Content: 1000, Viewport: 400}
	a := scroll.NewAnchor(view, 120)

	view.Grow(50)
	assert.True(t, a.FollowTail(true), "sending scrolls to the bottom regardless of position")
	assert.Equal(t, 650.0, view.ScrollOffset())
}

func TestAnchorSafeWithoutView(t *testing.T) {
	a := scroll.NewAnchor(nil, 120)
	mark := a.Capture()
	a.Restore(mark)
	assert.False(t, a.NearBottom())
	assert.False(t, a.FollowTail(true))
}
