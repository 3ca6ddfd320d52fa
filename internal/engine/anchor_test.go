package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/engine"
	"github.com/codevcn/thunderchat-client/internal/mocks"
	"github.com/codevcn/thunderchat-client/internal/models"
)

const msgHeight = 50.0

// newRenderedEngine wires a view whose content height updates only when
// the snapshot callback delivers the mutation, the way a real renderer
// behaves: the engine's anchor corrections must run after that, or they
// measure pre-render geometry and see no delta.
func newRenderedEngine(history *mocks.HistoryAPIMock, push *mocks.PushCommandsMock, view *mocks.FakeView, followPx float64) *engine.Engine {
	return engine.New(engine.Config{
		LocalUserID:      localUserID,
		PageSize:         10,
		BackfillMaxEmpty: 3,
		BackfillInterval: time.Millisecond,
		ReadFraction:     0.5,
		FollowBottomPx:   followPx,
	}, engine.Deps{
		History: history,
		Push:    push,
		Send:    new(mocks.SendTransportMock),
		View:    view,
		Log:     zap.NewNop().Sugar(),
		Callbacks: engine.Callbacks{
			OnSnapshot: func(snap models.WindowSnapshot) {
				view.SetContent(float64(len(snap.Messages)) * msgHeight)
			},
		},
	})
}

func TestLoadOlderKeepsViewportPinnedAfterRender(t *testing.T) {
	history := new(mocks.HistoryAPIMock)
	push := new(mocks.PushCommandsMock)
	view := &mocks.FakeView{Viewport: 400}
	e := newRenderedEngine(history, push, view, 120)

	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(0), engine.DirectionOlder, 10).
		Return(testMsgs(7, 91, 92, 93, 94, 95, 96, 97, 98, 99, 100), nil).Once()
	push.On("SetOffset", int64(7), int64(100)).Return(nil).Once()
	require.NoError(t, e.Open(context.Background(), 7, models.KindDirect))
	require.Equal(t, 500.0, view.ContentHeight())

	view.SetScrollOffset(100)

	// Ten messages of history inserted above the viewport: the offset
	// must move by exactly the rendered height of the new content.
	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(91), engine.DirectionOlder, 10).
		Return(testMsgs(7, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90), nil).Once()
	require.NoError(t, e.LoadOlder(context.Background()))

	assert.Equal(t, 1000.0, view.ContentHeight())
	assert.Equal(t, 600.0, view.ScrollOffset(), "content under the viewport must not move")
}

func TestLiveArrivalFollowsTailAfterRender(t *testing.T) {
	history := new(mocks.HistoryAPIMock)
	push := new(mocks.PushCommandsMock)
	view := &mocks.FakeView{Viewport: 100}
	e := newRenderedEngine(history, push, view, 10)

	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(0), engine.DirectionOlder, 10).
		Return(testMsgs(7, 98, 99, 100), nil).Once()
	push.On("SetOffset", int64(7), int64(100)).Return(nil).Once()
	require.NoError(t, e.Open(context.Background(), 7, models.KindDirect))

	view.SetScrollOffset(50) // exactly at the bottom of 150px of content

	live := testMsg(7, 101)
	push.On("SetOffset", int64(7), int64(101)).Return(nil).Once()
	e.HandlePush(7, models.KindDirect, models.PushEvent{Type: models.EventMessage, Message: &live})

	// The scroll lands at the post-render bottom, including the new
	// message's height.
	assert.Equal(t, 200.0, view.ContentHeight())
	assert.Equal(t, 100.0, view.ScrollOffset())
}

func TestLiveArrivalLeavesHistoryReaderAlone(t *testing.T) {
	history := new(mocks.HistoryAPIMock)
	push := new(mocks.PushCommandsMock)
	view := &mocks.FakeView{Viewport: 100}
	e := newRenderedEngine(history, push, view, 10)

	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(0), engine.DirectionOlder, 10).
		Return(testMsgs(7, 98, 99, 100), nil).Once()
	push.On("SetOffset", int64(7), int64(100)).Return(nil).Once()
	require.NoError(t, e.Open(context.Background(), 7, models.KindDirect))

	view.SetScrollOffset(0) // scrolled up, reading history

	live := testMsg(7, 101)
	push.On("SetOffset", int64(7), int64(101)).Return(nil).Once()
	e.HandlePush(7, models.KindDirect, models.PushEvent{Type: models.EventMessage, Message: &live})

	assert.Equal(t, 0.0, view.ScrollOffset(), "arrivals must not yank the viewport away from old messages")
}

func TestBackfillKeepsViewportPinned(t *testing.T) {
	history := new(mocks.HistoryAPIMock)
	push := new(mocks.PushCommandsMock)
	view := &mocks.FakeView{Viewport: 100}
	e := newRenderedEngine(history, push, view, 10)

	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(0), engine.DirectionOlder, 10).
		Return(testMsgs(7, 1, 2, 5), nil).Once()
	push.On("SetOffset", int64(7), int64(5)).Return(nil).Once()

	release := make(chan struct{})
	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(2), engine.DirectionNewer, 10).
		Run(func(mock.Arguments) { <-release }).
		Return(testMsgs(7, 3, 4, 5), nil).Once()

	require.NoError(t, e.Open(context.Background(), 7, models.KindDirect))
	require.Equal(t, 150.0, view.ContentHeight())

	view.SetScrollOffset(20)
	close(release)

	require.Eventually(t, func() bool {
		return view.ScrollOffset() == 120.0
	}, time.Second, time.Millisecond, "backfilled content above the viewport must shift the offset")
	assert.Equal(t, 250.0, view.ContentHeight())
}
