package mocks

import (
	"sync"

	"github.com/codevcn/thunderchat-client/internal/unread"
)

// FakeViewport is a programmable viewport model for tests. Message
// geometry is set per id; anything unset reports no bounds.
type FakeViewport struct {
	mu     sync.Mutex
	Bottom float64
	bounds map[int64]unread.Bounds
}

func NewFakeViewport(bottom float64) *FakeViewport {
	return &FakeViewport{Bottom: bottom, bounds: make(map[int64]unread.Bounds)}
}

func (v *FakeViewport) SetBounds(id int64, b unread.Bounds) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds[id] = b
}

func (v *FakeViewport) VisibleBottom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Bottom
}

func (v *FakeViewport) MessageBounds(id int64) (unread.Bounds, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.bounds[id]
	return b, ok
}

// FakeView is a programmable scroll surface for tests.
type FakeView struct {
	mu       sync.Mutex
	Offset   float64
	Content  float64
	Viewport float64
}

func (v *FakeView) ScrollOffset() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Offset
}

func (v *FakeView) ContentHeight() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Content
}

func (v *FakeView) ViewportHeight() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Viewport
}

func (v *FakeView) SetScrollOffset(offset float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Offset = offset
}

func (v *FakeView) Grow(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Content += delta
}

func (v *FakeView) SetContent(height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Content = height
}
