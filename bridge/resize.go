package bridge

import (
	"sync"
	"time"
)

// resizeDebounce matches SPEC_FULL.md's ~100ms debounced grid-resize
// callback.
const resizeDebounce = 100 * time.Millisecond

// ResizeForwarder owns the bridge's one emulator-adjacency task:
// recomputing emulator columns/rows from a container size and forwarding
// the debounced result to the supervisor's Resize. It lives alongside a
// Bridge but is independent of it (a host may resize before any data has
// ever flowed).
type ResizeForwarder struct {
	mu       sync.Mutex
	timer    *time.Timer
	debounce time.Duration
	forward  func(cols, rows int)
}

// NewResizeForwarder returns a forwarder that calls forward at most once
// per debounce window, with the most recently requested size.
func NewResizeForwarder(forward func(cols, rows int)) *ResizeForwarder {
	return &ResizeForwarder{debounce: resizeDebounce, forward: forward}
}

// Request schedules a forward(cols, rows) call after the debounce window,
// canceling and replacing any call already pending.
func (r *ResizeForwarder) Request(cols, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.forward(cols, rows)
	})
}

// Cancel stops any pending forward call.
func (r *ResizeForwarder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}
