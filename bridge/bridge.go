// Package bridge implements the frame-batched output bridge: the
// consumer-side component that subscribes to a single session's raw PTY
// output and coalesces it into per-frame writes to the terminal emulator,
// so bursty output never causes one emulator write per kilobyte.
package bridge

import "sync"

// ForceFlushSize is the buffer threshold above which Bridge flushes
// immediately instead of waiting for the next frame tick. Source chunks
// are typically 4-16 KiB; 512 KiB is large enough to allow real
// coalescing while bounding worst-case latency.
const ForceFlushSize = 512 * 1024

// EmulatorSink is the write side of the terminal emulator: an opaque
// consumer of coalesced byte batches. Implemented by whatever terminal
// emulator library a host application embeds.
type EmulatorSink interface {
	Write(data []byte)
}

// Ticker abstracts "wait for the next display frame" so Bridge can be
// driven by a real frame clock in production and by a test double in
// tests without a sleep-based race.
type Ticker interface {
	// Schedule arms the next tick; Stop cancels a pending one if not yet
	// fired; C returns the channel that receives when a scheduled tick fires.
	Schedule()
	Stop()
	C() <-chan struct{}
}

// Bridge buffers bytes from one mounted session and flushes them to an
// EmulatorSink at frame cadence, force-flushing on the size threshold and
// synchronously on teardown.
type Bridge struct {
	mu sync.Mutex

	sink   EmulatorSink
	ticker Ticker

	buffer         []byte
	flushScheduled bool

	stopWatch chan struct{}
	watchDone chan struct{}
}

// New constructs a Bridge writing to sink, using ticker to schedule
// per-frame flushes.
func New(sink EmulatorSink, ticker Ticker) *Bridge {
	b := &Bridge{
		sink:      sink,
		ticker:    ticker,
		stopWatch: make(chan struct{}),
		watchDone: make(chan struct{}),
	}
	go b.watch()
	return b
}

// watch flushes whenever the ticker fires a scheduled tick. It runs for
// the Bridge's whole lifetime; Close stops it.
func (b *Bridge) watch() {
	defer close(b.watchDone)
	for {
		select {
		case <-b.stopWatch:
			return
		case <-b.ticker.C():
			b.mu.Lock()
			if !b.flushScheduled {
				b.mu.Unlock()
				continue
			}
			b.flushLocked()
			b.mu.Unlock()
		}
	}
}

// Append appends a chunk of session output to the buffer. If the buffer
// has reached ForceFlushSize it flushes immediately, canceling any
// pending frame tick; otherwise it schedules one if none is already
// pending. Coalescing never reorders bytes: Append always appends to the
// tail of buffer, and flush always writes the whole buffer in one call.
func (b *Bridge) Append(data []byte) {
	if len(data) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer = append(b.buffer, data...)

	if len(b.buffer) >= ForceFlushSize {
		b.ticker.Stop()
		b.flushScheduled = false
		b.flushLocked()
		return
	}

	if !b.flushScheduled {
		b.flushScheduled = true
		b.ticker.Schedule()
	}
}

// flushLocked writes the whole buffer to the sink in one call and resets
// buffer/flushScheduled. Caller must hold b.mu.
func (b *Bridge) flushLocked() {
	if len(b.buffer) == 0 {
		b.flushScheduled = false
		return
	}
	out := b.buffer
	b.buffer = nil
	b.flushScheduled = false
	b.sink.Write(out)
}

// Teardown cancels any pending tick and flushes synchronously, so no byte
// appended before teardown is ever dropped. Call this on session switch
// or unmount, before a new Bridge is created for the newly mounted
// session.
func (b *Bridge) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticker.Stop()
	b.flushLocked()
}

// Close stops the bridge's background watch goroutine. Teardown should be
// called first if any buffered bytes must still reach the sink.
func (b *Bridge) Close() {
	close(b.stopWatch)
	<-b.watchDone
}
