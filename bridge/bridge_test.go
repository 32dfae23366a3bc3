package bridge

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	writes [][]byte
}

func (s *recordingSink) Write(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), data...)
	s.writes = append(s.writes, cp)
}

func (s *recordingSink) snapshot() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.writes...)
}

func TestAppendSchedulesOneFlushPerFrame(t *testing.T) {
	sink := &recordingSink{}
	ticker := NewChannelTicker()
	b := New(sink, ticker)
	defer b.Close()

	b.Append([]byte("hello"))
	b.Append([]byte(" world"))

	if ticker.Scheduled != 1 {
		t.Fatalf("expected exactly one scheduled tick for two appends before any flush, got %d", ticker.Scheduled)
	}

	ticker.Fire()
	waitFor(t, func() bool { return len(sink.snapshot()) == 1 })

	writes := sink.snapshot()
	if !bytes.Equal(writes[0], []byte("hello world")) {
		t.Fatalf("expected coalesced single write, got %q", writes[0])
	}
}

func TestForceFlushOnSizeThreshold(t *testing.T) {
	sink := &recordingSink{}
	ticker := NewChannelTicker()
	b := New(sink, ticker)
	defer b.Close()

	chunk := bytes.Repeat([]byte{'x'}, 131072)
	b.Append(chunk)
	b.Append(chunk)
	b.Append(chunk)

	if len(sink.snapshot()) != 0 {
		t.Fatalf("expected no flush yet after 3*131072 bytes (below 512KiB)")
	}

	b.Append(chunk) // 4th chunk crosses FORCE_FLUSH_SIZE = 512 KiB

	waitFor(t, func() bool { return len(sink.snapshot()) == 1 })

	writes := sink.snapshot()
	if len(writes[0]) != ForceFlushSize {
		t.Fatalf("expected exactly one %d-byte emulator write, got %d", ForceFlushSize, len(writes[0]))
	}
}

func TestTeardownFlushesSynchronously(t *testing.T) {
	sink := &recordingSink{}
	ticker := NewChannelTicker()
	b := New(sink, ticker)
	defer b.Close()

	b.Append([]byte("pending"))
	b.Teardown()

	writes := sink.snapshot()
	if len(writes) != 1 || !bytes.Equal(writes[0], []byte("pending")) {
		t.Fatalf("expected teardown to flush buffered bytes synchronously, got %v", writes)
	}
}

func TestTeardownWithEmptyBufferWritesNothing(t *testing.T) {
	sink := &recordingSink{}
	ticker := NewChannelTicker()
	b := New(sink, ticker)
	defer b.Close()

	b.Teardown()

	if len(sink.snapshot()) != 0 {
		t.Fatalf("expected no write for an empty buffer teardown")
	}
}

func TestCoalescingPreservesOrder(t *testing.T) {
	sink := &recordingSink{}
	ticker := NewChannelTicker()
	b := New(sink, ticker)
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Append([]byte{byte('a' + i)})
	}
	b.Teardown()

	writes := sink.snapshot()
	if len(writes) != 1 || !bytes.Equal(writes[0], []byte("abcde")) {
		t.Fatalf("expected bytes to be written in append order, got %v", writes)
	}
}

func TestResizeForwarderDebouncesToMostRecentSize(t *testing.T) {
	var mu sync.Mutex
	var calls [][2]int

	r := NewResizeForwarder(func(cols, rows int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{cols, rows})
	})

	r.Request(80, 24)
	r.Request(100, 30)
	r.Request(120, 40)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if calls[0] != [2]int{120, 40} {
		t.Fatalf("expected only the most recent size to be forwarded, got %v", calls)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
