package supervisor

import (
	"sync"
	"sync/atomic"
	"time"
)

// ringBufferStats summarizes a history buffer for diagnostics.
type ringBufferStats struct {
	TotalChunks     int
	UsedChunks      int
	TotalBytes      int64
	WriteCount      int64
	ReadCount       int64
	OldestTimestamp int64
	NewestTimestamp int64
}

// ringBuffer stores fixed-capacity chunks of PTY output in FIFO order so a
// late-attaching subscriber can replay recent scrollback. This is in-memory,
// per-session, process-lifetime-only storage (spec.md's "no persistence of
// output history across supervisor restarts" Non-goal is about surviving a
// supervisor restart, not about replay within one running supervisor).
type ringBuffer struct {
	chunks []DataChunk
	head   int
	tail   int
	size   int
	full   bool

	totalBytes   int64
	writeCount   int64
	readCount    int64
	nextSequence int64

	mu sync.RWMutex
}

func newRingBuffer(size int) *ringBuffer {
	if size <= 0 {
		size = 2048
	}
	return &ringBuffer{
		chunks:       make([]DataChunk, size),
		size:         size,
		nextSequence: 1,
	}
}

func (rb *ringBuffer) write(data []byte) {
	if len(data) == 0 {
		return
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.full {
		old := rb.chunks[rb.head]
		atomic.AddInt64(&rb.totalBytes, -int64(old.Size))
		rb.tail = (rb.tail + 1) % rb.size
	}

	chunk := DataChunk{
		Sequence:  atomic.LoadInt64(&rb.nextSequence),
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		Size:      len(data),
	}
	rb.chunks[rb.head] = chunk

	atomic.AddInt64(&rb.totalBytes, int64(len(data)))
	atomic.AddInt64(&rb.writeCount, 1)
	atomic.AddInt64(&rb.nextSequence, 1)

	rb.head = (rb.head + 1) % rb.size
	rb.full = rb.head == rb.tail
}

// readAll returns all retained chunks in chronological order.
func (rb *ringBuffer) readAll() []DataChunk {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	atomic.AddInt64(&rb.readCount, 1)

	if rb.isEmptyLocked() {
		return []DataChunk{}
	}

	used := rb.usedChunksLocked()
	result := make([]DataChunk, 0, used)
	for i := 0; i < used; i++ {
		idx := (rb.tail + i) % rb.size
		chunk := rb.chunks[idx]
		if chunk.Data == nil {
			continue
		}
		cp := DataChunk{Sequence: chunk.Sequence, Timestamp: chunk.Timestamp, Size: chunk.Size}
		cp.Data = make([]byte, len(chunk.Data))
		copy(cp.Data, chunk.Data)
		result = append(result, cp)
	}
	return result
}

func (rb *ringBuffer) clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i := range rb.chunks {
		rb.chunks[i] = DataChunk{}
	}
	rb.head, rb.tail, rb.full = 0, 0, false
	atomic.StoreInt64(&rb.totalBytes, 0)
}

func (rb *ringBuffer) stats() ringBufferStats {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	used := rb.usedChunksLocked()
	var oldest, newest int64
	if used > 0 {
		oldest = rb.chunks[rb.tail].Timestamp
		newestIdx := rb.head - 1
		if newestIdx < 0 {
			newestIdx = rb.size - 1
		}
		newest = rb.chunks[newestIdx].Timestamp
	}

	return ringBufferStats{
		TotalChunks:     rb.size,
		UsedChunks:      used,
		TotalBytes:      atomic.LoadInt64(&rb.totalBytes),
		WriteCount:      atomic.LoadInt64(&rb.writeCount),
		ReadCount:       atomic.LoadInt64(&rb.readCount),
		OldestTimestamp: oldest,
		NewestTimestamp: newest,
	}
}

func (rb *ringBuffer) isEmptyLocked() bool {
	return !rb.full && rb.head == rb.tail
}

func (rb *ringBuffer) usedChunksLocked() int {
	if rb.full {
		return rb.size
	}
	if rb.head >= rb.tail {
		return rb.head - rb.tail
	}
	return rb.size - rb.tail + rb.head
}
