package gateway

import (
	"encoding/json"
	"sync"
)

// replayEntry is one tick envelope kept for backfill.
type replayEntry struct {
	Seq  int64
	Data []byte // pre-built envelope JSON
}

// ReplayBuffer is a fixed-size ring of the most recent tick envelopes,
// ordered by snapshot seq. Viewers that reconnect or notice a seq gap
// recover from it.
//
// Thread-safe for concurrent writes and reads.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []replayEntry
	cap  int
	pos  int // next write position
	full bool
}

// NewReplayBuffer creates a replay buffer holding capacity envelopes.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &ReplayBuffer{
		buf: make([]replayEntry, capacity),
		cap: capacity,
	}
}

// Push appends the envelope for seq, evicting the oldest when full.
// Seqs are expected to arrive in increasing order; a seq at or below the
// newest held is ignored.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if n := rb.len(); n > 0 && rb.buf[rb.index(n-1)].Seq >= seq {
		return
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	rb.buf[rb.pos] = replayEntry{Seq: seq, Data: cp}
	rb.pos = (rb.pos + 1) % rb.cap
	if rb.pos == 0 && !rb.full {
		rb.full = true
	}
}

// Range returns the entries with seq in [fromSeq, toSeq], oldest first.
func (rb *ReplayBuffer) Range(fromSeq, toSeq int64) []replayEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var result []replayEntry
	for i := 0; i < rb.len(); i++ {
		e := rb.buf[rb.index(i)]
		if e.Seq > toSeq {
			break
		}
		if e.Seq >= fromSeq {
			result = append(result, e)
		}
	}
	return result
}

// Since returns the envelopes newer than afterSeq, oldest first.
func (rb *ReplayBuffer) Since(afterSeq int64) []json.RawMessage {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var result []json.RawMessage
	for i := 0; i < rb.len(); i++ {
		if e := rb.buf[rb.index(i)]; e.Seq > afterSeq {
			result = append(result, e.Data)
		}
	}
	return result
}

// Bounds reports the oldest and newest seq held. ok is false when empty.
func (rb *ReplayBuffer) Bounds() (oldest, newest int64, ok bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	n := rb.len()
	if n == 0 {
		return 0, 0, false
	}
	return rb.buf[rb.index(0)].Seq, rb.buf[rb.index(n-1)].Seq, true
}

// Len returns the number of entries currently in the buffer.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *ReplayBuffer) len() int {
	if rb.full {
		return rb.cap
	}
	return rb.pos
}

// index converts a logical index (0 = oldest) to a physical buffer index.
func (rb *ReplayBuffer) index(logical int) int {
	if rb.full {
		return (rb.pos + logical) % rb.cap
	}
	return logical
}
