package gateway

import "testing"

func pushTicks(rb *ReplayBuffer, from, to int64) {
	for i := from; i <= to; i++ {
		rb.Push(i, []byte(`{"type":"tick"}`))
	}
}

func TestReplayBuffer_Range(t *testing.T) {
	rb := NewReplayBuffer(100)
	pushTicks(rb, 1, 10)

	got := rb.Range(3, 7)
	if len(got) != 5 {
		t.Fatalf("Range(3,7): expected 5, got %d", len(got))
	}
	for i, e := range got {
		expected := int64(i) + 3
		if e.Seq != expected {
			t.Errorf("entry[%d].Seq = %d, want %d", i, e.Seq, expected)
		}
	}
}

func TestReplayBuffer_Wraparound(t *testing.T) {
	rb := NewReplayBuffer(5)

	// 8 pushes into 5 slots evict seqs 1..3
	pushTicks(rb, 1, 8)

	if rb.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", rb.Len())
	}

	got := rb.Range(1, 10)
	if len(got) != 5 {
		t.Fatalf("Range(1,10): expected 5, got %d", len(got))
	}
	if got[0].Seq != 4 {
		t.Errorf("oldest entry seq = %d, want 4", got[0].Seq)
	}
	if got[4].Seq != 8 {
		t.Errorf("newest entry seq = %d, want 8", got[4].Seq)
	}

	oldest, newest, ok := rb.Bounds()
	if !ok || oldest != 4 || newest != 8 {
		t.Errorf("Bounds() = (%d, %d, %v), want (4, 8, true)", oldest, newest, ok)
	}
}

func TestReplayBuffer_Empty(t *testing.T) {
	rb := NewReplayBuffer(10)
	if got := rb.Range(1, 100); len(got) != 0 {
		t.Fatalf("empty buffer Range should return 0, got %d", len(got))
	}
	if _, _, ok := rb.Bounds(); ok {
		t.Error("Bounds() on empty buffer reported ok")
	}
	if got := rb.Since(0); len(got) != 0 {
		t.Errorf("Since(0) on empty buffer = %d entries", len(got))
	}
}

func TestReplayBuffer_IgnoresStaleSeq(t *testing.T) {
	rb := NewReplayBuffer(10)
	pushTicks(rb, 1, 3)
	rb.Push(2, []byte("late"))
	rb.Push(3, []byte("dup"))

	if rb.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rb.Len())
	}
	for _, e := range rb.Range(1, 3) {
		if string(e.Data) != `{"type":"tick"}` {
			t.Errorf("seq %d replaced by %q", e.Seq, e.Data)
		}
	}
}

func TestReplayBuffer_Since(t *testing.T) {
	rb := NewReplayBuffer(4)
	pushTicks(rb, 1, 6)

	if got := rb.Since(4); len(got) != 2 {
		t.Errorf("Since(4) = %d entries, want 2", len(got))
	}
	// Older than the ring: everything held comes back.
	if got := rb.Since(0); len(got) != 4 {
		t.Errorf("Since(0) = %d entries, want 4", len(got))
	}
	if got := rb.Since(6); len(got) != 0 {
		t.Errorf("Since(6) = %d entries, want 0", len(got))
	}
}

func TestReplayBuffer_PushCopies(t *testing.T) {
	rb := NewReplayBuffer(4)
	data := []byte("abc")
	rb.Push(1, data)
	data[0] = 'x'

	if got := string(rb.Range(1, 1)[0].Data); got != "abc" {
		t.Errorf("stored data = %q, want abc", got)
	}
}
