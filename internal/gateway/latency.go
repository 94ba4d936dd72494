package gateway

import (
	"math"
	"sort"
	"sync"
)

// LatencyTracker keeps the most recent tick-to-emit samples (ms) in a ring
// and reports percentiles over them. Thread-safe.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []float64
	pos     int
	count   int
	cap     int
	max     float64
}

// LatencySummary is a point-in-time view of a LatencyTracker.
type LatencySummary struct {
	Count int     `json:"count"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

// NewLatencyTracker creates a tracker that holds the last capacity samples.
func NewLatencyTracker(capacity int) *LatencyTracker {
	if capacity <= 0 {
		capacity = 10000
	}
	return &LatencyTracker{
		samples: make([]float64, capacity),
		cap:     capacity,
	}
}

// Record adds a sample in milliseconds. Negative samples are dropped.
func (lt *LatencyTracker) Record(latencyMs float64) {
	if latencyMs < 0 || math.IsNaN(latencyMs) {
		return
	}
	lt.mu.Lock()
	lt.samples[lt.pos] = latencyMs
	lt.pos = (lt.pos + 1) % lt.cap
	if lt.count < lt.cap {
		lt.count++
	}
	if latencyMs > lt.max {
		lt.max = latencyMs
	}
	lt.mu.Unlock()
}

// Percentiles returns p50, p95, p99 in milliseconds, or zeros when empty.
func (lt *LatencyTracker) Percentiles() (p50, p95, p99 float64) {
	sorted := lt.sorted()
	if len(sorted) == 0 {
		return 0, 0, 0
	}
	return percentile(sorted, 0.50), percentile(sorted, 0.95), percentile(sorted, 0.99)
}

// Summary returns the percentiles together with the sample count and the
// largest sample seen since creation.
func (lt *LatencyTracker) Summary() LatencySummary {
	sorted := lt.sorted()
	lt.mu.Lock()
	max := lt.max
	lt.mu.Unlock()
	s := LatencySummary{Count: len(sorted), Max: max}
	if len(sorted) > 0 {
		s.P50 = percentile(sorted, 0.50)
		s.P95 = percentile(sorted, 0.95)
		s.P99 = percentile(sorted, 0.99)
	}
	return s
}

// Count returns the number of samples held (up to capacity).
func (lt *LatencyTracker) Count() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.count
}

// sorted copies the held samples in ascending order.
func (lt *LatencyTracker) sorted() []float64 {
	lt.mu.Lock()
	n := lt.count
	out := make([]float64, n)
	if n == lt.cap {
		copy(out, lt.samples[lt.pos:])
		copy(out[lt.cap-lt.pos:], lt.samples[:lt.pos])
	} else {
		copy(out, lt.samples[:n])
	}
	lt.mu.Unlock()
	sort.Float64s(out)
	return out
}

// percentile linearly interpolates the p-th percentile (0..1) of sorted.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
