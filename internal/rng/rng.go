// Package rng centralizes every random draw behind an injectable Source so
// seed generation, ticks and chart synthesis are reproducible under test.
package rng

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// Locked is a seeded math/rand source safe for concurrent use.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a source seeded with seed.
func New(seed int64) *Locked {
	return &Locked{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded returns a source seeded from the wall clock.
func NewTimeSeeded() *Locked {
	return New(time.Now().UnixNano())
}

// Float64 returns the next value in [0, 1).
func (l *Locked) Float64() float64 {
	l.mu.Lock()
	v := l.r.Float64()
	l.mu.Unlock()
	return v
}

// Uniform draws from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Floor returns floor(u*n) for a fresh draw u, i.e. an integer in [0, n).
func Floor(src Source, n int) int64 {
	return int64(math.Floor(src.Float64() * float64(n)))
}

// Sequence replays fixed values in order and wraps around. Used by tests.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequence returns a Sequence over values. An empty list always yields 0.5.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next configured value.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0.5
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}
