// Package market owns the canonical set of token records and their simulated
// evolution over time.
package market

import (
	"sync"
	"time"

	"dexscan/internal/model"
	"dexscan/internal/rng"
)

// Store is the sole owner of the token records. Ticks are applied under the
// write lock, so readers only ever see whole ticks.
type Store struct {
	mu     sync.RWMutex
	tokens []model.Token
	index  map[string]int
	seq    int64
	ts     time.Time
	src    rng.Source

	// Now stamps snapshots. Defaults to time.Now.
	Now func() time.Time
}

// NewStore seeds a store from catalog using src for every random draw,
// including later ticks.
func NewStore(catalog Catalog, src rng.Source) *Store {
	tokens := Generate(catalog, src)
	index := make(map[string]int, len(tokens))
	for i := range tokens {
		index[tokens[i].ID] = i
	}
	s := &Store{
		tokens: tokens,
		index:  index,
		src:    src,
		Now:    time.Now,
	}
	s.ts = s.Now().UTC()
	return s
}

// Tick applies one simulated update to every record and returns the resulting snapshot.
func (s *Store) Tick() model.Snapshot {
	s.mu.Lock()
	ApplyTick(s.tokens, s.src)
	s.seq++
	s.ts = s.Now().UTC()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.Snapshot {
	out := make([]model.Token, len(s.tokens))
	for i := range s.tokens {
		out[i] = s.tokens[i].Clone()
	}
	return model.Snapshot{Seq: s.seq, TS: s.ts, Tokens: out}
}

// Get returns a copy of the token with the given id.
func (s *Store) Get(id string) (model.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Token{}, false
	}
	return s.tokens[i].Clone(), true
}

// Len returns the number of records. It never changes after seeding.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Seq returns the number of ticks applied so far.
func (s *Store) Seq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}
