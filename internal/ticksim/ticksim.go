// Package ticksim drives the token store with periodic simulated feed updates.
package ticksim

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"dexscan/internal/market"
	"dexscan/internal/model"
)

// DefaultInterval is the gap between two simulated feed updates.
const DefaultInterval = 3 * time.Second

// Simulator ticks a Store on a fixed interval until stopped.
// A Simulator runs at most once; call Start again only after Stop has returned.
type Simulator struct {
	Store    *market.Store
	Interval time.Duration
	Clock    clockwork.Clock

	// OnTick receives every snapshot produced by a tick. It is called from the
	// simulator goroutine and must not block for long.
	OnTick func(model.Snapshot)

	// OnApply, when set, receives the wall time each store update took.
	OnApply func(time.Duration)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a Simulator over store with the default interval and the real clock.
func New(store *market.Store, onTick func(model.Snapshot)) *Simulator {
	return &Simulator{
		Store:    store,
		Interval: DefaultInterval,
		Clock:    clockwork.NewRealClock(),
		OnTick:   onTick,
	}
}

// Start begins ticking. The ticker is armed before Start returns, so the first
// update fires one interval after the call. Start is a no-op while running.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	ticker := clock.NewTicker(interval)

	log.Printf("[ticksim] started: %d tokens every %s", s.Store.Len(), interval)
	go s.run(ctx, ticker, s.done)
}

func (s *Simulator) run(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[ticksim] stopped at seq=%d", s.Store.Seq())
			return
		case <-ticker.Chan():
			s.Step()
		}
	}
}

// Step applies a single update immediately and delivers it to OnTick.
func (s *Simulator) Step() model.Snapshot {
	start := time.Now()
	snap := s.Store.Tick()
	if s.OnApply != nil {
		s.OnApply(time.Since(start))
	}
	if s.OnTick != nil {
		s.OnTick(snap)
	}
	return snap
}

// Stop halts ticking and waits for the goroutine to exit. No tick is applied
// after Stop returns. Safe to call when not running.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the simulator goroutine is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
