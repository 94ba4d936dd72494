package redis

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"dexscan/internal/model"
)

// DefaultRetryInterval is how often Run retries a held snapshot.
const DefaultRetryInterval = time.Second

// GuardedPublisher wraps a Publisher with a circuit breaker.
// While the circuit is open only the newest snapshot is held back, since each
// snapshot carries the whole store. A held snapshot is dropped as soon as a
// newer one is published, otherwise Run retries it.
type GuardedPublisher struct {
	pub *Publisher
	cb  *CircuitBreaker

	mu      sync.Mutex
	pending *model.Snapshot
	lastSeq int64

	RetryInterval time.Duration

	// Callbacks
	OnCoalesce func()          // called when a held snapshot is replaced (for metrics)
	OnFlush    func(seq int64) // called after a held snapshot is published
}

// NewGuardedPublisher creates a GuardedPublisher.
func NewGuardedPublisher(p *Publisher, cb *CircuitBreaker) *GuardedPublisher {
	return &GuardedPublisher{
		pub:           p,
		cb:            cb,
		RetryInterval: DefaultRetryInterval,
	}
}

// Publish sends snap through the circuit breaker. When the circuit is open
// or the publish fails, snap is held for a later Flush. Only a failed
// publish returns an error; an open circuit does not.
func (gp *GuardedPublisher) Publish(ctx context.Context, snap model.Snapshot) error {
	err := gp.cb.Execute(func() error {
		return gp.pub.Publish(ctx, snap)
	})
	switch {
	case err == nil:
		gp.markPublished(snap.Seq)
		return nil
	case errors.Is(err, ErrCircuitOpen):
		gp.hold(snap)
		return nil
	default:
		gp.hold(snap)
		return err
	}
}

// Flush retries the held snapshot, if any, through the circuit breaker.
func (gp *GuardedPublisher) Flush(ctx context.Context) error {
	gp.mu.Lock()
	snap := gp.pending
	gp.pending = nil
	gp.mu.Unlock()

	if snap == nil {
		return nil
	}
	if err := gp.Publish(ctx, *snap); err != nil {
		return err
	}
	if gp.Pending() == 0 {
		log.Printf("[redis] flushed held snapshot seq=%d", snap.Seq)
		if gp.OnFlush != nil {
			gp.OnFlush(snap.Seq)
		}
	}
	return nil
}

// Run publishes every snapshot from ch until ctx is cancelled or ch is closed.
// Between snapshots a held one is retried every RetryInterval.
func (gp *GuardedPublisher) Run(ctx context.Context, ch <-chan model.Snapshot) {
	interval := gp.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	retry := time.NewTicker(interval)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := gp.Publish(ctx, snap); err != nil {
				log.Printf("[redis] %v", err)
			}
		case <-retry.C:
			if err := gp.Flush(ctx); err != nil {
				log.Printf("[redis] retry: %v", err)
			}
		}
	}
}

func (gp *GuardedPublisher) markPublished(seq int64) {
	gp.mu.Lock()
	if seq > gp.lastSeq {
		gp.lastSeq = seq
	}
	if gp.pending != nil && gp.pending.Seq <= gp.lastSeq {
		gp.pending = nil
	}
	gp.mu.Unlock()
}

func (gp *GuardedPublisher) hold(snap model.Snapshot) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if snap.Seq <= gp.lastSeq {
		return
	}
	if gp.pending != nil {
		if gp.pending.Seq >= snap.Seq {
			return
		}
		if gp.OnCoalesce != nil {
			gp.OnCoalesce()
		}
	}
	gp.pending = &snap
}

// Pending returns the sequence number of the held snapshot, or 0 if none.
func (gp *GuardedPublisher) Pending() int64 {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.pending == nil {
		return 0
	}
	return gp.pending.Seq
}

// Breaker returns the circuit breaker guarding the publisher.
func (gp *GuardedPublisher) Breaker() *CircuitBreaker { return gp.cb }
