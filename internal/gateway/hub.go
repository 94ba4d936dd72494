package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dexscan/internal/logger"
	"dexscan/internal/model"
	"dexscan/internal/rng"
	"dexscan/internal/session"
)

// Hooks receive gateway events for metrics. Any of them may be nil.
type Hooks struct {
	OnClients func(n int)
	OnIntent  func(msgType string)
	OnDrop    func()
	OnDerive  func(d time.Duration)
	OnEmit    func(tickToEmit time.Duration)
}

// Hub manages WebSocket viewers. Each viewer owns a session.Coordinator;
// every snapshot from the store is pushed into all sessions and each viewer
// receives its own re-derived view.
// It acts as a compositor, delegating to focused components:
//   - Broadcaster: envelope construction + per-session fan-out
//   - ReplayBuffer: recent tick envelopes for /api/missed backfill
type Hub struct {
	Src       rng.Source
	TrendingN int
	Hooks     Hooks

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  model.Snapshot

	replay *ReplayBuffer

	// End-to-end latency tracker
	Latency *LatencyTracker

	Broadcaster *Broadcaster
}

// NewHub creates a Hub seeded with the initial store snapshot. src feeds
// detail-chart synthesis for every session.
func NewHub(initial model.Snapshot, src rng.Source, trendingN int) *Hub {
	if src == nil {
		src = rng.NewTimeSeeded()
	}
	h := &Hub{
		Src:       src,
		TrendingN: trendingN,
		clients:   make(map[*Client]bool),
		latest:    initial,
		replay:    NewReplayBuffer(500), // 500 tick envelopes
		Latency:   NewLatencyTracker(10000),
	}
	h.Broadcaster = NewBroadcaster(h)
	return h
}

// Run pushes every snapshot from snapshots to all viewers. Blocks until ctx
// is cancelled or snapshots is closed.
func (h *Hub) Run(ctx context.Context, snapshots <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			h.Broadcaster.Broadcast(snap)
		}
	}
}

// Latest returns the most recent snapshot the hub has seen.
func (h *Hub) Latest() model.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// NewSession returns a coordinator primed with the latest snapshot.
func (h *Hub) NewSession() *session.Coordinator {
	s := session.New(h.Src, h.TrendingN)
	s.Update(h.Latest())
	return s
}

// HandleWSRequest registers an upgraded connection as a viewer and sends it
// the initial view. A positive lastSeq replays the buffered tick envelopes
// after it first, so a reconnecting viewer can fill its gap.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, remote string, lastSeq int64) *Client {
	sid := logger.GenerateSessionID(remote, time.Now())
	client := &Client{
		conn:    conn,
		send:    make(chan []byte, 64),
		hub:     h,
		session: h.NewSession(),
		ctx:     logger.WithSessionID(context.Background(), sid),
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.Hooks.OnClients != nil {
		h.Hooks.OnClients(count)
	}

	log.Printf("[gateway] ws client connected session=%s (%d total)", sid, count)

	if lastSeq > 0 {
		envs := h.replay.Since(lastSeq)
		// Leave room in the send buffer for the initial view.
		if max := cap(client.send) - 1; len(envs) > max {
			envs = envs[len(envs)-max:]
		}
		for _, env := range envs {
			client.trySend(env)
		}
	}
	client.pushView()
	go client.writePump()
	go client.readPump()
	return client
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()
	if h.Hooks.OnClients != nil {
		h.Hooks.OnClients(count)
	}
}

// MissedResponse is the body of /api/missed. Oldest and Newest describe what
// the replay buffer still holds so a client can tell a partial backfill.
type MissedResponse struct {
	Oldest    int64             `json:"oldest"`
	Newest    int64             `json:"newest"`
	Envelopes []json.RawMessage `json:"envelopes"`
}

// GetReplayRange returns buffered tick envelopes with seq in [fromSeq, toSeq].
// Used by the /api/missed REST endpoint for client gap backfill.
func (h *Hub) GetReplayRange(fromSeq, toSeq int64) MissedResponse {
	entries := h.replay.Range(fromSeq, toSeq)
	out := MissedResponse{Envelopes: make([]json.RawMessage, len(entries))}
	for i, e := range entries {
		out.Envelopes[i] = e.Data
	}
	out.Oldest, out.Newest, _ = h.replay.Bounds()
	return out
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartStatsBroadcast sends server stats to all WS clients every interval.
func (h *Hub) StartStatsBroadcast(ctx context.Context, start time.Time, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			envelope, _ := json.Marshal(map[string]interface{}{
				"type":  "stats",
				"stats": CollectStats(h, start),
			})
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- envelope:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}
