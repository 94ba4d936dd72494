package gateway

import (
	"strconv"
	"time"

	"dexscan/internal/model"
)

// Broadcaster constructs envelope JSON and pushes fresh views to every session.
type Broadcaster struct {
	hub *Hub
	now func() time.Time
}

// NewBroadcaster creates a Broadcaster backed by the given Hub.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub, now: time.Now}
}

// Broadcast records snap as the latest state, stores its tick envelope for
// replay, then re-derives and sends every viewer's view.
func (b *Broadcaster) Broadcast(snap model.Snapshot) {
	h := b.hub
	now := b.now().UTC()

	h.mu.Lock()
	h.latest = snap
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.replay.Push(snap.Seq, buildEnvelope("tick", snap.Seq, snap.Seq, now, snap.JSON()))

	for _, c := range clients {
		c.session.Update(snap)
		c.pushView()
	}

	// Tick-to-emit latency
	if !snap.TS.IsZero() {
		d := b.now().Sub(snap.TS)
		if d >= 0 {
			h.Latency.Record(float64(d.Microseconds()) / 1000.0)
			if h.Hooks.OnEmit != nil {
				h.Hooks.OnEmit(d)
			}
		}
	}
}

// buildEnvelope hand-crafts the envelope JSON:
//
//	{"type":"view","seq":3,"tick":41,"ts":"...","data":{...}}
//
// seq is per-stream (per viewer for views, the tick seq for ticks); tick is
// the store snapshot the data was derived from.
func buildEnvelope(typ string, seq, tick int64, ts time.Time, data []byte) []byte {
	buf := make([]byte, 0, len(typ)+len(data)+96)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, typ...)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"tick":`...)
	buf = strconv.AppendInt(buf, tick, 10)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')
	return buf
}
