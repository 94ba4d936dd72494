package gateway

import (
	"runtime"
	"time"
)

// ServerStats is a lightweight process and feed summary for dashboards.
type ServerStats struct {
	Goroutines  int            `json:"goroutines"`
	HeapAllocMB float64        `json:"heap_alloc_mb"`
	SysMB       float64        `json:"sys_mb"`
	GCRuns      uint32         `json:"gc_runs"`
	UptimeSec   int64          `json:"uptime_sec"`
	Clients     int            `json:"ws_clients"`
	TickSeq     int64          `json:"tick_seq"`
	Tokens      int            `json:"tokens"`
	Latency     LatencySummary `json:"tick_to_emit"`
	ReplayLen   int            `json:"replay_len"`
	TS          string         `json:"ts"`
}

// CollectStats gathers runtime and hub figures.
func CollectStats(h *Hub, start time.Time) ServerStats {
	latest := h.Latest()
	s := ServerStats{
		Goroutines: runtime.NumGoroutine(),
		UptimeSec:  int64(time.Since(start).Seconds()),
		Clients:    h.ClientCount(),
		TickSeq:    latest.Seq,
		Tokens:     len(latest.Tokens),
		TS:         time.Now().UTC().Format(time.RFC3339Nano),
	}
	if h.Latency != nil {
		s.Latency = h.Latency.Summary()
	}
	s.ReplayLen = h.replay.Len()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAllocMB = float64(ms.HeapAlloc) / 1024 / 1024
	s.SysMB = float64(ms.Sys) / 1024 / 1024
	s.GCRuns = ms.NumGC

	return s
}
