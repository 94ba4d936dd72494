package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the screener.
type Metrics struct {
	TicksTotal    prometheus.Counter
	TickDur       prometheus.Histogram
	TokensTracked prometheus.Gauge
	DeriveDur     prometheus.Histogram

	// Viewer sessions
	WSClients      prometheus.Gauge
	WSIntentsTotal *prometheus.CounterVec // labels: type
	WSDropsTotal   prometheus.Counter

	// Backpressure
	FanoutDropsTotal     *prometheus.CounterVec // labels: subscriber
	ChannelSaturationPct *prometheus.GaugeVec   // labels: channel_name

	// Redis publisher and its circuit breaker
	RedisPublishDur          prometheus.Histogram
	RedisPublishErrors       prometheus.Counter
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisCoalescedSnapshots  prometheus.Counter

	// End-to-end observability
	E2ELatency prometheus.Histogram // tick-to-WS-emit latency

	// Feed client (feedtail)
	FeedReconnects prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	fast := []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005}

	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_ticks_total",
			Help: "Total simulated ticks applied to the token store",
		}),
		TickDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_tick_duration_seconds",
			Help:    "Time to apply one tick and snapshot the store",
			Buckets: fast,
		}),
		TokensTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_tokens_tracked",
			Help: "Number of token records in the store",
		}),
		DeriveDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_derive_view_duration_seconds",
			Help:    "Filter and sort latency per view computation",
			Buckets: fast,
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_ws_clients",
			Help: "Connected WebSocket viewer sessions",
		}),
		WSIntentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_ws_intents_total",
			Help: "Viewer intents received over WebSocket (by type)",
		}, []string{"type"}),
		WSDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_ws_drops_total",
			Help: "View messages dropped because a client send buffer was full",
		}),

		FanoutDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_fanout_drops_total",
			Help: "Snapshots dropped by FanOut bus per subscriber",
		}, []string{"subscriber"}),
		ChannelSaturationPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "screener_channel_saturation_pct",
			Help: "Channel fill percentage (len/cap * 100)",
		}, []string{"channel_name"}),

		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_redis_publish_duration_seconds",
			Help:    "Redis PUBLISH latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_redis_publish_errors_total",
			Help: "Failed Redis publishes",
		}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisCoalescedSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_redis_coalesced_snapshots_total",
			Help: "Snapshots superseded while the Redis circuit breaker was open",
		}),

		E2ELatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_e2e_latency_seconds",
			Help:    "End-to-end latency from tick to WS emit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedtail_reconnects_total",
			Help: "Total feed client reconnection attempts",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.TickDur,
		m.TokensTracked,
		m.DeriveDur,
		m.WSClients,
		m.WSIntentsTotal,
		m.WSDropsTotal,
		m.FanoutDropsTotal,
		m.ChannelSaturationPct,
		m.RedisPublishDur,
		m.RedisPublishErrors,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisCoalescedSnapshots,
		m.E2ELatency,
		m.FeedReconnects,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	TickInterval   time.Duration `json:"-"`
	LastTickTime   time.Time     `json:"last_tick_time"`
	LastSeq        int64         `json:"last_seq"`
	RedisEnabled   bool          `json:"redis_enabled"`
	RedisConnected bool          `json:"redis_connected"`
	WSConnected    bool          `json:"ws_connected"`
	Simulating     bool          `json:"simulating"`
	Clients        int           `json:"clients"`

	// Liveness probe results
	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`

	now func() time.Time
}

// NewHealthStatus returns a default health status for a ticker running every interval.
func NewHealthStatus(interval time.Duration) *HealthStatus {
	return &HealthStatus{
		TickInterval: interval,
		StartedAt:    time.Now(),
		now:          time.Now,
	}
}

func (h *HealthStatus) SetTick(seq int64, t time.Time) {
	h.mu.Lock()
	h.LastSeq = seq
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetWSConnected(v bool) {
	h.mu.Lock()
	h.WSConnected = v
	h.mu.Unlock()
}

// SetSimulating records whether the tick simulator is running.
func (h *HealthStatus) SetSimulating(v bool) {
	h.mu.Lock()
	h.Simulating = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetClients(n int) {
	h.mu.Lock()
	h.Clients = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	if rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckRedis(probeCtx, rdb)
				cancel()
			}
		}
	}()
}

// Report is the /healthz body.
type Report struct {
	Status         string  `json:"status"`
	Uptime         string  `json:"uptime"`
	LastTickTime   string  `json:"last_tick_time"`
	TickAge        string  `json:"tick_age"`
	LastSeq        int64   `json:"last_seq"`
	RedisEnabled   bool    `json:"redis_enabled"`
	RedisConnected bool    `json:"redis_connected"`
	RedisLatencyMs float64 `json:"redis_latency_ms"`
	LastCheckAt    string  `json:"last_check_at"`
	Simulating     bool    `json:"simulating"`
	Clients        int     `json:"clients"`
	WSConnected    bool    `json:"ws_connected"`
}

// Report evaluates the current health. Ticks older than three intervals mark
// the service unhealthy; a configured but unreachable Redis marks it degraded.
func (h *HealthStatus) Report() (Report, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	overallStatus := "healthy"
	httpCode := http.StatusOK

	if h.RedisEnabled && !h.RedisConnected {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	stale := h.LastTickTime.IsZero() && now.Sub(h.StartedAt) > 3*h.TickInterval ||
		!h.LastTickTime.IsZero() && now.Sub(h.LastTickTime) > 3*h.TickInterval
	if stale {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = now.Sub(h.LastTickTime).Round(time.Millisecond).String()
	}

	return Report{
		Status:         overallStatus,
		Uptime:         now.Sub(h.StartedAt).Round(time.Second).String(),
		LastTickTime:   h.LastTickTime.Format(time.RFC3339),
		TickAge:        tickAge,
		LastSeq:        h.LastSeq,
		RedisEnabled:   h.RedisEnabled,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
		Simulating:     h.Simulating,
		Clients:        h.Clients,
		WSConnected:    h.WSConnected,
	}, httpCode
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, httpCode := h.Report()
	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server. A nil gatherer serves the
// default Prometheus registry.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Handler exposes the server's mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
