package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TicksTotal.Inc()
	m.TicksTotal.Inc()
	m.FanoutDropsTotal.WithLabelValues("gateway").Inc()

	if got := testutil.ToFloat64(m.TicksTotal); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FanoutDropsTotal.WithLabelValues("gateway")); got != 1 {
		t.Errorf("drops = %v, want 1", got)
	}

	// A second registry accepts the same names.
	NewMetrics(prometheus.NewRegistry())
}

func newHealth(now time.Time) *HealthStatus {
	h := NewHealthStatus(time.Second)
	h.StartedAt = now.Add(-time.Minute)
	h.now = func() time.Time { return now }
	return h
}

func TestHealth_Report(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h := newHealth(now)
	if r, code := h.Report(); r.Status != "unhealthy" || code != http.StatusServiceUnavailable {
		t.Errorf("no ticks after a minute: %s %d", r.Status, code)
	}

	h.SetTick(5, now.Add(-500*time.Millisecond))
	if r, code := h.Report(); r.Status != "healthy" || code != http.StatusOK || r.LastSeq != 5 {
		t.Errorf("fresh tick: %+v %d", r, code)
	}

	h.SetRedisEnabled(true)
	if r, _ := h.Report(); r.Status != "degraded" {
		t.Errorf("redis down: %s", r.Status)
	}
	h.SetRedisConnected(true)
	if r, _ := h.Report(); r.Status != "healthy" {
		t.Errorf("redis up: %s", r.Status)
	}

	h.SetSimulating(true)
	h.SetClients(3)
	if r, _ := h.Report(); !r.Simulating || r.Clients != 3 {
		t.Errorf("simulator/clients not reported: %+v", r)
	}

	h.SetTick(6, now.Add(-5*time.Second))
	if r, _ := h.Report(); r.Status != "unhealthy" {
		t.Errorf("stale tick: %s", r.Status)
	}
}

func TestServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TicksTotal.Inc()

	h := newHealth(time.Now())
	h.SetTick(1, time.Now())
	srv := NewServer(":0", h, reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "screener_ticks_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var r Report
	if err := json.NewDecoder(rec.Body).Decode(&r); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || r.Status != "healthy" {
		t.Errorf("healthz = %d %+v", rec.Code, r)
	}
}
