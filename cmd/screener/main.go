// cmd/screener runs the token screener service: a simulated token store
// ticking on an interval, fanned out to WebSocket viewers, the REST API and,
// when REDIS_ADDR is set, a Redis Pub/Sub channel.
//
// Config (env vars, optionally via .env):
//
//	SCREENER_ADDR     WS + REST listen address  (default ":8080")
//	METRICS_ADDR      /metrics + /healthz       (default ":9090")
//	TICK_INTERVAL_MS  simulator interval        (default 3000)
//	SEED              0 seeds from the clock
//	CATALOG_PATH      YAML catalog; empty uses the built-in 20 listings
//	TRENDING_COUNT    ticker strip length       (default 8)
//	REDIS_ADDR        empty disables publishing
//	REDIS_PASSWORD, REDIS_CHANNEL, LOG_LEVEL
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dexscan/config"
	brokerredis "dexscan/internal/broker/redis"
	"dexscan/internal/gateway"
	"dexscan/internal/logger"
	"dexscan/internal/market"
	"dexscan/internal/marketdata/bus"
	"dexscan/internal/metrics"
	"dexscan/internal/model"
	"dexscan/internal/rng"
	"dexscan/internal/ticksim"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[screener] starting...")
	processStart := time.Now()

	// ---- Config + logging ----
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[screener] invalid config: %v", err)
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init("screener", level)

	// ---- Store ----
	var src *rng.Locked
	if cfg.Seed != 0 {
		src = rng.New(cfg.Seed)
	} else {
		src = rng.NewTimeSeeded()
	}

	catalog := market.DefaultCatalog()
	if cfg.CatalogPath != "" {
		c, err := market.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("[screener] catalog: %v", err)
		}
		catalog = c
	}
	store := market.NewStore(catalog, src)
	slog.Info("store seeded", slog.Int("tokens", store.Len()), slog.Int64("seed", cfg.Seed))

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	prom.TokensTracked.Set(float64(store.Len()))
	health := metrics.NewHealthStatus(cfg.TickInterval())
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, nil)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Fan-out: gateway + optional Redis ----
	tickCh := make(chan model.Snapshot, 64)
	fanout := bus.New(64)
	fanout.OnDrop = func(subscriberIdx int) {
		prom.FanoutDropsTotal.WithLabelValues(strconv.Itoa(subscriberIdx)).Inc()
	}
	hubCh := fanout.Subscribe()

	var redisPub *brokerredis.Publisher
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		client, err := brokerredis.Dial(brokerredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			log.Printf("[screener] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
		} else {
			health.SetRedisConnected(true)
			redisPub = brokerredis.NewPublisher(client, cfg.RedisChannel)
			redisPub.OnPublish = func(d time.Duration, err error) {
				prom.RedisPublishDur.Observe(d.Seconds())
				if err != nil {
					prom.RedisPublishErrors.Inc()
				}
			}

			cb := brokerredis.NewCircuitBreaker(5, 10*time.Second)
			cb.OnStateChange = func(from, to brokerredis.State) {
				prom.RedisCircuitBreakerState.Set(float64(to))
				if to == brokerredis.StateOpen {
					prom.RedisCircuitBreakerTrips.Inc()
				}
				log.Printf("[screener] redis circuit %s -> %s", from, to)
			}
			guarded := brokerredis.NewGuardedPublisher(redisPub, cb)
			guarded.OnCoalesce = prom.RedisCoalescedSnapshots.Inc
			prom.RedisCircuitBreakerState.Set(float64(guarded.Breaker().CurrentState()))

			go guarded.Run(ctx, fanout.Subscribe())
			health.StartLivenessChecker(ctx, redisPub.Client(), 10*time.Second)
			log.Printf("[screener] publishing snapshots to redis %s channel=%s", cfg.RedisAddr, cfg.RedisChannel)
		}
	}

	go fanout.Run(ctx, tickCh)

	// ---- Gateway ----
	hub := gateway.NewHub(store.Snapshot(), src, cfg.TrendingCount)
	hub.Hooks = gateway.Hooks{
		OnClients: func(n int) {
			prom.WSClients.Set(float64(n))
			health.SetClients(n)
		},
		OnIntent: func(msgType string) { prom.WSIntentsTotal.WithLabelValues(msgType).Inc() },
		OnDrop:   prom.WSDropsTotal.Inc,
		OnDerive: func(d time.Duration) { prom.DeriveDur.Observe(d.Seconds()) },
		OnEmit:   func(d time.Duration) { prom.E2ELatency.Observe(d.Seconds()) },
	}
	go hub.Run(ctx, hubCh)
	go hub.StartStatsBroadcast(ctx, processStart, 5*time.Second)

	// ---- Channel saturation ----
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				prom.ChannelSaturationPct.WithLabelValues("ticks").Set(saturation(len(tickCh), cap(tickCh)))
				for i, st := range fanout.ChannelStats() {
					prom.ChannelSaturationPct.WithLabelValues("fanout_" + strconv.Itoa(i)).Set(saturation(st.Len, st.Cap))
				}
			}
		}
	}()

	// ---- Simulator ----
	sim := ticksim.New(store, func(snap model.Snapshot) {
		prom.TicksTotal.Inc()
		health.SetTick(snap.Seq, snap.TS)
		select {
		case tickCh <- snap:
		default:
			log.Printf("[screener] tick channel full, dropping seq=%d", snap.Seq)
		}
	})
	sim.Interval = cfg.TickInterval()
	sim.OnApply = func(d time.Duration) { prom.TickDur.Observe(d.Seconds()) }
	sim.Start(ctx)
	health.SetSimulating(true)

	// ---- HTTP ----
	srv := &http.Server{
		Addr:    cfg.ScreenerAddr,
		Handler: gateway.NewRouter(hub, processStart),
	}
	go func() {
		log.Printf("[screener] ws + rest listening on %s", cfg.ScreenerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[screener] http server: %v", err)
		}
	}()

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[screener] shutdown signal received, cleaning up...")
	sim.Stop()
	health.SetSimulating(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	if redisPub != nil {
		redisPub.Close()
	}

	log.Println("[screener] shutdown complete.")
}

func saturation(n, c int) float64 {
	if c == 0 {
		return 0
	}
	return float64(n) / float64(c) * 100
}
