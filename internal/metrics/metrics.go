// Package metrics exposes Prometheus metrics and a health endpoint for the
// signal engine.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal engine.
type Metrics struct {
	ObservationsIngested prometheus.Counter
	ObservationsRejected prometheus.Counter
	FeedErrors           prometheus.Counter

	SnapshotsSaved prometheus.Counter
	SnapshotErrors prometheus.Counter
	SnapshotDur    prometheus.Histogram

	// Backfill outcomes by source: snapshot, archive, feed, empty.
	BackfillsTotal *prometheus.CounterVec

	IndicatorErrors    prometheus.Counter
	SignalsComputed    prometheus.Counter
	EnsembleComputeDur prometheus.Histogram
	CollectRoundDur    prometheus.Histogram

	TrackedInstruments prometheus.Gauge
	HistoryPoints      *prometheus.GaugeVec // labels: symbol

	RingBufOverflow prometheus.Counter
	WSReconnects    prometheus.Counter

	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	SignalsPublished         prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_observations_ingested_total",
			Help: "Observations accepted into rolling histories",
		}),
		ObservationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_observations_rejected_total",
			Help: "Observations rejected by validation",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_feed_errors_total",
			Help: "Transient failures fetching from the external feed",
		}),

		SnapshotsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_snapshots_saved_total",
			Help: "Snapshot files written",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_snapshot_errors_total",
			Help: "Snapshot save failures (retried next cycle)",
		}),
		SnapshotDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalengine_snapshot_duration_seconds",
			Help:    "Per-instrument snapshot write latency",
			Buckets: prometheus.DefBuckets,
		}),

		BackfillsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalengine_backfills_total",
			Help: "Instrument initializations by data source",
		}, []string{"source"}),

		IndicatorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_indicator_errors_total",
			Help: "Calculators degraded to a neutral result",
		}),
		SignalsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_signals_computed_total",
			Help: "Ensemble results computed",
		}),
		EnsembleComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalengine_ensemble_compute_duration_seconds",
			Help:    "Latency of one full indicator + ensemble pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		CollectRoundDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalengine_collect_round_duration_seconds",
			Help:    "Wall time of one concurrent collection round",
			Buckets: prometheus.DefBuckets,
		}),

		TrackedInstruments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalengine_tracked_instruments",
			Help: "Instruments currently tracked",
		}),
		HistoryPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "signalengine_history_points",
			Help: "Rolling history length per instrument",
		}, []string{"symbol"}),

		RingBufOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_ringbuf_overflow_total",
			Help: "Live ticks dropped on a full ring buffer",
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_ws_reconnects_total",
			Help: "WebSocket reconnection attempts",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalengine_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		SignalsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_signals_published_total",
			Help: "Ensemble results published to Redis",
		}),
	}

	prometheus.MustRegister(
		m.ObservationsIngested,
		m.ObservationsRejected,
		m.FeedErrors,
		m.SnapshotsSaved,
		m.SnapshotErrors,
		m.SnapshotDur,
		m.BackfillsTotal,
		m.IndicatorErrors,
		m.SignalsComputed,
		m.EnsembleComputeDur,
		m.CollectRoundDur,
		m.TrackedInstruments,
		m.HistoryPoints,
		m.RingBufOverflow,
		m.WSReconnects,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.SignalsPublished,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	FeedOK          bool      `json:"feed_ok"`
	LastCollectTime time.Time `json:"last_collect_time"`
	RedisConnected  bool      `json:"redis_connected"`
	SQLiteOK        bool      `json:"sqlite_ok"`
	TrackedSymbols  []string  `json:"tracked_symbols"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedOK(v bool) {
	h.mu.Lock()
	h.FeedOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCollectTime(t time.Time) {
	h.mu.Lock()
	h.LastCollectTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetTrackedSymbols(symbols []string) {
	h.mu.Lock()
	h.TrackedSymbols = symbols
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

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.FeedOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	collectAge := ""
	if !h.LastCollectTime.IsZero() {
		collectAge = time.Since(h.LastCollectTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		FeedOK          bool     `json:"feed_ok"`
		LastCollectTime string   `json:"last_collect_time"`
		CollectAge      string   `json:"collect_age"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		TrackedSymbols  []string `json:"tracked_symbols"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedOK:          h.FeedOK,
		LastCollectTime: h.LastCollectTime.Format(time.RFC3339),
		CollectAge:      collectAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		TrackedSymbols:  h.TrackedSymbols,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

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

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
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
