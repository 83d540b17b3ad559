package history

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/metrics"
	"github.com/makoshark2001/trading-bot-core/internal/model"
	"github.com/makoshark2001/trading-bot-core/internal/notification"
	"github.com/makoshark2001/trading-bot-core/internal/ringbuf"
)

const (
	// DefaultCollectInterval drives live ingestion rounds.
	DefaultCollectInterval = 5 * time.Minute

	// DefaultSnapshotInterval drives persistence sweeps, decoupled from
	// collection.
	DefaultSnapshotInterval = 5 * time.Minute
)

// CollectorConfig tunes the collector. Zero durations select the defaults.
type CollectorConfig struct {
	CollectInterval  time.Duration
	SnapshotInterval time.Duration
}

// Collector drives the store: a collection ticker fetches the latest tick
// for every tracked instrument concurrently and recomputes signals, and an
// independent snapshot ticker persists histories. Live websocket ticks, if
// enabled, are drained from the ring buffer at the start of each round.
type Collector struct {
	store    *Store
	feed     model.FeedSource
	interval time.Duration
	snapIvl  time.Duration

	ring         *ringbuf.Ring // optional
	lastOverflow uint64

	sink    model.SignalSink            // optional
	watcher *notification.SignalWatcher // optional
	health  *metrics.HealthStatus       // optional
	metrics *metrics.Metrics            // optional
}

// NewCollector creates a collector. ring, sink, watcher, health and m may
// all be nil.
func NewCollector(cfg CollectorConfig, store *Store, feed model.FeedSource,
	ring *ringbuf.Ring, sink model.SignalSink, watcher *notification.SignalWatcher,
	health *metrics.HealthStatus, m *metrics.Metrics) *Collector {

	if cfg.CollectInterval <= 0 {
		cfg.CollectInterval = DefaultCollectInterval
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}
	return &Collector{
		store:    store,
		feed:     feed,
		interval: cfg.CollectInterval,
		snapIvl:  cfg.SnapshotInterval,
		ring:     ring,
		sink:     sink,
		watcher:  watcher,
		health:   health,
		metrics:  m,
	}
}

// Run blocks until ctx is cancelled, then performs the store's final
// snapshot sweep.
func (c *Collector) Run(ctx context.Context) {
	collectTicker := time.NewTicker(c.interval)
	defer collectTicker.Stop()
	snapshotTicker := time.NewTicker(c.snapIvl)
	defer snapshotTicker.Stop()

	log.Printf("[collector] running: collect every %v, snapshot every %v",
		c.interval, c.snapIvl)

	// First round immediately rather than one full interval in.
	c.collectRound(ctx)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := c.store.Shutdown(shutdownCtx); err != nil {
				log.Printf("[collector] %v", err)
			}
			return

		case <-collectTicker.C:
			c.collectRound(ctx)

		case <-snapshotTicker.C:
			if errs := c.store.SnapshotAll(); len(errs) > 0 {
				log.Printf("[collector] snapshot sweep: %d failures", len(errs))
			}
		}
	}
}

// collectRound drains buffered live ticks, then fetches the latest tick
// for every tracked instrument concurrently. One instrument's failure
// never blocks or fails the round for the others.
func (c *Collector) collectRound(ctx context.Context) {
	start := time.Now()
	c.drainRing()

	symbols := c.store.Tracked()
	var wg sync.WaitGroup
	var okCount int64
	var mu sync.Mutex

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if c.collectOne(ctx, symbol) {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}(symbol)
	}
	wg.Wait()

	if c.metrics != nil {
		c.metrics.CollectRoundDur.Observe(time.Since(start).Seconds())
	}
	if c.health != nil {
		c.health.SetLastCollectTime(time.Now())
		c.health.SetFeedOK(len(symbols) == 0 || okCount > 0)
		c.health.SetTrackedSymbols(symbols)
	}
	log.Printf("[collector] round complete: %d/%d instruments in %v",
		okCount, len(symbols), time.Since(start).Round(time.Millisecond))
}

func (c *Collector) collectOne(ctx context.Context, symbol string) bool {
	tick, err := c.feed.LatestTick(ctx, symbol)
	if err != nil {
		c.store.countFeedError()
		log.Printf("[collector] %s fetch failed: %v", symbol, err)
		return false
	}
	if !c.store.Ingest(symbol, tick.Observation()) {
		return false
	}
	c.publish(ctx, symbol)
	return true
}

// drainRing folds buffered websocket ticks into the store. Ticks for
// untracked symbols are dropped by Ingest.
func (c *Collector) drainRing() {
	if c.ring == nil {
		return
	}
	ticks := c.ring.Drain()
	if len(ticks) == 0 {
		return
	}
	n := 0
	for _, t := range ticks {
		if c.store.Ingest(t.Symbol, t.Observation()) {
			n++
		}
	}
	if dropped := c.ring.Overflow(); dropped > c.lastOverflow {
		if c.metrics != nil {
			c.metrics.RingBufOverflow.Add(float64(dropped - c.lastOverflow))
		}
		log.Printf("[collector] ring overflow total: %d", dropped)
		c.lastOverflow = dropped
	}
	log.Printf("[collector] drained %d/%d live ticks", n, len(ticks))
}

// publish computes the ensemble signal and hands it to the sink and the
// flip watcher. Publish failures are logged, never propagated into the
// round.
func (c *Collector) publish(ctx context.Context, symbol string) {
	res, err := c.store.EnsembleSignal(symbol)
	if err != nil {
		// Symbol was removed mid-round.
		return
	}
	if c.sink != nil {
		if err := c.sink.Publish(ctx, res); err != nil {
			log.Printf("[collector] publish %s: %v", symbol, err)
		} else if c.metrics != nil {
			c.metrics.SignalsPublished.Inc()
		}
	}
	if c.watcher != nil {
		c.watcher.Observe(ctx, res)
	}
}
