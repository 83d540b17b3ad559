// Package history owns the tracked-instrument set and the bounded rolling
// history per instrument. It orchestrates load-or-backfill on startup,
// validated ingestion with head trimming, snapshot persistence, and the
// indicator + ensemble pass served to consumers.
package history

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/ensemble"
	"github.com/makoshark2001/trading-bot-core/internal/indicator"
	"github.com/makoshark2001/trading-bot-core/internal/metrics"
	"github.com/makoshark2001/trading-bot-core/internal/model"
	"github.com/makoshark2001/trading-bot-core/internal/validate"
)

const (
	// DefaultRetention bounds every rolling history.
	DefaultRetention = 1440

	// DefaultBackfillBars is requested from archive/feed when no snapshot
	// is usable.
	DefaultBackfillBars = 300

	// DefaultResolution is seconds per bar for feed backfill requests.
	DefaultResolution = 300
)

// Config tunes the store. Zero values select the defaults above.
type Config struct {
	Retention    int
	BackfillBars int
	Resolution   int
}

// entry is one instrument's mutable state. Its mutex serializes every
// append/trim/read for that symbol, independent of the others.
type entry struct {
	mu   sync.Mutex
	hist *model.History
}

// Store is the rolling time-series store. The outer RWMutex guards the
// tracked set only; per-symbol data is serialized by the entry mutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	retention    int
	backfillBars int
	resolution   int

	feed      model.FeedSource
	snapshots model.SnapshotStore
	archive   model.ArchiveReader // optional
	engine    *indicator.Engine
	agg       *ensemble.Aggregator
	metrics   *metrics.Metrics // optional

	// archiveCh receives accepted observations for long-term storage.
	archiveCh chan<- model.SymbolObservation

	// onRemove runs after an instrument is untracked, so downstream state
	// keyed by symbol (e.g. the flip watcher) is dropped with it.
	onRemove func(symbol string)
}

// New creates a store. archive and m may be nil; archiveCh may be nil when
// no long-term archive writer is running.
func New(cfg Config, feed model.FeedSource, snapshots model.SnapshotStore,
	archive model.ArchiveReader, engine *indicator.Engine, agg *ensemble.Aggregator,
	m *metrics.Metrics) *Store {

	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.BackfillBars <= 0 {
		cfg.BackfillBars = DefaultBackfillBars
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = DefaultResolution
	}
	return &Store{
		entries:      make(map[string]*entry),
		retention:    cfg.Retention,
		backfillBars: cfg.BackfillBars,
		resolution:   cfg.Resolution,
		feed:         feed,
		snapshots:    snapshots,
		archive:      archive,
		engine:       engine,
		agg:          agg,
		metrics:      m,
	}
}

// SetArchiveChannel wires the channel drained by the SQLite archive writer.
// Accepted observations are offered non-blocking; a full channel drops.
func (s *Store) SetArchiveChannel(ch chan<- model.SymbolObservation) {
	s.archiveCh = ch
}

// SetRemoveHook registers fn to run whenever an instrument is removed.
func (s *Store) SetRemoveHook(fn func(symbol string)) {
	s.onRemove = fn
}

// Initialize tracks every given symbol, loading its snapshot or backfilling
// from archive/feed. One instrument's failure never aborts the others; that
// instrument simply starts empty.
func (s *Store) Initialize(ctx context.Context, symbols []string) {
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		if !s.track(symbol) {
			log.Printf("[store] %s already tracked, skipping", symbol)
			continue
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if !s.loadOrBackfill(ctx, symbol) {
				log.Printf("[store] %s starting empty", symbol)
			}
		}(symbol)
	}
	wg.Wait()
	s.updateTrackedGauge()
}

// track adds symbol to the set with an empty history. Returns false when
// already tracked.
func (s *Store) track(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[symbol]; ok {
		return false
	}
	s.entries[symbol] = &entry{hist: model.NewHistory(s.retention)}
	s.order = append(s.order, symbol)
	return true
}

// loadOrBackfill fills symbol's history from the first usable source:
// snapshot file, archive, then the external feed. Reports whether any
// source produced data; the caller decides what an empty start means.
func (s *Store) loadOrBackfill(ctx context.Context, symbol string) bool {
	if h, ok := s.snapshots.Load(symbol); ok {
		h.Trim(s.retention)
		s.adopt(symbol, h)
		s.countBackfill("snapshot")
		log.Printf("[store] %s restored %d points from snapshot", symbol, h.Len())
		return true
	}

	if s.archive != nil {
		obs, err := s.archive.ReadRecent(symbol, s.backfillBars)
		if err != nil {
			log.Printf("[store] %s archive read: %v", symbol, err)
		} else if n := s.ingestAll(symbol, obs); n > 0 {
			s.countBackfill("archive")
			log.Printf("[store] %s backfilled %d points from archive", symbol, n)
			return true
		}
	}

	bars, err := s.feed.HistoricalBars(ctx, symbol, s.resolution, s.backfillBars)
	if err != nil {
		s.countFeedError()
		s.countBackfill("empty")
		log.Printf("[store] %s feed backfill failed: %v", symbol, err)
		return false
	}
	n := s.ingestAll(symbol, bars)
	if n == 0 {
		s.countBackfill("empty")
		log.Printf("[store] %s feed returned no usable bars", symbol)
		return false
	}
	s.countBackfill("feed")
	log.Printf("[store] %s backfilled %d points from feed", symbol, n)
	return true
}

// adopt replaces symbol's history wholesale. Used only on initialization.
func (s *Store) adopt(symbol string, h *model.History) {
	e := s.entry(symbol)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.hist = h
	e.mu.Unlock()
	s.setHistoryGauge(symbol, h.Len())
}

func (s *Store) ingestAll(symbol string, obs []model.Observation) int {
	n := 0
	for _, o := range obs {
		if s.Ingest(symbol, o) {
			n++
		}
	}
	return n
}

func (s *Store) entry(symbol string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[symbol]
}

// Ingest validates one observation and, on success, appends it to the
// symbol's history and trims to the retention limit. Returns false for an
// invalid observation or an untracked symbol; state is never mutated on
// rejection.
func (s *Store) Ingest(symbol string, o model.Observation) bool {
	if err := validate.Observation(o); err != nil {
		s.countRejected()
		log.Printf("[store] %s rejected observation: %v", symbol, err)
		return false
	}
	e := s.entry(symbol)
	if e == nil {
		s.countRejected()
		return false
	}

	e.mu.Lock()
	e.hist.Append(o)
	e.hist.Trim(s.retention)
	n := e.hist.Len()
	e.mu.Unlock()

	s.countIngested()
	s.setHistoryGauge(symbol, n)

	if s.archiveCh != nil {
		select {
		case s.archiveCh <- model.SymbolObservation{Symbol: symbol, Obs: o}:
		default:
			// Archive lag never blocks ingestion.
		}
	}
	return true
}

// AddInstrument starts tracking symbol and backfills its history. Returns
// false if symbol is already tracked (its history is left untouched), or
// when no backfill source produces data — in that case the symbol is
// untracked again so a failed add leaves no partial state.
func (s *Store) AddInstrument(ctx context.Context, symbol string) bool {
	if !s.track(symbol) {
		return false
	}
	if !s.loadOrBackfill(ctx, symbol) {
		s.untrack(symbol)
		s.dropHistoryGauge(symbol)
		s.updateTrackedGauge()
		log.Printf("[store] add %s rolled back: no backfill source produced data", symbol)
		return false
	}
	s.updateTrackedGauge()
	log.Printf("[store] added instrument %s", symbol)
	return true
}

// untrack removes symbol from the tracked set. Returns false when it was
// not tracked.
func (s *Store) untrack(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[symbol]; !ok {
		return false
	}
	delete(s.entries, symbol)
	for i, sym := range s.order {
		if sym == symbol {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// RemoveInstrument stops tracking symbol and discards its history.
// deleteSnapshot also removes the durable snapshot. Returns false if the
// symbol was not tracked.
func (s *Store) RemoveInstrument(symbol string, deleteSnapshot bool) bool {
	if !s.untrack(symbol) {
		return false
	}

	if deleteSnapshot {
		if err := s.snapshots.Delete(symbol); err != nil {
			log.Printf("[store] %s snapshot delete: %v", symbol, err)
		}
	}
	s.dropHistoryGauge(symbol)
	s.updateTrackedGauge()
	if s.onRemove != nil {
		s.onRemove(symbol)
	}
	log.Printf("[store] removed instrument %s", symbol)
	return true
}

// ReplaceInstruments swaps the tracked set: symbols no longer wanted are
// removed with their snapshots, new ones are added and backfilled, and
// instruments in both sets keep their histories.
func (s *Store) ReplaceInstruments(ctx context.Context, symbols []string) {
	want := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		want[sym] = true
	}

	for _, sym := range s.Tracked() {
		if !want[sym] {
			s.RemoveInstrument(sym, true)
		}
	}
	for _, sym := range symbols {
		s.AddInstrument(ctx, sym)
	}
}

// Tracked returns the tracked symbols in insertion order.
func (s *Store) Tracked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// IsTracked reports whether symbol is in the tracked set.
func (s *Store) IsTracked(symbol string) bool {
	return s.entry(symbol) != nil
}

// GetHistory returns a deep copy of symbol's history, or nil and false for
// an untracked symbol.
func (s *Store) GetHistory(symbol string) (*model.History, bool) {
	e := s.entry(symbol)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Clone(), true
}

// EnsembleSignal runs the full indicator pass over symbol's current
// history and combines the results. Indicator failures degrade inside the
// engine; the only error here is an untracked symbol.
func (s *Store) EnsembleSignal(symbol string) (model.EnsembleResult, error) {
	h, ok := s.GetHistory(symbol)
	if !ok {
		return model.EnsembleResult{}, fmt.Errorf("%w: %s", model.ErrNotTracked, symbol)
	}

	start := time.Now()
	results := s.engine.CalculateAll(h)
	res := s.agg.Combine(symbol, results)
	res.Timestamp = time.Now().UnixMilli()

	if s.metrics != nil {
		s.metrics.EnsembleComputeDur.Observe(time.Since(start).Seconds())
		s.metrics.SignalsComputed.Inc()
		for _, r := range results {
			if !r.Valid() {
				s.metrics.IndicatorErrors.Inc()
			}
		}
	}
	return res, nil
}

// SnapshotOne persists symbol's history now. Empty histories are skipped
// without error.
func (s *Store) SnapshotOne(symbol string) error {
	h, ok := s.GetHistory(symbol)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrNotTracked, symbol)
	}
	if h.Len() == 0 {
		return nil
	}

	start := time.Now()
	if err := s.snapshots.Save(symbol, h); err != nil {
		s.countSnapshotError()
		return fmt.Errorf("snapshot %s: %w", symbol, err)
	}
	if s.metrics != nil {
		s.metrics.SnapshotsSaved.Inc()
		s.metrics.SnapshotDur.Observe(time.Since(start).Seconds())
	}
	return nil
}

// SnapshotAll persists every tracked instrument with a non-empty history.
// Failures are collected per symbol, never aborting the sweep.
func (s *Store) SnapshotAll() map[string]error {
	errs := make(map[string]error)
	for _, symbol := range s.Tracked() {
		if err := s.SnapshotOne(symbol); err != nil {
			errs[symbol] = err
			log.Printf("[store] %v", err)
		}
	}
	return errs
}

// ForceSnapshot persists symbol now, or every tracked instrument when
// symbol is empty. Returns the number of instruments snapshotted.
func (s *Store) ForceSnapshot(symbol string) (int, error) {
	if symbol != "" {
		if err := s.SnapshotOne(symbol); err != nil {
			return 0, err
		}
		return 1, nil
	}
	tracked := s.Tracked()
	errs := s.SnapshotAll()
	if len(errs) > 0 {
		return len(tracked) - len(errs),
			fmt.Errorf("force snapshot: %d of %d instruments failed", len(errs), len(tracked))
	}
	return len(tracked), nil
}

// StorageStats summarizes the durable snapshot files.
func (s *Store) StorageStats() (model.StorageStats, error) {
	return s.snapshots.Stats()
}

// CleanupSnapshots deletes snapshots older than maxAge and returns how
// many were removed. In-memory histories are untouched.
func (s *Store) CleanupSnapshots(maxAge time.Duration) (int, error) {
	return s.snapshots.Cleanup(maxAge)
}

// Shutdown performs one final awaited snapshot sweep. Per-instrument
// failures are logged and reported, not swallowed.
func (s *Store) Shutdown(ctx context.Context) error {
	done := make(chan map[string]error, 1)
	go func() { done <- s.SnapshotAll() }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown snapshot: %w", ctx.Err())
	case errs := <-done:
		if len(errs) > 0 {
			return fmt.Errorf("shutdown snapshot: %d of %d instruments failed",
				len(errs), len(s.Tracked()))
		}
	}
	log.Printf("[store] final snapshot complete for %d instruments", len(s.Tracked()))
	return nil
}

// ── metrics helpers, nil-safe ──

func (s *Store) countIngested() {
	if s.metrics != nil {
		s.metrics.ObservationsIngested.Inc()
	}
}

func (s *Store) countRejected() {
	if s.metrics != nil {
		s.metrics.ObservationsRejected.Inc()
	}
}

func (s *Store) countFeedError() {
	if s.metrics != nil {
		s.metrics.FeedErrors.Inc()
	}
}

func (s *Store) countSnapshotError() {
	if s.metrics != nil {
		s.metrics.SnapshotErrors.Inc()
	}
}

func (s *Store) countBackfill(source string) {
	if s.metrics != nil {
		s.metrics.BackfillsTotal.WithLabelValues(source).Inc()
	}
}

func (s *Store) setHistoryGauge(symbol string, n int) {
	if s.metrics != nil {
		s.metrics.HistoryPoints.WithLabelValues(symbol).Set(float64(n))
	}
}

func (s *Store) dropHistoryGauge(symbol string) {
	if s.metrics != nil {
		s.metrics.HistoryPoints.DeleteLabelValues(symbol)
	}
}

func (s *Store) updateTrackedGauge() {
	if s.metrics != nil {
		s.metrics.TrackedInstruments.Set(float64(len(s.Tracked())))
	}
}
