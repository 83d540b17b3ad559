package model

import (
	"context"
	"time"
)

// ── Port interfaces ──
// These decouple the store and collector from concrete collaborators
// (exchange client, file snapshots, SQLite archive, Redis publisher).

// SymbolInfo is exchange metadata for a discoverable instrument.
type SymbolInfo struct {
	Symbol    string `json:"symbol"`
	Base      string `json:"base"`
	Quote     string `json:"quote"`
	Tradeable bool   `json:"tradeable"`
}

// FeedSource is the external market-data collaborator. All methods may fail
// with a transient error (wrapping ErrFeedUnavailable); the core counts the
// failure and moves on — retry policy belongs to the implementation.
type FeedSource interface {
	// LatestTick fetches the most recent price/volume for one symbol.
	LatestTick(ctx context.Context, symbol string) (Tick, error)

	// HistoricalBars fetches up to count bars at the given resolution
	// (seconds per bar), ordered oldest first.
	HistoricalBars(ctx context.Context, symbol string, resolution, count int) ([]Observation, error)

	// AvailableSymbols lists instruments the exchange currently offers.
	AvailableSymbols(ctx context.Context) ([]SymbolInfo, error)
}

// SnapshotStore persists one durable history snapshot per instrument.
type SnapshotStore interface {
	// Save writes a snapshot atomically (no partially-written file is ever
	// visible to a reader).
	Save(symbol string, h *History) error

	// Load returns the stored history, or ok=false when no snapshot exists
	// or the stored one fails validation (corruption is absence, not error).
	Load(symbol string) (h *History, ok bool)

	// Delete removes a snapshot. Deleting a missing snapshot is success.
	Delete(symbol string) error

	// Stats summarizes every stored snapshot.
	Stats() (StorageStats, error)

	// Cleanup removes snapshots older than maxAge and returns how many
	// were deleted.
	Cleanup(maxAge time.Duration) (int, error)
}

// ArchiveReader serves the middle backfill tier: observations previously
// written to long-term storage.
type ArchiveReader interface {
	// ReadRecent returns up to limit most recent observations for symbol,
	// ordered oldest first.
	ReadRecent(symbol string, limit int) ([]Observation, error)
}

// SignalSink receives computed ensemble results (e.g. the Redis publisher).
type SignalSink interface {
	Publish(ctx context.Context, res EnsembleResult) error
}
