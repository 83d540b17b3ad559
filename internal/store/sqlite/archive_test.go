package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveReadRecentAscending(t *testing.T) {
	a := openTestArchive(t)

	batch := make([]model.SymbolObservation, 0, 10)
	for i := 1; i <= 10; i++ {
		batch = append(batch, model.SymbolObservation{
			Symbol: "BTC",
			Obs: model.Observation{
				Timestamp: int64(i) * 60_000,
				Close:     100 + float64(i),
				High:      101 + float64(i),
				Low:       99 + float64(i),
				Volume:    1000,
			},
		})
	}
	if err := a.insertBatch(batch); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := a.ReadRecent("BTC", 5)
	if err != nil {
		t.Fatalf("read recent: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("rows = %d, want 5", len(got))
	}
	// The newest five, oldest first.
	for i, o := range got {
		wantTS := int64(6+i) * 60_000
		if o.Timestamp != wantTS {
			t.Errorf("row %d ts = %d, want %d", i, o.Timestamp, wantTS)
		}
	}
}

func TestArchiveUnknownSymbolEmpty(t *testing.T) {
	a := openTestArchive(t)

	got, err := a.ReadRecent("DOGE", 100)
	if err != nil {
		t.Fatalf("read recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("rows = %d, want 0", len(got))
	}

	ts, err := a.LastTimestamp("DOGE")
	if err != nil {
		t.Fatalf("last timestamp: %v", err)
	}
	if ts != 0 {
		t.Errorf("last ts = %d, want 0", ts)
	}
}

func TestArchiveUpsertAndStats(t *testing.T) {
	a := openTestArchive(t)

	obs := model.SymbolObservation{
		Symbol: "ETH",
		Obs:    model.Observation{Timestamp: 60_000, Close: 10, High: 11, Low: 9, Volume: 5},
	}
	if err := a.insertBatch([]model.SymbolObservation{obs, obs}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stats, err := a.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["ETH"] != 1 {
		t.Errorf("duplicate ts not coalesced: count = %d, want 1", stats["ETH"])
	}
}
