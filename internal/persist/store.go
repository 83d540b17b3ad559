// Package persist implements the durable snapshot layer: one JSON file per
// instrument under a data directory. Writes go through a temp file and an
// atomic rename so readers never observe a partially-written snapshot.
// A snapshot that fails structural validation on load is treated as absent
// and removed, which routes the caller to backfill instead.
package persist

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/model"
	"github.com/makoshark2001/trading-bot-core/internal/validate"
)

const snapshotExt = ".json"

// Store reads and writes per-instrument snapshot files.
type Store struct {
	dir string
}

// New creates the snapshot directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the snapshot directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(symbol string) string {
	return filepath.Join(s.dir, sanitize(symbol)+snapshotExt)
}

// sanitize maps a symbol to a safe filename component. Exchange symbols are
// alphanumeric plus "-" and "_"; anything else becomes "_".
func sanitize(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, symbol)
}

// Save writes the history as a snapshot file via write-then-rename.
func (s *Store) Save(symbol string, h *model.History) error {
	if err := validate.History(h); err != nil {
		return fmt.Errorf("persist: refusing to save %s: %w", symbol, err)
	}

	snap := model.NewSnapshot(symbol, h, time.Now().UnixMilli())
	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("persist: marshal %s: %w", symbol, err)
	}

	final := s.path(symbol)
	tmp, err := os.CreateTemp(s.dir, sanitize(symbol)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persist: temp file for %s: %w", symbol, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persist: write %s: %w", symbol, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: close %s: %w", symbol, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: publish %s: %w", symbol, err)
	}
	return nil
}

// Load returns the stored history for symbol. A missing file, unparsable
// JSON, or a snapshot violating the history invariants all return ok=false;
// corrupt files are deleted so the next save starts clean.
func (s *Store) Load(symbol string) (*model.History, bool) {
	data, err := os.ReadFile(s.path(symbol))
	if err != nil {
		return nil, false
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[persist] %s: unparsable snapshot, discarding: %v", symbol, err)
		os.Remove(s.path(symbol))
		return nil, false
	}

	h := snap.ToHistory()
	if err := validate.History(h); err != nil {
		log.Printf("[persist] %s: snapshot failed validation, discarding: %v", symbol, err)
		os.Remove(s.path(symbol))
		return nil, false
	}
	return h, true
}

// Delete removes the snapshot for symbol. Idempotent: deleting a snapshot
// that does not exist is success.
func (s *Store) Delete(symbol string) error {
	err := os.Remove(s.path(symbol))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("persist: delete %s: %w", symbol, err)
	}
	return nil
}

// Stats walks the snapshot directory and summarizes every stored instrument.
func (s *Store) Stats() (model.StorageStats, error) {
	var stats model.StorageStats

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return stats, fmt.Errorf("persist: read dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		points := 0
		if data, err := os.ReadFile(filepath.Join(s.dir, e.Name())); err == nil {
			var snap model.Snapshot
			if json.Unmarshal(data, &snap) == nil {
				points = snap.DataPointCount
			}
		}

		stats.PerInstrument = append(stats.PerInstrument, model.InstrumentStats{
			Symbol:       strings.TrimSuffix(e.Name(), snapshotExt),
			SizeBytes:    info.Size(),
			DataPoints:   points,
			LastModified: info.ModTime().UnixMilli(),
		})
		stats.TotalSizeBytes += info.Size()
		stats.Instruments++
	}
	return stats, nil
}

// Cleanup deletes snapshots whose last-modified time is older than maxAge.
// Returns the number of files removed.
func (s *Store) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("persist: read dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				log.Printf("[persist] cleanup: remove %s: %v", e.Name(), err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
