// Package sqlite keeps a long-term archive of every accepted observation.
// The archive is the middle backfill tier: consulted when an instrument has
// no usable snapshot, before falling back to the external feed.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// Archive is a single-writer SQLite store with transaction batching.
type Archive struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (a *Archive) DB() *sql.DB { return a.db }

// Open creates the archive at dbPath, enabling WAL mode and creating the
// schema if needed.
func Open(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer keeps the WAL happy.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened archive at %s", dbPath)
	return &Archive{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS observations (
			symbol  TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			close   REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			volume  REAL    NOT NULL,
			PRIMARY KEY (symbol, ts)
		);
	`)
	return err
}

// Run reads accepted observations from obsCh and inserts them in batched
// transactions. Flushes every defaultBatchSize rows or every
// defaultFlushDelay, whichever comes first. Blocks until ctx is cancelled
// or obsCh is closed.
func (a *Archive) Run(ctx context.Context, obsCh <-chan model.SymbolObservation) {
	batch := make([]model.SymbolObservation, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := a.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else {
			log.Printf("[sqlite] committed %d observations in %v", len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case obs, ok := <-obsCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, obs)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (a *Archive) insertBatch(batch []model.SymbolObservation) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO observations (symbol, ts, close, high, low, volume)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, so := range batch {
		o := so.Obs
		if _, err := stmt.Exec(so.Symbol, o.Timestamp, o.Close, o.High, o.Low, o.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReadRecent returns up to count archived observations for symbol, ordered
// by timestamp ascending for correct replay order.
func (a *Archive) ReadRecent(symbol string, count int) ([]model.Observation, error) {
	rows, err := a.db.Query(`
		SELECT ts, close, high, low, volume FROM (
			SELECT ts, close, high, low, volume
			FROM observations
			WHERE symbol = ?
			ORDER BY ts DESC
			LIMIT ?
		) ORDER BY ts ASC
	`, symbol, count)
	if err != nil {
		return nil, fmt.Errorf("sqlite query observations: %w", err)
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.Timestamp, &o.Close, &o.High, &o.Low, &o.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LastTimestamp returns the newest archived timestamp for symbol, 0 if the
// symbol has no rows.
func (a *Archive) LastTimestamp(symbol string) (int64, error) {
	var ts sql.NullInt64
	err := a.db.QueryRow(
		`SELECT MAX(ts) FROM observations WHERE symbol = ?`, symbol,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Stats returns row counts per symbol.
func (a *Archive) Stats() (map[string]int, error) {
	rows, err := a.db.Query(`SELECT symbol, COUNT(*) FROM observations GROUP BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var symbol string
		var n int
		if err := rows.Scan(&symbol, &n); err != nil {
			return nil, fmt.Errorf("sqlite scan stats: %w", err)
		}
		out[symbol] = n
	}
	return out, rows.Err()
}

// Prune deletes rows older than maxAge and returns the number removed.
func (a *Archive) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := a.db.Exec(`DELETE FROM observations WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlite prune: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}
