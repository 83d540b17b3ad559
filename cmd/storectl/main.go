// storectl is an operational CLI for the snapshot directory, the
// observation archive, and the signal cache: inspect storage stats, delete
// snapshots, prune by age, and read the latest published signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/persist"
	redisstore "github.com/makoshark2001/trading-bot-core/internal/store/redis"
	sqlitestore "github.com/makoshark2001/trading-bot-core/internal/store/sqlite"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: storectl <command> [flags]

commands:
  stats     print snapshot and archive statistics
  cleanup   delete snapshots older than -max-age-hours
  delete    delete one symbol's snapshot
  prune     delete archived observations older than -max-age-hours
  latest    print the cached ensemble signal for -symbol from Redis

common flags:
  -data-dir     snapshot directory  (default data/snapshots, env DATA_DIR)
  -sqlite-path  archive database    (default data/archive.db, env SQLITE_PATH)
  -redis-addr   redis address       (default localhost:6379, env REDIS_ADDR)
`)
	os.Exit(2)
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	dataDir := fs.String("data-dir", envDefault("DATA_DIR", "data/snapshots"), "snapshot directory")
	sqlitePath := fs.String("sqlite-path", envDefault("SQLITE_PATH", "data/archive.db"), "archive database")
	maxAgeHours := fs.Int("max-age-hours", 168, "age threshold for cleanup/prune")
	symbol := fs.String("symbol", "", "symbol for delete/latest")
	redisAddr := fs.String("redis-addr", envDefault("REDIS_ADDR", "localhost:6379"), "redis address")
	fs.Parse(os.Args[2:])

	store, err := persist.New(*dataDir)
	if err != nil {
		log.Fatalf("storectl: open snapshot dir: %v", err)
	}

	switch cmd {
	case "stats":
		stats, err := store.Stats()
		if err != nil {
			log.Fatalf("storectl: stats: %v", err)
		}
		fmt.Printf("snapshots: %d instruments, %d bytes\n", stats.Instruments, stats.TotalSizeBytes)
		for _, s := range stats.PerInstrument {
			fmt.Printf("  %-10s %6d points  %8d bytes  modified %s\n",
				s.Symbol, s.DataPoints, s.SizeBytes,
				time.UnixMilli(s.LastModified).UTC().Format(time.RFC3339))
		}

		archive, err := sqlitestore.Open(*sqlitePath)
		if err != nil {
			log.Printf("storectl: archive unavailable: %v", err)
			return
		}
		defer archive.Close()
		rows, err := archive.Stats()
		if err != nil {
			log.Fatalf("storectl: archive stats: %v", err)
		}
		fmt.Printf("archive: %d symbols\n", len(rows))
		for sym, n := range rows {
			fmt.Printf("  %-10s %d observations\n", sym, n)
		}

	case "cleanup":
		n, err := store.Cleanup(time.Duration(*maxAgeHours) * time.Hour)
		if err != nil {
			log.Fatalf("storectl: cleanup: %v", err)
		}
		fmt.Printf("removed %d snapshots older than %dh\n", n, *maxAgeHours)

	case "delete":
		if *symbol == "" {
			log.Fatal("storectl: delete requires -symbol")
		}
		if err := store.Delete(*symbol); err != nil {
			log.Fatalf("storectl: delete %s: %v", *symbol, err)
		}
		fmt.Printf("deleted snapshot for %s\n", *symbol)

	case "prune":
		archive, err := sqlitestore.Open(*sqlitePath)
		if err != nil {
			log.Fatalf("storectl: open archive: %v", err)
		}
		defer archive.Close()
		n, err := archive.Prune(time.Duration(*maxAgeHours) * time.Hour)
		if err != nil {
			log.Fatalf("storectl: prune: %v", err)
		}
		fmt.Printf("pruned %d archived observations older than %dh\n", n, *maxAgeHours)

	case "latest":
		if *symbol == "" {
			log.Fatal("storectl: latest requires -symbol")
		}
		pub, err := redisstore.NewPublisher(redisstore.PublisherConfig{
			Addr:     *redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err != nil {
			log.Fatalf("storectl: redis: %v", err)
		}
		defer pub.Close()
		res, ok, err := pub.Latest(context.Background(), *symbol)
		if err != nil {
			log.Fatalf("storectl: latest %s: %v", *symbol, err)
		}
		if !ok {
			fmt.Printf("no cached signal for %s\n", *symbol)
			return
		}
		fmt.Printf("%s: %s (confidence %.2f, strength %.2f) at %s\n",
			res.Symbol, res.Suggestion, res.Confidence, res.Strength,
			time.UnixMilli(res.Timestamp).UTC().Format(time.RFC3339))

	default:
		usage()
	}
}
