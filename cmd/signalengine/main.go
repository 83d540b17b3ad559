package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/makoshark2001/trading-bot-core/config"
	"github.com/makoshark2001/trading-bot-core/internal/ensemble"
	"github.com/makoshark2001/trading-bot-core/internal/history"
	"github.com/makoshark2001/trading-bot-core/internal/indicator"
	"github.com/makoshark2001/trading-bot-core/internal/logger"
	"github.com/makoshark2001/trading-bot-core/internal/metrics"
	"github.com/makoshark2001/trading-bot-core/internal/model"
	"github.com/makoshark2001/trading-bot-core/internal/notification"
	"github.com/makoshark2001/trading-bot-core/internal/persist"
	"github.com/makoshark2001/trading-bot-core/internal/ringbuf"
	redisstore "github.com/makoshark2001/trading-bot-core/internal/store/redis"
	sqlitestore "github.com/makoshark2001/trading-bot-core/internal/store/sqlite"
	"github.com/makoshark2001/trading-bot-core/pkg/exchange"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("signalengine", logger.ParseLevel(os.Getenv("LOG_LEVEL")))
	log.Println("[signalengine] starting...")

	cfg := config.Load()
	symbols := cfg.ParseSymbols()
	if len(symbols) == 0 {
		log.Fatal("[signalengine] no symbols configured")
	}
	log.Printf("[signalengine] tracking %v", symbols)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown context ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Snapshot store ----
	snapshots, err := persist.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("[signalengine] snapshot dir init failed: %v", err)
	}

	// ---- SQLite observation archive ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	archive, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[signalengine] sqlite init failed: %v", err)
	}
	defer archive.Close()

	archiveCh := make(chan model.SymbolObservation, 5000)
	go archive.Run(ctx, archiveCh)

	// ---- Exchange feed ----
	feed := exchange.NewClient(exchange.Config{BaseURL: cfg.ExchangeBaseURL})

	// ---- Redis signal publisher (optional) ----
	var sink model.SignalSink
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = redisstore.NewPublisher(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[signalengine] WARNING: redis init failed: %v (continuing without redis)", err)
		} else {
			publisher.OnBreakerStateChange(func(_, to redisstore.State) {
				prom.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					prom.RedisCircuitBreakerTrips.Inc()
				}
			})
			// Collection rounds enqueue; the publisher drains so a slow
			// Redis never stretches a round.
			sigCh := make(chan model.EnsembleResult, 256)
			go publisher.Run(ctx, sigCh)
			sink = redisstore.QueueSink(sigCh)
			defer publisher.Close()
		}
	}

	// ---- Liveness checks ----
	if publisher != nil {
		health.StartLivenessChecker(ctx, publisher.Client(), archive.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, archive.DB(), 10*time.Second)
	}

	// ---- Notifications ----
	var backends []notification.Notifier
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	var watcher *notification.SignalWatcher
	if len(backends) > 0 {
		watcher = notification.NewSignalWatcher(notification.NewMulti(backends...), cfg.AlertMinConf)
	}

	// ---- Store ----
	store := history.New(history.Config{
		Retention:    cfg.RetentionLimit,
		BackfillBars: cfg.BackfillBars,
		Resolution:   cfg.Resolution,
	}, feed, snapshots, archive, indicator.NewEngine(), ensemble.New(nil), prom)
	store.SetArchiveChannel(archiveCh)
	if watcher != nil {
		store.SetRemoveHook(watcher.Forget)
	}

	log.Println("[signalengine] initializing instruments...")
	store.Initialize(ctx, symbols)

	// ---- Live tick stream (optional) ----
	var ring *ringbuf.Ring
	if cfg.LiveTicks && cfg.ExchangeWSURL != "" {
		ring = ringbuf.New(4096)
		stream := exchange.NewTickStream(cfg.ExchangeWSURL, "", symbols, ring)
		stream.OnReconnect(func() { prom.WSReconnects.Inc() })
		go stream.Run(ctx)
		log.Println("[signalengine] live tick stream enabled")
	}

	// ---- Collector ----
	collector := history.NewCollector(history.CollectorConfig{
		CollectInterval:  cfg.CollectInterval,
		SnapshotInterval: cfg.SnapshotInterval,
	}, store, feed, ring, sink, watcher, health, prom)

	done := make(chan struct{})
	go func() {
		collector.Run(ctx)
		close(done)
	}()

	sig := <-sigCh
	log.Printf("[signalengine] received %v, shutting down...", sig)
	cancel()

	select {
	case <-done:
	case <-time.After(45 * time.Second):
		log.Println("[signalengine] WARNING: collector shutdown timed out")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
	close(archiveCh)

	log.Println("[signalengine] bye")
}
