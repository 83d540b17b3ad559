package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Tracked instruments (comma-separated, e.g. "BTC,ETH,XMR")
	Symbols string

	// Store
	RetentionLimit int
	BackfillBars   int
	Resolution     int // seconds per bar for backfill requests
	DataDir        string

	// Scheduling
	CollectInterval  time.Duration
	SnapshotInterval time.Duration

	// Infrastructure
	SQLitePath    string
	RedisAddr     string // empty disables Redis publishing
	RedisPassword string
	MetricsAddr   string

	// Exchange feed
	ExchangeBaseURL string
	ExchangeWSURL   string
	LiveTicks       bool

	// Notifications (empty disables a backend)
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   string
	AlertMinConf     float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Symbols: getEnv("SYMBOLS", "BTC,ETH"),

		RetentionLimit: getEnvInt("RETENTION_LIMIT", 1440),
		BackfillBars:   getEnvInt("BACKFILL_BARS", 300),
		Resolution:     getEnvInt("BAR_RESOLUTION_S", 300),
		DataDir:        getEnv("DATA_DIR", "data/snapshots"),

		CollectInterval:  time.Duration(getEnvInt("COLLECT_INTERVAL_S", 300)) * time.Second,
		SnapshotInterval: time.Duration(getEnvInt("SNAPSHOT_INTERVAL_S", 300)) * time.Second,

		SQLitePath:    getEnv("SQLITE_PATH", "data/archive.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		ExchangeBaseURL: getEnv("EXCHANGE_BASE_URL", "https://tradeogre.com/api/v1"),
		ExchangeWSURL:   getEnv("EXCHANGE_WS_URL", ""),
		LiveTicks:       getEnvBool("LIVE_TICKS", false),

		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		AlertMinConf:     getEnvFloat("ALERT_MIN_CONFIDENCE", 0.5),
	}
}

// ParseSymbols splits the Symbols list, trimming blanks and dropping
// duplicates with a log line per skip.
func (c *Config) ParseSymbols() []string {
	parts := strings.Split(c.Symbols, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if seen[p] {
			log.Printf("[config] skipping duplicate symbol %q", p)
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
