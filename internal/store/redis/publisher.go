// Package redis publishes ensemble signals for downstream consumers. Each
// signal goes out on a pubsub channel and the latest one per symbol is
// cached under a TTL key. Redis is optional; all failures degrade to logs
// behind a circuit breaker.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	signalChannelPrefix = "signal:"
	latestKeyPrefix     = "signal:latest:"
	defaultLatestTTL    = 30 * time.Minute
)

// PublisherConfig configures the signal publisher.
type PublisherConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes ensemble results to Redis behind a circuit breaker.
type Publisher struct {
	client  *goredis.Client
	breaker *CircuitBreaker
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// NewPublisher connects and pings the server.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	breaker := NewCircuitBreaker(5, 10*time.Second)
	breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client, breaker: breaker}, nil
}

// OnBreakerStateChange registers fn for breaker transitions, in addition
// to the publisher's own logging.
func (p *Publisher) OnBreakerStateChange(fn func(from, to State)) {
	prev := p.breaker.OnStateChange
	p.breaker.OnStateChange = func(from, to State) {
		prev(from, to)
		fn(from, to)
	}
}

// Publish sends one ensemble result to signal:<symbol> and refreshes the
// latest-signal cache key. Returns ErrCircuitOpen while the breaker is
// tripped.
func (p *Publisher) Publish(ctx context.Context, res model.EnsembleResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	return p.breaker.Execute(func() error {
		pipe := p.client.Pipeline()
		pipe.Publish(ctx, signalChannelPrefix+res.Symbol, payload)
		pipe.Set(ctx, latestKeyPrefix+res.Symbol, payload, defaultLatestTTL)
		_, err := pipe.Exec(ctx)
		if err != nil {
			return fmt.Errorf("redis publish %s: %w", res.Symbol, err)
		}
		return nil
	})
}

// Latest fetches the cached signal for symbol. Returns (zero, false, nil)
// when no cached signal exists.
func (p *Publisher) Latest(ctx context.Context, symbol string) (model.EnsembleResult, bool, error) {
	var out model.EnsembleResult
	data, err := p.client.Get(ctx, latestKeyPrefix+symbol).Bytes()
	if err == goredis.Nil {
		return out, false, nil
	}
	if err != nil {
		return out, false, fmt.Errorf("redis get latest %s: %w", symbol, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("unmarshal latest %s: %w", symbol, err)
	}
	return out, true, nil
}

// ErrQueueFull marks a signal dropped on a full publish queue.
var ErrQueueFull = errors.New("signal queue full")

// QueueSink adapts a signal channel to the sink interface with a
// non-blocking send, so a slow or down Redis stalls only the drain loop
// behind it, never the collection round.
type QueueSink chan model.EnsembleResult

func (q QueueSink) Publish(_ context.Context, res model.EnsembleResult) error {
	select {
	case q <- res:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, res.Symbol)
	}
}

// Run drains sigCh and publishes each result. Publish errors are logged
// and dropped; a down Redis must not stall the signal pipeline. Blocks
// until ctx is cancelled or sigCh is closed.
func (p *Publisher) Run(ctx context.Context, sigCh <-chan model.EnsembleResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-sigCh:
			if !ok {
				return
			}
			if err := p.Publish(ctx, res); err != nil && err != ErrCircuitOpen {
				log.Printf("[redis] publish %s: %v", res.Symbol, err)
			}
		}
	}
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
