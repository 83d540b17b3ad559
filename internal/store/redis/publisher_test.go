package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

func TestQueueSinkEnqueues(t *testing.T) {
	sigCh := make(chan model.EnsembleResult, 2)
	sink := QueueSink(sigCh)

	res := model.EnsembleResult{Symbol: "BTC", Suggestion: model.SuggestionBuy, Confidence: 0.8}
	if err := sink.Publish(context.Background(), res); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := <-sigCh
	if got.Symbol != "BTC" || got.Suggestion != model.SuggestionBuy {
		t.Errorf("dequeued %s/%s, want BTC/buy", got.Symbol, got.Suggestion)
	}
}

func TestQueueSinkDropsWhenFull(t *testing.T) {
	sigCh := make(chan model.EnsembleResult, 1)
	sink := QueueSink(sigCh)
	ctx := context.Background()

	if err := sink.Publish(ctx, model.EnsembleResult{Symbol: "BTC"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	err := sink.Publish(ctx, model.EnsembleResult{Symbol: "ETH"})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}

	// The queued signal is intact; only the overflow was dropped.
	if got := <-sigCh; got.Symbol != "BTC" {
		t.Errorf("dequeued %s, want BTC", got.Symbol)
	}
}
