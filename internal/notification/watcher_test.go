package notification

import (
	"context"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

type captureNotifier struct {
	alerts []Alert
}

func (c *captureNotifier) Send(_ context.Context, a Alert) error {
	c.alerts = append(c.alerts, a)
	return nil
}

func signal(symbol string, s model.Suggestion, conf float64) model.EnsembleResult {
	return model.EnsembleResult{Symbol: symbol, Suggestion: s, Confidence: conf}
}

func TestWatcherAlertsOnFlip(t *testing.T) {
	cap := &captureNotifier{}
	w := NewSignalWatcher(cap, 0)
	ctx := context.Background()

	w.Observe(ctx, signal("BTC", model.SuggestionBuy, 0.8))
	if len(cap.alerts) != 0 {
		t.Fatal("first observation must not alert")
	}

	w.Observe(ctx, signal("BTC", model.SuggestionBuy, 0.9))
	if len(cap.alerts) != 0 {
		t.Fatal("unchanged suggestion must not alert")
	}

	w.Observe(ctx, signal("BTC", model.SuggestionSell, 0.8))
	if len(cap.alerts) != 1 {
		t.Fatalf("flip should alert once, got %d", len(cap.alerts))
	}
	if cap.alerts[0].Symbol != "BTC" || cap.alerts[0].Suggestion != model.SuggestionSell {
		t.Errorf("alert mismatch: %+v", cap.alerts[0])
	}
}

func TestWatcherIgnoresFlipToHold(t *testing.T) {
	cap := &captureNotifier{}
	w := NewSignalWatcher(cap, 0)
	ctx := context.Background()

	w.Observe(ctx, signal("ETH", model.SuggestionBuy, 0.8))
	w.Observe(ctx, signal("ETH", model.SuggestionHold, 0.5))
	if len(cap.alerts) != 0 {
		t.Fatal("hold flips must not alert")
	}

	// Hold is still remembered: buy after hold is a flip.
	w.Observe(ctx, signal("ETH", model.SuggestionBuy, 0.8))
	if len(cap.alerts) != 1 {
		t.Fatalf("hold->buy should alert, got %d alerts", len(cap.alerts))
	}
}

func TestWatcherConfidenceFloor(t *testing.T) {
	cap := &captureNotifier{}
	w := NewSignalWatcher(cap, 0.5)
	ctx := context.Background()

	w.Observe(ctx, signal("BTC", model.SuggestionBuy, 0.9))
	w.Observe(ctx, signal("BTC", model.SuggestionSell, 0.2))
	if len(cap.alerts) != 0 {
		t.Fatal("low-confidence flip must be suppressed")
	}
}

func TestWatcherForget(t *testing.T) {
	cap := &captureNotifier{}
	w := NewSignalWatcher(cap, 0)
	ctx := context.Background()

	w.Observe(ctx, signal("BTC", model.SuggestionBuy, 0.8))
	w.Forget("BTC")
	w.Observe(ctx, signal("BTC", model.SuggestionSell, 0.8))
	if len(cap.alerts) != 0 {
		t.Fatal("forgotten symbol observes fresh, no flip")
	}
}
