package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// SignalWatcher remembers the last suggestion per symbol and raises an
// alert whenever a new ensemble result flips the direction. Holds are
// remembered but never alerted on their own.
type SignalWatcher struct {
	mu       sync.Mutex
	last     map[string]model.Suggestion
	notifier Notifier
	minConf  float64
}

// NewSignalWatcher creates a watcher delivering through notifier. Flips
// with confidence below minConf are suppressed.
func NewSignalWatcher(notifier Notifier, minConf float64) *SignalWatcher {
	return &SignalWatcher{
		last:     make(map[string]model.Suggestion),
		notifier: notifier,
		minConf:  minConf,
	}
}

// Observe records res and sends an alert if the suggestion changed from
// the previously seen one for the symbol.
func (w *SignalWatcher) Observe(ctx context.Context, res model.EnsembleResult) {
	w.mu.Lock()
	prev, seen := w.last[res.Symbol]
	w.last[res.Symbol] = res.Suggestion
	w.mu.Unlock()

	if !seen || prev == res.Suggestion {
		return
	}
	if res.Suggestion == model.SuggestionHold {
		return
	}
	if res.Confidence < w.minConf {
		return
	}

	level := AlertInfo
	if res.Confidence >= 0.75 {
		level = AlertWarning
	}
	w.notifier.Send(ctx, Alert{
		Level: level,
		Title: fmt.Sprintf("%s signal flip: %s -> %s", res.Symbol, prev, res.Suggestion),
		Message: fmt.Sprintf("%s now suggests %s (confidence %.2f, %d valid indicators)",
			res.Symbol, res.Suggestion, res.Confidence, res.Metadata.ValidIndicators),
		Symbol:     res.Symbol,
		Suggestion: res.Suggestion,
		Confidence: res.Confidence,
	})
}

// Forget drops the remembered state for a symbol. Called when an
// instrument is untracked.
func (w *SignalWatcher) Forget(symbol string) {
	w.mu.Lock()
	delete(w.last, symbol)
	w.mu.Unlock()
}
