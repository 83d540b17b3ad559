package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// MACrossover compares a fast and a slow SMA on the current and the prior
// bar. A sign change of (fast-slow) is a golden or death cross; in between
// the result is a hold that reports the prevailing trend.
type MACrossover struct {
	fast int
	slow int
}

// NewMACrossover creates an SMA crossover calculator. Defaults are 10/21.
func NewMACrossover(fast, slow int) *MACrossover {
	return &MACrossover{fast: fast, slow: slow}
}

func (c *MACrossover) Name() string { return "ma_crossover" }

// MinPoints needs the slow window plus one prior bar for cross detection.
func (c *MACrossover) MinPoints() int { return c.slow + 1 }

func (c *MACrossover) Calculate(h *model.History) (model.IndicatorResult, error) {
	closes := h.Closes
	if len(closes) < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: ma_crossover needs %d closes, have %d",
			model.ErrInsufficientData, c.MinPoints(), len(closes))
	}

	n := len(closes)
	fastNow := sma(closes, c.fast)
	slowNow := sma(closes, c.slow)
	fastPrev := smaEnding(closes, c.fast, n-1)
	slowPrev := smaEnding(closes, c.slow, n-1)

	diff := fastNow - slowNow
	prevDiff := fastPrev - slowPrev
	separation := abs(diff) / slowNow

	trend := "bearish"
	if diff > 0 {
		trend = "bullish"
	}

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(separation * 50),
		Metadata: map[string]any{
			"fast":      fastNow,
			"slow":      slowNow,
			"prev_fast": fastPrev,
			"prev_slow": slowPrev,
			"trend":     trend,
		},
	}

	switch {
	case prevDiff <= 0 && diff > 0:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01(0.7 + separation*50)
		res.Metadata["cross"] = "golden"
	case prevDiff >= 0 && diff < 0:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01(0.7 + separation*50)
		res.Metadata["cross"] = "death"
	}
	return res, nil
}
