package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// Stochastic computes the %K oscillator over kPeriod highs/lows and smooths
// it into %D with dPeriod. Signals fire on %K/%D crossovers inside the
// oversold (<20) and overbought (>80) zones.
type Stochastic struct {
	kPeriod int
	dPeriod int
}

// NewStochastic creates a stochastic oscillator. Defaults are 14/3.
func NewStochastic(kPeriod, dPeriod int) *Stochastic {
	return &Stochastic{kPeriod: kPeriod, dPeriod: dPeriod}
}

func (c *Stochastic) Name() string { return "stochastic" }

// MinPoints allows dPeriod %K values plus one prior pair for the crossover.
func (c *Stochastic) MinPoints() int { return c.kPeriod + c.dPeriod }

// kAt computes %K for the window ending at index end (exclusive). A flat
// range yields the midpoint 50.
func (c *Stochastic) kAt(h *model.History, end int) float64 {
	hi := highestEnding(h.Highs, c.kPeriod, end)
	lo := lowestEnding(h.Lows, c.kPeriod, end)
	if hi == lo {
		return 50
	}
	return (h.Closes[end-1] - lo) / (hi - lo) * 100
}

func (c *Stochastic) Calculate(h *model.History) (model.IndicatorResult, error) {
	n := h.Len()
	if n < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: stochastic needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), n)
	}

	// %K series long enough for current and prior %D.
	need := c.dPeriod + 1
	ks := make([]float64, 0, need)
	for end := n - need + 1; end <= n; end++ {
		ks = append(ks, c.kAt(h, end))
	}

	k := ks[len(ks)-1]
	prevK := ks[len(ks)-2]
	d := sma(ks, c.dPeriod)
	prevD := smaEnding(ks, c.dPeriod, len(ks)-1)

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(abs(k-50) / 50),
		Metadata: map[string]any{
			"k":      k,
			"d":      d,
			"prev_k": prevK,
			"prev_d": prevD,
		},
	}

	switch {
	case prevK <= prevD && k > d && k < 20:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01(0.6 + (20-k)/20*0.4)
		res.Metadata["crossover"] = "bullish"
	case prevK >= prevD && k < d && k > 80:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01(0.6 + (k-80)/20*0.4)
		res.Metadata["crossover"] = "bearish"
	case k < 20:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01((20 - k) / 20 * 0.5)
	case k > 80:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01((k - 80) / 20 * 0.5)
	}
	return res, nil
}
