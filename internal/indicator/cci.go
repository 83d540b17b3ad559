package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// CCI is the Commodity Channel Index over typical prices with Lambert's
// 0.015 constant. Above +100 is overbought (sell-leaning) and below -100
// oversold (buy-leaning), with zero-line crosses as weaker directional
// signals; a zero mean deviation yields a neutral hold.
type CCI struct {
	period int
}

// NewCCI creates a CCI calculator. Default period is 20.
func NewCCI(period int) *CCI {
	return &CCI{period: period}
}

func (c *CCI) Name() string { return "cci" }

func (c *CCI) MinPoints() int { return c.period + 1 }

func (c *CCI) cciAt(tp []float64, end int) float64 {
	window := tp[end-c.period : end]
	mean := sma(window, c.period)
	var meanDev float64
	for _, v := range window {
		meanDev += abs(v - mean)
	}
	meanDev /= float64(c.period)
	if meanDev == 0 {
		return 0
	}
	return (tp[end-1] - mean) / (0.015 * meanDev)
}

func (c *CCI) Calculate(h *model.History) (model.IndicatorResult, error) {
	n := h.Len()
	if n < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: cci needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), n)
	}

	tp := typicalPrices(h.Highs, h.Lows, h.Closes)
	cci := c.cciAt(tp, n)
	prevCCI := c.cciAt(tp, n-1)

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(abs(cci) / 200),
		Metadata: map[string]any{
			"cci":      cci,
			"prev_cci": prevCCI,
		},
	}

	switch {
	case cci > 100:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01(0.5 + (cci-100)/200*0.5)
		res.Metadata["zone"] = "overbought"
	case cci < -100:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01(0.5 + (-cci-100)/200*0.5)
		res.Metadata["zone"] = "oversold"
	case prevCCI <= 0 && cci > 0:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = 0.4
		res.Metadata["zero_cross"] = "up"
	case prevCCI >= 0 && cci < 0:
		res.Suggestion = model.SuggestionSell
		res.Confidence = 0.4
		res.Metadata["zero_cross"] = "down"
	}
	return res, nil
}
