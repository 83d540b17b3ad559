package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// ParabolicSAR recomputes Wilder's stop-and-reverse bar by bar over the
// whole history. A reversal on the latest bar is a strong signal in the new
// direction; otherwise the continuation signal scales with the acceleration
// factor and distance from the SAR.
type ParabolicSAR struct {
	afStart float64
	afStep  float64
	afMax   float64
}

// NewParabolicSAR creates a parabolic SAR calculator. Defaults are
// 0.02/0.02/0.2.
func NewParabolicSAR(afStart, afStep, afMax float64) *ParabolicSAR {
	return &ParabolicSAR{afStart: afStart, afStep: afStep, afMax: afMax}
}

func (c *ParabolicSAR) Name() string { return "parabolic_sar" }

func (c *ParabolicSAR) MinPoints() int { return 5 }

func (c *ParabolicSAR) Calculate(h *model.History) (model.IndicatorResult, error) {
	n := h.Len()
	if n < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: parabolic_sar needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), n)
	}

	highs, lows, closes := h.Highs, h.Lows, h.Closes

	uptrend := closes[1] > closes[0]
	af := c.afStart
	var sar, ep float64
	if uptrend {
		sar = lows[0]
		ep = highs[1]
	} else {
		sar = highs[0]
		ep = lows[1]
	}

	reversedLast := false
	for i := 2; i < n; i++ {
		sar = sar + af*(ep-sar)
		reversedLast = false
		if uptrend {
			// SAR may not enter the range of the prior two bars.
			if sar > lows[i-1] {
				sar = lows[i-1]
			}
			if sar > lows[i-2] {
				sar = lows[i-2]
			}
			if lows[i] < sar {
				uptrend = false
				sar = ep
				ep = lows[i]
				af = c.afStart
				reversedLast = true
			} else if highs[i] > ep {
				ep = highs[i]
				af += c.afStep
				if af > c.afMax {
					af = c.afMax
				}
			}
		} else {
			if sar < highs[i-1] {
				sar = highs[i-1]
			}
			if sar < highs[i-2] {
				sar = highs[i-2]
			}
			if highs[i] > sar {
				uptrend = true
				sar = ep
				ep = highs[i]
				af = c.afStart
				reversedLast = true
			} else if lows[i] < ep {
				ep = lows[i]
				af += c.afStep
				if af > c.afMax {
					af = c.afMax
				}
			}
		}
	}

	price := closes[n-1]
	distance := abs(price-sar) / price

	res := model.IndicatorResult{
		Indicator: c.Name(),
		Strength:  clamp01(distance * 20),
		Metadata: map[string]any{
			"sar":      sar,
			"ep":       ep,
			"af":       af,
			"uptrend":  uptrend,
			"reversal": reversedLast,
		},
	}

	if uptrend {
		res.Suggestion = model.SuggestionBuy
	} else {
		res.Suggestion = model.SuggestionSell
	}
	if reversedLast {
		res.Confidence = 0.9
	} else {
		res.Confidence = clamp01(af/c.afMax*0.5 + distance*10)
	}
	return res, nil
}
