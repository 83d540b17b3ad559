package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// WilliamsR is the Williams %R oscillator on a scale of -100..0. Readings
// below -80 are oversold and above -20 overbought, with stronger confidence
// toward the -90/-10 extremes.
type WilliamsR struct {
	period int
}

// NewWilliamsR creates a Williams %R calculator. Default period is 14.
func NewWilliamsR(period int) *WilliamsR {
	return &WilliamsR{period: period}
}

func (c *WilliamsR) Name() string { return "williams_r" }

func (c *WilliamsR) MinPoints() int { return c.period + 1 }

func (c *WilliamsR) Calculate(h *model.History) (model.IndicatorResult, error) {
	n := h.Len()
	if n < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: williams_r needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), n)
	}

	hi := highest(h.Highs, c.period)
	lo := lowest(h.Lows, c.period)

	wr := -50.0
	if hi != lo {
		wr = (hi - h.Closes[n-1]) / (hi - lo) * -100
	}

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(abs(wr+50) / 50),
		Metadata: map[string]any{
			"williams_r": wr,
			"highest":    hi,
			"lowest":     lo,
		},
	}

	switch {
	case wr <= -90:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01(0.8 + (-90-wr)/10*0.2)
	case wr <= -80:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01((-80 - wr) / 10 * 0.8)
	case wr >= -10:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01(0.8 + (wr+10)/10*0.2)
	case wr >= -20:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01((wr + 20) / 10 * 0.8)
	}
	return res, nil
}
