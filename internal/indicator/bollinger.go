package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// Bollinger computes the SMA band with a standard-deviation envelope and
// %B, the close's position within the band. A flat series (zero deviation)
// is a defined case: %B pins to 0.5 and the result is a zero-confidence
// hold rather than a division error.
type Bollinger struct {
	period     int
	numStdDev  float64
	squeezePct float64 // bandwidth threshold flagging a volatility squeeze
}

// NewBollinger creates a Bollinger band calculator. Classic parameters are
// 20 and 2.0.
func NewBollinger(period int, numStdDev float64) *Bollinger {
	return &Bollinger{period: period, numStdDev: numStdDev, squeezePct: 0.10}
}

func (b *Bollinger) Name() string   { return "bollinger" }
func (b *Bollinger) MinPoints() int { return b.period }

func (b *Bollinger) Calculate(h *model.History) (model.IndicatorResult, error) {
	closes := h.Closes
	if len(closes) < b.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: bollinger needs %d closes, have %d",
			model.ErrInsufficientData, b.MinPoints(), len(closes))
	}

	middle := sma(closes, b.period)
	sd := stdDev(closes, b.period)
	upper := middle + b.numStdDev*sd
	lower := middle - b.numStdDev*sd
	price := closes[len(closes)-1]

	percentB := 0.5
	bandwidth := 0.0
	if sd > 0 {
		percentB = (price - lower) / (upper - lower)
		bandwidth = (upper - lower) / middle
	}

	res := model.IndicatorResult{
		Indicator:  b.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(abs(percentB - 0.5)),
		Metadata: map[string]any{
			"upper":     upper,
			"middle":    middle,
			"lower":     lower,
			"percent_b": percentB,
			"bandwidth": bandwidth,
			"squeeze":   sd > 0 && bandwidth < b.squeezePct,
		},
	}

	switch {
	case sd == 0:
		// Flat market: nothing to lean on.
	case percentB <= 0:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01(0.5 - percentB)
	case percentB >= 1:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01(0.5 + (percentB - 1))
	}
	return res, nil
}
