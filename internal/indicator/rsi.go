package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// RSI computes the Relative Strength Index with Wilder smoothing: the first
// average gain/loss is an SMA over the seed window, every later bar blends
// in with weight 1/period.
type RSI struct {
	period     int
	overbought float64
	oversold   float64
}

// NewRSI creates an RSI calculator. period is typically 14.
func NewRSI(period int) *RSI {
	return &RSI{period: period, overbought: 70, oversold: 30}
}

func (r *RSI) Name() string   { return "rsi" }
func (r *RSI) MinPoints() int { return r.period + 1 }

func (r *RSI) Calculate(h *model.History) (model.IndicatorResult, error) {
	closes := h.Closes
	if len(closes) < r.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: rsi needs %d closes, have %d",
			model.ErrInsufficientData, r.MinPoints(), len(closes))
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= r.period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	p := float64(r.period)
	for i := r.period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	// No losses means RSI pegs at 100; a fully flat window reads neutral.
	value := 50.0
	switch {
	case avgLoss > 0:
		rs := avgGain / avgLoss
		value = 100.0 - 100.0/(1.0+rs)
	case avgGain > 0:
		value = 100.0
	}

	res := model.IndicatorResult{
		Indicator:  r.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(abs(value-50) / 50),
		Metadata: map[string]any{
			"value":    value,
			"avg_gain": avgGain,
			"avg_loss": avgLoss,
			"period":   r.period,
		},
	}

	// Confidence scales with the distance past the threshold.
	switch {
	case value >= r.overbought:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01((value - r.overbought) / (100 - r.overbought))
	case value <= r.oversold:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01((r.oversold - value) / r.oversold)
	}
	return res, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
