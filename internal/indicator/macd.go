package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// MACD computes fast EMA minus slow EMA, a signal EMA over the MACD line,
// and the histogram between them. Suggestions fire on MACD/signal
// crossovers, with a bonus when the cross happens on the favorable side of
// the zero line.
type MACD struct {
	fast   int
	slow   int
	signal int
}

// NewMACD creates a MACD calculator. Classic parameters are 12, 26, 9.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: fast, slow: slow, signal: signal}
}

func (m *MACD) Name() string   { return "macd" }
func (m *MACD) MinPoints() int { return m.slow + m.signal }

func (m *MACD) Calculate(h *model.History) (model.IndicatorResult, error) {
	closes := h.Closes
	if len(closes) < m.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: macd needs %d closes, have %d",
			model.ErrInsufficientData, m.MinPoints(), len(closes))
	}

	fastEMA := emaSeries(closes, m.fast)
	slowEMA := emaSeries(closes, m.slow)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := emaSeries(macdLine, m.signal)

	n := len(closes)
	macdNow, macdPrev := macdLine[n-1], macdLine[n-2]
	sigNow, sigPrev := signalLine[n-1], signalLine[n-2]
	histogram := macdNow - sigNow

	res := model.IndicatorResult{
		Indicator:  m.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(abs(histogram) / closes[n-1] * 100),
		Metadata: map[string]any{
			"macd":        macdNow,
			"signal":      sigNow,
			"histogram":   histogram,
			"prev_macd":   macdPrev,
			"prev_signal": sigPrev,
		},
	}

	crossedUp := macdPrev <= sigPrev && macdNow > sigNow
	crossedDown := macdPrev >= sigPrev && macdNow < sigNow
	switch {
	case crossedUp:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = 0.6
		if macdNow > 0 { // bullish cross above the zero line
			res.Confidence = 0.8
		}
		res.Metadata["crossover"] = "bullish"
	case crossedDown:
		res.Suggestion = model.SuggestionSell
		res.Confidence = 0.6
		if macdNow < 0 {
			res.Confidence = 0.8
		}
		res.Metadata["crossover"] = "bearish"
	}
	return res, nil
}
