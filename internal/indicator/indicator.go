// Package indicator provides the eleven technical calculators behind the
// ensemble signal. Every calculator consumes the rolling history and returns
// a typed suggestion with a confidence in [0,1]; a calculator that cannot
// produce a result reports an error and the engine converts it to a neutral
// hold so the other ten keep working.
package indicator

import (
	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// Calculator is the contract shared by all indicators.
type Calculator interface {
	// Name returns the indicator identifier used in results and weights
	// (e.g. "rsi", "macd", "ichimoku").
	Name() string

	// MinPoints is the smallest history length Calculate accepts.
	MinPoints() int

	// Calculate computes the indicator over the history. The engine hands
	// in a stable copy; implementations must not retain or mutate it.
	Calculate(h *model.History) (model.IndicatorResult, error)
}

// clamp01 bounds a confidence or strength value to [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
