// Package ensemble combines per-indicator results into one weighted signal.
package ensemble

import (
	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// DefaultWeights gives trend-strength and cloud indicators the loudest
// voice. Unlisted indicators count with weight 1.
var DefaultWeights = map[string]float64{
	"ichimoku":      1.5,
	"adx":           1.4,
	"volume":        1.3,
	"parabolic_sar": 1.2,
}

// Aggregator folds indicator results into an EnsembleResult using fixed
// per-indicator weights. Combine is a pure function of its input.
type Aggregator struct {
	weights map[string]float64
}

// New creates an aggregator. A nil weights map selects DefaultWeights.
func New(weights map[string]float64) *Aggregator {
	if weights == nil {
		weights = DefaultWeights
	}
	return &Aggregator{weights: weights}
}

func (a *Aggregator) weight(indicator string) float64 {
	if w, ok := a.weights[indicator]; ok {
		return w
	}
	return 1.0
}

// Combine scores the valid results into buy/sell/hold buckets. Buy and sell
// contribute confidence times weight; a hold vote contributes its full
// weight to the hold bucket. The strict-max bucket wins and any tie falls
// back to hold. Zero valid indicators yields hold with zero confidence.
func (a *Aggregator) Combine(symbol string, results []model.IndicatorResult) model.EnsembleResult {
	var buyScore, sellScore, holdScore float64
	var confSum, strengthSum, weightSum float64
	valid := 0

	for _, r := range results {
		if !r.Valid() {
			continue
		}
		valid++
		w := a.weight(r.Indicator)
		switch r.Suggestion {
		case model.SuggestionBuy:
			buyScore += r.Confidence * w
		case model.SuggestionSell:
			sellScore += r.Confidence * w
		default:
			holdScore += w
		}
		confSum += r.Confidence * w
		strengthSum += r.Strength * w
		weightSum += w
	}

	out := model.EnsembleResult{
		Symbol:     symbol,
		Suggestion: model.SuggestionHold,
		Indicators: results,
		Metadata: model.EnsembleMetadata{
			BuyScore:        buyScore,
			SellScore:       sellScore,
			HoldScore:       holdScore,
			ValidIndicators: valid,
		},
	}
	if valid == 0 {
		return out
	}

	switch {
	case buyScore > sellScore && buyScore > holdScore:
		out.Suggestion = model.SuggestionBuy
	case sellScore > buyScore && sellScore > holdScore:
		out.Suggestion = model.SuggestionSell
	}

	out.Confidence = clamp01(confSum / float64(valid))
	out.Strength = clamp01(strengthSum / weightSum)
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
