package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// Volume flags spikes relative to the average volume over the window and
// votes with the direction of the bar that carried the spike. It also keeps
// OBV and VPT running totals as context for the metadata.
type Volume struct {
	period int
}

// NewVolume creates a volume analysis calculator. Default period is 20.
func NewVolume(period int) *Volume {
	return &Volume{period: period}
}

func (c *Volume) Name() string { return "volume" }

func (c *Volume) MinPoints() int { return c.period + 1 }

func (c *Volume) Calculate(h *model.History) (model.IndicatorResult, error) {
	closes := h.Closes
	volumes := h.Volumes
	if len(closes) < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: volume needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), len(closes))
	}

	n := len(closes)
	avgVol := sma(volumes[:n-1], c.period)
	curVol := volumes[n-1]

	volRatio := 0.0
	if avgVol > 0 {
		volRatio = curVol / avgVol
	}

	// OBV and VPT over the full window.
	var obv, vpt float64
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		switch {
		case change > 0:
			obv += volumes[i]
		case change < 0:
			obv -= volumes[i]
		}
		if closes[i-1] > 0 {
			vpt += volumes[i] * change / closes[i-1]
		}
	}

	priceChange := closes[n-1] - closes[n-2]

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01((volRatio - 1) / 2),
		Metadata: map[string]any{
			"volume_ratio": volRatio,
			"avg_volume":   avgVol,
			"cur_volume":   curVol,
			"obv":          obv,
			"vpt":          vpt,
		},
	}

	// A spike is volume at least 1.5x the recent average. Direction comes
	// from the bar's price change; a flat bar stays a hold.
	if volRatio >= 1.5 && priceChange != 0 {
		conf := clamp01((volRatio - 1.5) / 1.5)
		if priceChange > 0 {
			res.Suggestion = model.SuggestionBuy
		} else {
			res.Suggestion = model.SuggestionSell
		}
		res.Confidence = conf
		res.Metadata["spike"] = true
	}
	return res, nil
}
