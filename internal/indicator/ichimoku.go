package indicator

import (
	"fmt"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// Ichimoku computes the Ichimoku Kinko Hyo components and scores four
// bullish/bearish conditions: price versus cloud, tenkan versus kijun,
// chikou versus past price, and cloud color. Three or more aligned
// conditions produce a signal.
type Ichimoku struct {
	tenkan       int
	kijun        int
	senkouB      int
	displacement int
}

// NewIchimoku creates an Ichimoku calculator. Defaults are 9/26/52 with a
// displacement of 26.
func NewIchimoku(tenkan, kijun, senkouB, displacement int) *Ichimoku {
	return &Ichimoku{tenkan: tenkan, kijun: kijun, senkouB: senkouB, displacement: displacement}
}

func (c *Ichimoku) Name() string { return "ichimoku" }

// MinPoints covers the senkou B window displaced into the past.
func (c *Ichimoku) MinPoints() int { return c.senkouB + c.displacement }

func midpointEnding(highs, lows []float64, period, end int) float64 {
	return (highestEnding(highs, period, end) + lowestEnding(lows, period, end)) / 2
}

func (c *Ichimoku) Calculate(h *model.History) (model.IndicatorResult, error) {
	n := h.Len()
	if n < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: ichimoku needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), n)
	}

	price := h.Closes[n-1]

	tenkanSen := midpointEnding(h.Highs, h.Lows, c.tenkan, n)
	kijunSen := midpointEnding(h.Highs, h.Lows, c.kijun, n)

	// The cloud under the current bar was projected displacement bars ago.
	cloudEnd := n - c.displacement
	senkouA := (midpointEnding(h.Highs, h.Lows, c.tenkan, cloudEnd) +
		midpointEnding(h.Highs, h.Lows, c.kijun, cloudEnd)) / 2
	senkouB := midpointEnding(h.Highs, h.Lows, c.senkouB, cloudEnd)

	cloudTop := senkouA
	cloudBottom := senkouB
	if senkouB > senkouA {
		cloudTop, cloudBottom = senkouB, senkouA
	}

	// Chikou span is the current close plotted displacement bars back.
	pastPrice := h.Closes[n-1-c.displacement]

	bull, bear := 0, 0
	vote := func(cond, opp bool) {
		if cond {
			bull++
		} else if opp {
			bear++
		}
	}
	vote(price > cloudTop, price < cloudBottom)
	vote(tenkanSen > kijunSen, tenkanSen < kijunSen)
	vote(price > pastPrice, price < pastPrice)
	vote(senkouA > senkouB, senkouA < senkouB)

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(float64(max(bull, bear)) / 4),
		Metadata: map[string]any{
			"tenkan_sen":   tenkanSen,
			"kijun_sen":    kijunSen,
			"senkou_a":     senkouA,
			"senkou_b":     senkouB,
			"cloud_top":    cloudTop,
			"cloud_bottom": cloudBottom,
			"bull_score":   bull,
			"bear_score":   bear,
		},
	}

	switch {
	case bull >= 3 && bull > bear:
		res.Suggestion = model.SuggestionBuy
		res.Confidence = clamp01(float64(bull) / 4)
	case bear >= 3 && bear > bull:
		res.Suggestion = model.SuggestionSell
		res.Confidence = clamp01(float64(bear) / 4)
	}
	return res, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
