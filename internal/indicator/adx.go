package indicator

import (
	"fmt"
	"math"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// ADX measures trend strength with Wilder's directional movement system.
// It only trades when ADX is at or above 25; direction comes from the
// +DI/-DI spread and confidence scales with the ADX reading.
type ADX struct {
	period int
}

// NewADX creates an ADX calculator. Default period is 14.
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (c *ADX) Name() string { return "adx" }

// MinPoints needs period DX values smoothed into ADX on top of the DM seed.
func (c *ADX) MinPoints() int { return 2*c.period + 1 }

func (c *ADX) Calculate(h *model.History) (model.IndicatorResult, error) {
	n := h.Len()
	if n < c.MinPoints() {
		return model.IndicatorResult{}, fmt.Errorf("%w: adx needs %d points, have %d",
			model.ErrInsufficientData, c.MinPoints(), n)
	}

	highs, lows, closes := h.Highs, h.Lows, h.Closes
	p := float64(c.period)

	trs := make([]float64, n-1)
	plusDMs := make([]float64, n-1)
	minusDMs := make([]float64, n-1)
	for i := 1; i < n; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(abs(highs[i]-closes[i-1]), abs(lows[i]-closes[i-1])))
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		var plusDM, minusDM float64
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}
		trs[i-1] = tr
		plusDMs[i-1] = plusDM
		minusDMs[i-1] = minusDM
	}

	// Wilder smoothing seeded with the first period sums.
	var smTR, smPlus, smMinus float64
	for i := 0; i < c.period; i++ {
		smTR += trs[i]
		smPlus += plusDMs[i]
		smMinus += minusDMs[i]
	}

	dx := func() float64 {
		if smTR == 0 {
			return 0
		}
		plusDI := smPlus / smTR * 100
		minusDI := smMinus / smTR * 100
		if plusDI+minusDI == 0 {
			return 0
		}
		return abs(plusDI-minusDI) / (plusDI + minusDI) * 100
	}

	adx := dx()
	count := 1.0
	for i := c.period; i < len(trs); i++ {
		smTR = smTR - smTR/p + trs[i]
		smPlus = smPlus - smPlus/p + plusDMs[i]
		smMinus = smMinus - smMinus/p + minusDMs[i]
		count++
		if count <= p {
			adx += dx()
			if count == p {
				adx /= p
			}
		} else {
			adx = (adx*(p-1) + dx()) / p
		}
	}

	var plusDI, minusDI float64
	if smTR > 0 {
		plusDI = smPlus / smTR * 100
		minusDI = smMinus / smTR * 100
	}

	res := model.IndicatorResult{
		Indicator:  c.Name(),
		Suggestion: model.SuggestionHold,
		Strength:   clamp01(adx / 50),
		Metadata: map[string]any{
			"adx":      adx,
			"plus_di":  plusDI,
			"minus_di": minusDI,
		},
	}

	// No trade without a trend.
	if adx >= 25 {
		conf := clamp01(adx / 50)
		if plusDI > minusDI {
			res.Suggestion = model.SuggestionBuy
			res.Confidence = conf
		} else if minusDI > plusDI {
			res.Suggestion = model.SuggestionSell
			res.Confidence = conf
		}
	}
	return res, nil
}
