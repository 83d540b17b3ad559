package indicator

import (
	"math"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// histFromCloses builds a history where highs and lows hug the close and
// volume is constant. Good enough for close-driven calculators.
func histFromCloses(closes ...float64) *model.History {
	h := model.NewHistory(len(closes))
	for i, c := range closes {
		h.Append(model.Observation{
			Timestamp: int64(i+1) * 60_000,
			Close:     c,
			High:      c * 1.005,
			Low:       c * 0.995,
			Volume:    1000,
		})
	}
	return h
}

// rising returns n closes increasing by step from start.
func rising(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// flat returns n identical closes.
func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMinPoints(t *testing.T) {
	cases := []struct {
		calc Calculator
		want int
	}{
		{NewRSI(14), 15},
		{NewMACD(12, 26, 9), 35},
		{NewBollinger(20, 2), 20},
		{NewMACrossover(10, 21), 22},
		{NewVolume(20), 21},
		{NewWilliamsR(14), 15},
		{NewIchimoku(9, 26, 52, 26), 78},
		{NewADX(14), 29},
		{NewCCI(20), 21},
		{NewParabolicSAR(0.02, 0.02, 0.2), 5},
	}
	for _, tc := range cases {
		if got := tc.calc.MinPoints(); got != tc.want {
			t.Errorf("%s MinPoints = %d, want %d", tc.calc.Name(), got, tc.want)
		}
	}
}

func TestInsufficientDataError(t *testing.T) {
	h := histFromCloses(rising(100, 1, 5)...)
	for _, calc := range NewEngine().Calculators() {
		if h.Len() >= calc.MinPoints() {
			continue
		}
		_, err := calc.Calculate(h)
		if err == nil {
			t.Errorf("%s: expected error on %d points", calc.Name(), h.Len())
		}
	}
}

func TestConfidenceBounds(t *testing.T) {
	histories := []*model.History{
		histFromCloses(rising(100, 2, 120)...),
		histFromCloses(rising(300, -2, 120)...),
		histFromCloses(flat(100, 120)...),
	}
	for _, h := range histories {
		for _, res := range NewEngine().CalculateAll(h) {
			if res.Confidence < 0 || res.Confidence > 1 {
				t.Errorf("%s confidence out of range: %f", res.Indicator, res.Confidence)
			}
			if res.Strength < 0 || res.Strength > 1 {
				t.Errorf("%s strength out of range: %f", res.Indicator, res.Strength)
			}
			switch res.Suggestion {
			case model.SuggestionBuy, model.SuggestionSell, model.SuggestionHold:
			default:
				t.Errorf("%s bad suggestion %q", res.Indicator, res.Suggestion)
			}
		}
	}
}

func TestRSIMonotonicRise(t *testing.T) {
	h := histFromCloses(rising(100, 1, 30)...)
	res, err := NewRSI(14).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value := res.Metadata["value"].(float64)
	if math.Abs(value-100) > 1e-10 {
		t.Errorf("RSI of monotonic rise = %f, want 100", value)
	}
	if res.Suggestion != model.SuggestionSell {
		t.Errorf("suggestion = %s, want sell", res.Suggestion)
	}
	if math.Abs(res.Confidence-1) > 1e-10 {
		t.Errorf("confidence = %f, want 1", res.Confidence)
	}
}

func TestRSIFlatSeries(t *testing.T) {
	h := histFromCloses(flat(50, 30)...)
	res, err := NewRSI(14).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Suggestion != model.SuggestionHold {
		t.Errorf("suggestion = %s, want hold", res.Suggestion)
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	h := histFromCloses(flat(100, 25)...)
	res, err := NewBollinger(20, 2).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pb := res.Metadata["percent_b"].(float64)
	if math.Abs(pb-0.5) > 1e-10 {
		t.Errorf("percent_b = %f, want 0.5", pb)
	}
	if res.Suggestion != model.SuggestionHold || res.Confidence != 0 {
		t.Errorf("flat series: got %s/%f, want hold/0", res.Suggestion, res.Confidence)
	}
}

func TestMACrossoverGoldenCross(t *testing.T) {
	// Long decline then a sharp rally carries fast over slow on the last bar.
	closes := rising(200, -1, 40)
	closes = append(closes, rising(161, 8, 8)...)
	h := histFromCloses(closes...)
	c := NewMACrossover(10, 21)

	// Locate the bar where the cross happens and truncate there so the
	// final bar of the history is the crossing one.
	full := h.Closes
	for end := c.MinPoints(); end <= len(full); end++ {
		sub := histFromCloses(full[:end]...)
		res, err := c.Calculate(sub)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Metadata["cross"] == "golden" {
			if res.Suggestion != model.SuggestionBuy {
				t.Errorf("golden cross suggestion = %s, want buy", res.Suggestion)
			}
			if res.Confidence <= 0 {
				t.Errorf("golden cross confidence = %f, want > 0", res.Confidence)
			}
			return
		}
	}
	t.Fatal("no golden cross detected across the rally")
}

func TestCCIFlatSeriesHold(t *testing.T) {
	h := histFromCloses(flat(100, 30)...)
	res, err := NewCCI(20).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Suggestion != model.SuggestionHold {
		t.Errorf("flat series suggestion = %s, want hold", res.Suggestion)
	}
}

func TestCCIBandDirections(t *testing.T) {
	spikeUp := append(flat(100, 24), 130)
	res, err := NewCCI(20).Calculate(histFromCloses(spikeUp...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cci := res.Metadata["cci"].(float64); cci <= 100 {
		t.Fatalf("spike up cci = %.2f, want > 100", cci)
	}
	if res.Suggestion != model.SuggestionSell {
		t.Errorf("overbought suggestion = %s, want sell", res.Suggestion)
	}
	if res.Metadata["zone"] != "overbought" {
		t.Errorf("zone = %v, want overbought", res.Metadata["zone"])
	}

	spikeDown := append(flat(100, 24), 70)
	res, err = NewCCI(20).Calculate(histFromCloses(spikeDown...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cci := res.Metadata["cci"].(float64); cci >= -100 {
		t.Fatalf("spike down cci = %.2f, want < -100", cci)
	}
	if res.Suggestion != model.SuggestionBuy {
		t.Errorf("oversold suggestion = %s, want buy", res.Suggestion)
	}
}

func TestStochasticFlatRange(t *testing.T) {
	h := model.NewHistory(30)
	for i := 0; i < 30; i++ {
		h.Append(model.Observation{
			Timestamp: int64(i+1) * 60_000,
			Close:     100,
			High:      100,
			Low:       100,
			Volume:    500,
		})
	}
	res, err := NewStochastic(14, 3).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k := res.Metadata["k"].(float64)
	if math.Abs(k-50) > 1e-10 {
		t.Errorf("flat range k = %f, want 50", k)
	}
	if res.Suggestion != model.SuggestionHold {
		t.Errorf("suggestion = %s, want hold", res.Suggestion)
	}
}

func TestADXRequiresTrend(t *testing.T) {
	h := histFromCloses(rising(100, 1.5, 60)...)
	res, err := NewADX(14).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	adx := res.Metadata["adx"].(float64)
	if adx < 25 {
		t.Fatalf("steady trend adx = %f, want >= 25", adx)
	}
	if res.Suggestion != model.SuggestionBuy {
		t.Errorf("uptrend suggestion = %s, want buy", res.Suggestion)
	}
}

func TestParabolicSARDirection(t *testing.T) {
	up, err := NewParabolicSAR(0.02, 0.02, 0.2).Calculate(histFromCloses(rising(100, 1, 40)...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Suggestion != model.SuggestionBuy {
		t.Errorf("uptrend suggestion = %s, want buy", up.Suggestion)
	}
	down, err := NewParabolicSAR(0.02, 0.02, 0.2).Calculate(histFromCloses(rising(200, -1, 40)...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.Suggestion != model.SuggestionSell {
		t.Errorf("downtrend suggestion = %s, want sell", down.Suggestion)
	}
}

func TestVolumeSpike(t *testing.T) {
	h := model.NewHistory(30)
	for i := 0; i < 29; i++ {
		h.Append(model.Observation{
			Timestamp: int64(i+1) * 60_000,
			Close:     100 + float64(i)*0.1,
			High:      101 + float64(i)*0.1,
			Low:       99 + float64(i)*0.1,
			Volume:    1000,
		})
	}
	// Spike bar: 4x volume on a strong up move.
	h.Append(model.Observation{
		Timestamp: 30 * 60_000,
		Close:     106,
		High:      107,
		Low:       103,
		Volume:    4000,
	})
	res, err := NewVolume(20).Calculate(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Suggestion != model.SuggestionBuy {
		t.Errorf("spike-up suggestion = %s, want buy", res.Suggestion)
	}
	if res.Metadata["spike"] != true {
		t.Error("spike not flagged")
	}
}
