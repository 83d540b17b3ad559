package ensemble

import (
	"math"
	"reflect"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

func result(ind string, s model.Suggestion, conf float64) model.IndicatorResult {
	return model.IndicatorResult{Indicator: ind, Suggestion: s, Confidence: conf, Strength: conf}
}

func TestCombineWeightedBuy(t *testing.T) {
	agg := New(nil)
	results := []model.IndicatorResult{
		result("rsi", model.SuggestionBuy, 0.8),
		result("volume", model.SuggestionBuy, 0.6),
		result("macd", model.SuggestionSell, 0.5),
	}
	out := agg.Combine("BTC", results)

	wantBuy := 0.8*1.0 + 0.6*1.3
	wantSell := 0.5 * 1.0
	if math.Abs(out.Metadata.BuyScore-wantBuy) > 1e-10 {
		t.Errorf("buy score = %f, want %f", out.Metadata.BuyScore, wantBuy)
	}
	if math.Abs(out.Metadata.SellScore-wantSell) > 1e-10 {
		t.Errorf("sell score = %f, want %f", out.Metadata.SellScore, wantSell)
	}
	if out.Suggestion != model.SuggestionBuy {
		t.Errorf("suggestion = %s, want buy", out.Suggestion)
	}
	wantConf := (0.8*1.0 + 0.6*1.3 + 0.5*1.0) / 3
	if math.Abs(out.Confidence-wantConf) > 1e-10 {
		t.Errorf("confidence = %f, want %f", out.Confidence, wantConf)
	}
	if out.Metadata.ValidIndicators != 3 {
		t.Errorf("valid = %d, want 3", out.Metadata.ValidIndicators)
	}
}

func TestCombineHoldContributesWeight(t *testing.T) {
	agg := New(nil)
	// One confident buy versus two low-confidence holds. Hold votes count
	// with full weight, so hold wins the bucket comparison.
	results := []model.IndicatorResult{
		result("rsi", model.SuggestionBuy, 0.9),
		result("macd", model.SuggestionHold, 0.1),
		result("cci", model.SuggestionHold, 0.0),
	}
	out := agg.Combine("BTC", results)
	if math.Abs(out.Metadata.HoldScore-2.0) > 1e-10 {
		t.Errorf("hold score = %f, want 2.0", out.Metadata.HoldScore)
	}
	if out.Suggestion != model.SuggestionHold {
		t.Errorf("suggestion = %s, want hold", out.Suggestion)
	}
}

func TestCombineTieFavorsHold(t *testing.T) {
	agg := New(map[string]float64{})
	results := []model.IndicatorResult{
		result("rsi", model.SuggestionBuy, 1.0),
		result("macd", model.SuggestionSell, 1.0),
		result("cci", model.SuggestionHold, 0.0),
	}
	out := agg.Combine("BTC", results)
	if out.Metadata.BuyScore != out.Metadata.SellScore {
		t.Fatalf("expected tied buckets, got buy=%f sell=%f",
			out.Metadata.BuyScore, out.Metadata.SellScore)
	}
	if out.Suggestion != model.SuggestionHold {
		t.Errorf("tie suggestion = %s, want hold", out.Suggestion)
	}
}

func TestCombineZeroValid(t *testing.T) {
	agg := New(nil)
	results := []model.IndicatorResult{
		model.NeutralResult("rsi", "insufficient data"),
		model.NeutralResult("macd", "panic: boom"),
	}
	out := agg.Combine("BTC", results)
	if out.Suggestion != model.SuggestionHold || out.Confidence != 0 {
		t.Errorf("zero valid: got %s/%f, want hold/0", out.Suggestion, out.Confidence)
	}
	if out.Metadata.ValidIndicators != 0 {
		t.Errorf("valid = %d, want 0", out.Metadata.ValidIndicators)
	}
}

func TestCombineEmptyInput(t *testing.T) {
	out := New(nil).Combine("BTC", nil)
	if out.Suggestion != model.SuggestionHold || out.Confidence != 0 {
		t.Errorf("empty input: got %s/%f, want hold/0", out.Suggestion, out.Confidence)
	}
}

func TestCombineDeterministic(t *testing.T) {
	agg := New(nil)
	results := []model.IndicatorResult{
		result("rsi", model.SuggestionBuy, 0.42),
		result("adx", model.SuggestionBuy, 0.77),
		result("ichimoku", model.SuggestionSell, 0.31),
		model.NeutralResult("macd", "feed gap"),
	}
	first := agg.Combine("ETH", results)
	for i := 0; i < 10; i++ {
		if got := agg.Combine("ETH", results); !reflect.DeepEqual(got, first) {
			t.Fatalf("combine not deterministic: run %d differs", i)
		}
	}
}

func TestCombineConfidenceClamped(t *testing.T) {
	agg := New(nil)
	results := []model.IndicatorResult{
		result("ichimoku", model.SuggestionBuy, 1.0),
	}
	out := agg.Combine("BTC", results)
	if out.Confidence > 1 {
		t.Errorf("confidence = %f, want <= 1", out.Confidence)
	}
}
