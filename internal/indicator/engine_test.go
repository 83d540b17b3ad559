package indicator

import (
	"errors"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

type panickyCalc struct{}

func (panickyCalc) Name() string   { return "panicky" }
func (panickyCalc) MinPoints() int { return 1 }
func (panickyCalc) Calculate(*model.History) (model.IndicatorResult, error) {
	panic("index out of range")
}

type failingCalc struct{}

func (failingCalc) Name() string   { return "failing" }
func (failingCalc) MinPoints() int { return 1 }
func (failingCalc) Calculate(*model.History) (model.IndicatorResult, error) {
	return model.IndicatorResult{}, errors.New("feed gap")
}

type okCalc struct{}

func (okCalc) Name() string   { return "ok" }
func (okCalc) MinPoints() int { return 1 }
func (okCalc) Calculate(*model.History) (model.IndicatorResult, error) {
	return model.IndicatorResult{
		Indicator:  "ok",
		Suggestion: model.SuggestionBuy,
		Confidence: 0.7,
	}, nil
}

func TestEngineDefaultSet(t *testing.T) {
	e := NewEngine()
	if got := len(e.Calculators()); got != 11 {
		t.Fatalf("default calculator count = %d, want 11", got)
	}
	seen := map[string]bool{}
	for _, c := range e.Calculators() {
		if seen[c.Name()] {
			t.Errorf("duplicate calculator %s", c.Name())
		}
		seen[c.Name()] = true
	}
}

func TestEngineIsolatesFailures(t *testing.T) {
	e := NewEngineWith(okCalc{}, panickyCalc{}, failingCalc{})
	h := histFromCloses(100, 101, 102)

	results := e.CalculateAll(h)
	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}

	if !results[0].Valid() || results[0].Suggestion != model.SuggestionBuy {
		t.Errorf("healthy calculator affected by neighbours: %+v", results[0])
	}

	for _, i := range []int{1, 2} {
		r := results[i]
		if r.Valid() {
			t.Errorf("%s: expected errored neutral result", r.Indicator)
		}
		if r.Suggestion != model.SuggestionHold || r.Confidence != 0 || r.Strength != 0 {
			t.Errorf("%s: neutral fallback not neutral: %+v", r.Indicator, r)
		}
	}
}

func TestEngineShortHistoryAllNeutral(t *testing.T) {
	h := histFromCloses(100, 101)
	for _, r := range NewEngine().CalculateAll(h) {
		if r.Valid() {
			t.Errorf("%s: expected insufficient-data fallback on 2 points", r.Indicator)
		}
		if r.Suggestion != model.SuggestionHold {
			t.Errorf("%s: suggestion = %s, want hold", r.Indicator, r.Suggestion)
		}
	}
}
