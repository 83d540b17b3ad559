package validate

import (
	"math"
	"testing"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

func validObs() model.Observation {
	return model.Observation{Timestamp: 1700000000000, Close: 100, High: 105, Low: 95, Volume: 12.5}
}

func TestFinitePositive(t *testing.T) {
	cases := []struct {
		x    float64
		want bool
	}{
		{1.0, true},
		{1e-12, true},
		{0, false},
		{-1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	}
	for _, c := range cases {
		if got := FinitePositive(c.x); got != c.want {
			t.Errorf("FinitePositive(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestObservation_Valid(t *testing.T) {
	if err := Observation(validObs()); err != nil {
		t.Fatalf("valid observation rejected: %v", err)
	}
}

func TestObservation_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Observation)
	}{
		{"zero timestamp", func(o *model.Observation) { o.Timestamp = 0 }},
		{"negative timestamp", func(o *model.Observation) { o.Timestamp = -5 }},
		{"nan close", func(o *model.Observation) { o.Close = math.NaN() }},
		{"inf high", func(o *model.Observation) { o.High = math.Inf(1) }},
		{"zero volume", func(o *model.Observation) { o.Volume = 0 }},
		{"negative low", func(o *model.Observation) { o.Low = -1 }},
		{"close above high", func(o *model.Observation) { o.Close = 110 }},
		{"close below low", func(o *model.Observation) { o.Close = 90 }},
	}
	for _, c := range cases {
		o := validObs()
		c.mutate(&o)
		if err := Observation(o); err == nil {
			t.Errorf("%s: expected rejection, got nil", c.name)
		}
	}
}

func TestHistory_Valid(t *testing.T) {
	h := model.NewHistory(4)
	h.Append(validObs())
	h.Append(validObs())
	if err := History(h); err != nil {
		t.Fatalf("valid history rejected: %v", err)
	}
}

func TestHistory_Rejects(t *testing.T) {
	empty := model.NewHistory(0)
	if err := History(empty); err == nil {
		t.Error("empty history accepted")
	}

	mismatched := model.NewHistory(2)
	mismatched.Append(validObs())
	mismatched.Highs = append(mismatched.Highs, 106) // break parallel lengths
	if err := History(mismatched); err == nil {
		t.Error("mismatched parallel lengths accepted")
	}

	badPrice := model.NewHistory(1)
	badPrice.Append(validObs())
	badPrice.Closes[0] = math.NaN()
	if err := History(badPrice); err == nil {
		t.Error("NaN close accepted")
	}

	if err := History(nil); err == nil {
		t.Error("nil history accepted")
	}
}
