// Package validate holds the pure predicates guarding everything that enters
// the rolling store: observations from the feed and histories loaded from
// disk. Nothing here mutates state or performs I/O.
package validate

import (
	"fmt"
	"math"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// FinitePositive reports whether x is a finite number strictly greater
// than zero. NaN, ±Inf, zero and negatives all fail.
func FinitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}

// Observation checks a single sample: positive millisecond timestamp, all
// four numeric fields finite positive, and low <= close <= high.
func Observation(o model.Observation) error {
	if o.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp %d not positive", model.ErrInvalidObservation, o.Timestamp)
	}
	if !FinitePositive(o.Close) || !FinitePositive(o.High) || !FinitePositive(o.Low) || !FinitePositive(o.Volume) {
		return fmt.Errorf("%w: non-finite or non-positive field", model.ErrInvalidObservation)
	}
	if o.Low > o.Close || o.Close > o.High {
		return fmt.Errorf("%w: low/close/high out of order (%.8f/%.8f/%.8f)", model.ErrInvalidObservation, o.Low, o.Close, o.High)
	}
	return nil
}

// Series checks that xs is non-empty and every element is finite positive.
func Series(xs []float64) error {
	if len(xs) == 0 {
		return fmt.Errorf("empty series")
	}
	for i, x := range xs {
		if !FinitePositive(x) {
			return fmt.Errorf("series[%d] = %v not finite positive", i, x)
		}
	}
	return nil
}

// History checks the structural invariants of a loaded history: closes
// non-empty with finite positive prices, and all parallel slices matching
// the closes length. Volumes of zero are allowed here — thin markets report
// them — but prices never are.
func History(h *model.History) error {
	if h == nil {
		return fmt.Errorf("nil history")
	}
	if err := Series(h.Closes); err != nil {
		return fmt.Errorf("closes: %w", err)
	}
	n := len(h.Closes)
	if len(h.Highs) != n || len(h.Lows) != n || len(h.Volumes) != n || len(h.Timestamps) != n {
		return fmt.Errorf("parallel length mismatch: closes=%d highs=%d lows=%d volumes=%d timestamps=%d",
			n, len(h.Highs), len(h.Lows), len(h.Volumes), len(h.Timestamps))
	}
	return nil
}
