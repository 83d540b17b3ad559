package indicator

import "math"

// sma returns the simple moving average of the last period values of xs.
// Caller guarantees len(xs) >= period >= 1.
func sma(xs []float64, period int) float64 {
	return smaEnding(xs, period, len(xs))
}

// smaEnding returns the SMA of the period values ending at index end
// (exclusive). Caller guarantees period <= end <= len(xs).
func smaEnding(xs []float64, period, end int) float64 {
	sum := 0.0
	for i := end - period; i < end; i++ {
		sum += xs[i]
	}
	return sum / float64(period)
}

// stdDev returns the population standard deviation of the last period
// values of xs.
func stdDev(xs []float64, period int) float64 {
	mean := sma(xs, period)
	variance := 0.0
	for i := len(xs) - period; i < len(xs); i++ {
		d := xs[i] - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(period))
}

// emaSeries computes the full EMA series over xs, seeded with xs[0].
func emaSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}

// highestEnding / lowestEnding scan the period values ending at index end
// (exclusive).
func highestEnding(xs []float64, period, end int) float64 {
	hi := math.Inf(-1)
	for i := end - period; i < end; i++ {
		if xs[i] > hi {
			hi = xs[i]
		}
	}
	return hi
}

func lowestEnding(xs []float64, period, end int) float64 {
	lo := math.Inf(1)
	for i := end - period; i < end; i++ {
		if xs[i] < lo {
			lo = xs[i]
		}
	}
	return lo
}

func highest(xs []float64, period int) float64 { return highestEnding(xs, period, len(xs)) }
func lowest(xs []float64, period int) float64  { return lowestEnding(xs, period, len(xs)) }

// typicalPrices returns (high+low+close)/3 per bar.
func typicalPrices(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = (highs[i] + lows[i] + closes[i]) / 3.0
	}
	return out
}
