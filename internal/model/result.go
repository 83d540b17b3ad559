package model

// Suggestion is the direction an indicator or ensemble leans.
type Suggestion string

const (
	SuggestionBuy  Suggestion = "buy"
	SuggestionSell Suggestion = "sell"
	SuggestionHold Suggestion = "hold"
)

// IndicatorResult is the uniform output of every calculator. A calculator
// that fails internally still produces one of these with Suggestion=hold,
// Confidence=0 and Error set — CalculateAll never surfaces a raw fault.
type IndicatorResult struct {
	Indicator  string         `json:"indicator"`
	Suggestion Suggestion     `json:"suggestion"`
	Confidence float64        `json:"confidence"` // [0,1]
	Strength   float64        `json:"strength"`   // [0,1]
	Metadata   map[string]any `json:"metadata,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Valid reports whether the calculator produced a real result rather than
// an errored neutral fallback.
func (r IndicatorResult) Valid() bool { return r.Error == "" }

// NeutralResult builds the hold/zero fallback for an errored calculator.
func NeutralResult(indicator, reason string) IndicatorResult {
	return IndicatorResult{
		Indicator:  indicator,
		Suggestion: SuggestionHold,
		Confidence: 0,
		Strength:   0,
		Error:      reason,
	}
}

// EnsembleMetadata carries the score buckets behind an ensemble decision.
type EnsembleMetadata struct {
	BuyScore        float64 `json:"buy_score"`
	SellScore       float64 `json:"sell_score"`
	HoldScore       float64 `json:"hold_score"`
	ValidIndicators int     `json:"valid_indicators"`
}

// EnsembleResult is the combined signal served to downstream consumers.
type EnsembleResult struct {
	Symbol     string            `json:"symbol"`
	Suggestion Suggestion        `json:"suggestion"`
	Confidence float64           `json:"confidence"`
	Strength   float64           `json:"strength"`
	Indicators []IndicatorResult `json:"indicators"`
	Metadata   EnsembleMetadata  `json:"metadata"`
	Timestamp  int64             `json:"timestamp"` // ms, set by the caller
}
