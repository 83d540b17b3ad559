package model

// History is the bounded rolling window for one instrument: five parallel
// slices, equal length at all times. Appends go to the tail; trimming drops
// from the head (oldest first). History itself is not goroutine-safe — the
// store serializes access per symbol.
type History struct {
	Closes     []float64 `json:"closes"`
	Highs      []float64 `json:"highs"`
	Lows       []float64 `json:"lows"`
	Volumes    []float64 `json:"volumes"`
	Timestamps []int64   `json:"timestamps"`
}

// NewHistory returns an empty history with capacity hints for the
// retention limit.
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{
		Closes:     make([]float64, 0, capacity),
		Highs:      make([]float64, 0, capacity),
		Lows:       make([]float64, 0, capacity),
		Volumes:    make([]float64, 0, capacity),
		Timestamps: make([]int64, 0, capacity),
	}
}

// Len returns the number of stored observations.
func (h *History) Len() int { return len(h.Closes) }

// Prices is the legacy alias for Closes kept for downstream consumers.
func (h *History) Prices() []float64 { return h.Closes }

// Append adds one observation at the tail of all five slices.
func (h *History) Append(o Observation) {
	h.Closes = append(h.Closes, o.Close)
	h.Highs = append(h.Highs, o.High)
	h.Lows = append(h.Lows, o.Low)
	h.Volumes = append(h.Volumes, o.Volume)
	h.Timestamps = append(h.Timestamps, o.Timestamp)
}

// Trim drops observations from the head until Len() <= limit.
func (h *History) Trim(limit int) {
	if limit < 0 {
		limit = 0
	}
	excess := len(h.Closes) - limit
	if excess <= 0 {
		return
	}
	h.Closes = h.Closes[excess:]
	h.Highs = h.Highs[excess:]
	h.Lows = h.Lows[excess:]
	h.Volumes = h.Volumes[excess:]
	h.Timestamps = h.Timestamps[excess:]
}

// At returns the observation at index i. Caller guarantees 0 <= i < Len().
func (h *History) At(i int) Observation {
	return Observation{
		Timestamp: h.Timestamps[i],
		Close:     h.Closes[i],
		High:      h.Highs[i],
		Low:       h.Lows[i],
		Volume:    h.Volumes[i],
	}
}

// Clone returns a deep copy. Used to hand a stable view to indicators and
// snapshot writers while ingestion continues.
func (h *History) Clone() *History {
	c := &History{
		Closes:     make([]float64, len(h.Closes)),
		Highs:      make([]float64, len(h.Highs)),
		Lows:       make([]float64, len(h.Lows)),
		Volumes:    make([]float64, len(h.Volumes)),
		Timestamps: make([]int64, len(h.Timestamps)),
	}
	copy(c.Closes, h.Closes)
	copy(c.Highs, h.Highs)
	copy(c.Lows, h.Lows)
	copy(c.Volumes, h.Volumes)
	copy(c.Timestamps, h.Timestamps)
	return c
}
