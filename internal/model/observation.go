package model

import "time"

// Observation is a single price/volume sample for one instrument.
// Timestamp is Unix milliseconds. All numeric fields must be finite and
// strictly positive, with Low <= Close <= High (enforced by validate).
type Observation struct {
	Timestamp int64   `json:"timestamp"` // ms
	Close     float64 `json:"close"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"`
}

// SymbolObservation pairs an observation with its instrument, for
// channel-based fan-in to the archive writer.
type SymbolObservation struct {
	Symbol string      `json:"symbol"`
	Obs    Observation `json:"obs"`
}

// Tick is a live price update from the exchange stream. It carries the
// session high/low/volume so a round can fold it into an Observation.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
	TS     time.Time `json:"ts"`
}

// Observation converts a tick to an observation stamped with the tick time.
func (t Tick) Observation() Observation {
	return Observation{
		Timestamp: t.TS.UnixMilli(),
		Close:     t.Price,
		High:      t.High,
		Low:       t.Low,
		Volume:    t.Volume,
	}
}
