package model

// SnapshotHistory is the on-disk layout of one instrument's history.
// Prices duplicates Closes for consumers of the legacy field name; on load
// only Closes is authoritative.
type SnapshotHistory struct {
	Closes     []float64 `json:"closes"`
	Highs      []float64 `json:"highs"`
	Lows       []float64 `json:"lows"`
	Prices     []float64 `json:"prices"`
	Volumes    []float64 `json:"volumes"`
	Timestamps []int64   `json:"timestamps"`
}

// Snapshot is the durable, named-by-symbol record persisted per instrument.
type Snapshot struct {
	Symbol         string          `json:"symbol"`
	LastUpdated    int64           `json:"lastUpdated"` // ms
	DataPointCount int             `json:"dataPointCount"`
	History        SnapshotHistory `json:"history"`
}

// NewSnapshot builds a snapshot record from an in-memory history.
func NewSnapshot(symbol string, h *History, nowMillis int64) Snapshot {
	return Snapshot{
		Symbol:         symbol,
		LastUpdated:    nowMillis,
		DataPointCount: h.Len(),
		History: SnapshotHistory{
			Closes:     h.Closes,
			Highs:      h.Highs,
			Lows:       h.Lows,
			Prices:     h.Closes,
			Volumes:    h.Volumes,
			Timestamps: h.Timestamps,
		},
	}
}

// ToHistory converts a validated snapshot back to an in-memory history.
func (s *Snapshot) ToHistory() *History {
	h := NewHistory(len(s.History.Closes))
	h.Closes = append(h.Closes, s.History.Closes...)
	h.Highs = append(h.Highs, s.History.Highs...)
	h.Lows = append(h.Lows, s.History.Lows...)
	h.Volumes = append(h.Volumes, s.History.Volumes...)
	h.Timestamps = append(h.Timestamps, s.History.Timestamps...)
	return h
}

// InstrumentStats describes one persisted snapshot file.
type InstrumentStats struct {
	Symbol       string `json:"symbol"`
	SizeBytes    int64  `json:"size_bytes"`
	DataPoints   int    `json:"data_points"`
	LastModified int64  `json:"last_modified"` // ms
}

// StorageStats summarizes the snapshot directory.
type StorageStats struct {
	Instruments    int               `json:"instruments"`
	TotalSizeBytes int64             `json:"total_size_bytes"`
	PerInstrument  []InstrumentStats `json:"per_instrument"`
}
