package models

type HistoryPoint struct {
	Index     int     `json:"index"`
	DemandKVA float64 `json:"demand_kva"`
}

type HistorySummary struct {
	Mean   float64 `json:"mean_kva"`
	StdDev float64 `json:"stddev_kva"`
	Min    float64 `json:"min_kva"`
	Max    float64 `json:"max_kva"`
}

// History is synthetic; it is regenerated on every request and reproducible
// for a given seed.
type History struct {
	Seed    uint64         `json:"seed"`
	Points  []HistoryPoint `json:"points"`
	Summary HistorySummary `json:"summary"`
}
