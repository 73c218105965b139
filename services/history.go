package services

import (
	"math/rand/v2"

	"econudge-dashboard/config"
	"econudge-dashboard/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SourceFactory returns a fresh pseudo-random source. Returning an
// identically seeded source on every call makes the chart reproducible.
type SourceFactory func() rand.Source

func SeededSource(seed uint64) SourceFactory {
	return func() rand.Source {
		return rand.NewPCG(seed, seed)
	}
}

// HistoryGenerator draws the synthetic demand series shown on the dashboard.
// It is display-only and never reads recorded data.
type HistoryGenerator struct {
	cfg    config.HistoryConfig
	source SourceFactory
}

func NewHistoryGenerator(cfg config.HistoryConfig, source SourceFactory) *HistoryGenerator {
	if source == nil {
		source = SeededSource(cfg.Seed)
	}
	return &HistoryGenerator{cfg: cfg, source: source}
}

func (g *HistoryGenerator) Generate() models.History {
	dist := distuv.Normal{
		Mu:    g.cfg.Baseline,
		Sigma: g.cfg.StdDev,
		Src:   g.source(),
	}

	values := make([]float64, g.cfg.Points)
	points := make([]models.HistoryPoint, g.cfg.Points)
	for i := range values {
		values[i] = dist.Rand()
		points[i] = models.HistoryPoint{Index: i, DemandKVA: values[i]}
	}

	return models.History{
		Seed:    g.cfg.Seed,
		Points:  points,
		Summary: summarize(values),
	}
}

func summarize(values []float64) models.HistorySummary {
	if len(values) == 0 {
		return models.HistorySummary{}
	}
	s := models.HistorySummary{
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}
