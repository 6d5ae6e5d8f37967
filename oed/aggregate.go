package oed

import (
	"context"
	"sort"

	"github.com/radphys/dvhrisk/bootstrap"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/utils"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// GroupKey addresses population-level statistics: one organ under one
// response model, aggregated across patients.
type GroupKey struct {
	Organ string `json:"organ"`
	Model string `json:"model"`
}

// PopulationStats is the bootstrap aggregate of per-patient OED means.
type PopulationStats struct {
	Patients int           `json:"patients"`
	Summary  model.Summary `json:"summary"`
}

// Aggregate bootstraps per-patient statistics into population-level
// mean and confidence-interval estimates. Each patient contributes the
// mean of its sample vector; the cohort of per-patient means is then
// resampled with the given budget and mode.
func Aggregate(ctx context.Context, results model.ResultSet, maxSamples int,
	mode bootstrap.Mode, confidence float64, seed uint64, workers int) (map[GroupKey]PopulationStats, error) {

	logger := utils.GetLogger(ctx)
	if maxSamples <= 0 {
		maxSamples = bootstrap.DefaultMaxSamples
	}
	if mode == "" {
		mode = bootstrap.ModeAdaptive
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	grouped := map[GroupKey][]float64{}
	for key, samples := range results {
		if len(samples) == 0 {
			logger.Warn("empty sample vector, skipping", zap.String("key", key.String()))
			continue
		}
		group := GroupKey{Organ: key.Organ, Model: key.Model}
		grouped[group] = append(grouped[group], stat.Mean(samples, nil))
	}

	out := make(map[GroupKey]PopulationStats, len(grouped))
	for group, means := range grouped {
		rnd := rand.New(rand.NewSource(seed))
		interval, _, err := bootstrap.StatisticParallel(ctx, rnd, means,
			func(row []float64) float64 { return stat.Mean(row, nil) },
			maxSamples, mode, confidence, workers)
		if err != nil {
			return nil, err
		}
		sorted := append([]float64(nil), means...)
		sort.Float64s(sorted)
		out[group] = PopulationStats{
			Patients: len(means),
			Summary: model.Summary{
				Min:    sorted[0],
				Max:    sorted[len(sorted)-1],
				Mean:   interval.Mean,
				StdDev: interval.StdDev,
				Lower:  interval.Lower,
				Upper:  interval.Upper,
			},
		}
	}
	return out, nil
}

// Summarize reduces one sample vector to the statistics the report
// layer consumes.
func Summarize(samples []float64, confidence float64) model.Summary {
	if len(samples) == 0 {
		return model.Summary{}
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	mean, stddev := stat.MeanStdDev(sorted, nil)
	tail := (1 - confidence) / 2
	return model.Summary{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: stddev,
		Lower:  stat.Quantile(tail, stat.LinInterp, sorted, nil),
		Upper:  stat.Quantile(1-tail, stat.LinInterp, sorted, nil),
	}
}
