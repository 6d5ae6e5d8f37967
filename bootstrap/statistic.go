package bootstrap

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval for a statistic.
type Interval struct {
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Statistic resamples data and applies measure to every resampled row,
// returning the confidence interval of the resulting distribution at
// the given two-sided confidence level together with the raw
// distribution itself.
func Statistic(rnd *rand.Rand, data []float64, measure func([]float64) float64,
	maxSamples int, mode Mode, confidence float64) (Interval, []float64, error) {

	samples, err := Resample(rnd, data, maxSamples, mode)
	if err != nil {
		return Interval{}, nil, err
	}

	rows, cols := samples.Dims()
	dist := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		copy(row, samples.RawRowView(i))
		dist[i] = measure(row)
	}
	return intervalOf(dist, confidence), dist, nil
}

// StatisticParallel is Statistic with the measure applied by a worker
// pool. The resample matrix is drawn up front on the caller's source,
// so results are identical to the serial form for a given seed.
func StatisticParallel(ctx context.Context, rnd *rand.Rand, data []float64,
	measure func([]float64) float64, maxSamples int, mode Mode,
	confidence float64, workers int) (Interval, []float64, error) {

	samples, err := Resample(rnd, data, maxSamples, mode)
	if err != nil {
		return Interval{}, nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rows, cols := samples.Dims()
	dist := make([]float64, rows)

	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for i := 0; i < rows; i++ {
		i := i
		grp.Go(func() error {
			row := make([]float64, cols)
			copy(row, samples.RawRowView(i))
			dist[i] = measure(row)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return Interval{}, nil, err
	}
	return intervalOf(dist, confidence), dist, nil
}

func intervalOf(dist []float64, confidence float64) Interval {
	sorted := make([]float64, len(dist))
	copy(sorted, dist)
	sort.Float64s(sorted)

	mean, stddev := stat.MeanStdDev(sorted, nil)
	tail := (1 - confidence) / 2
	return Interval{
		Lower:  stat.Quantile(tail, stat.LinInterp, sorted, nil),
		Upper:  stat.Quantile(1-tail, stat.LinInterp, sorted, nil),
		Mean:   mean,
		StdDev: stddev,
	}
}
