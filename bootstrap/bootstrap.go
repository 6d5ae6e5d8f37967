// Package bootstrap builds resampling-with-replacement sample matrices
// and bootstrap confidence intervals.
package bootstrap

import (
	"fmt"

	"github.com/radphys/dvhrisk/common"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"
)

// Mode selects how resampled rows are generated.
type Mode string

const (
	// ModeRandom draws exactly maxSamples rows at random.
	ModeRandom Mode = "random"
	// ModeExhaustive enumerates every multiset of the data, ignoring
	// maxSamples.
	ModeExhaustive Mode = "exhaustive"
	// ModeAdaptive enumerates exhaustively when the multiset count fits
	// in maxSamples and falls back to random draws otherwise. Small
	// per-patient sets stay statistically complete while larger sets
	// stay bounded in cost.
	ModeAdaptive Mode = "adaptive"
)

// DefaultMaxSamples is C(2*8-1, 8): sets of up to eight values are
// still resampled exhaustively under the adaptive mode.
const DefaultMaxSamples = 6435

// ExhaustiveCount returns the number of combinations-with-replacement
// of length l from l values, C(2l-1, l), as an exact integer. Only
// call it for counts known to fit in an int; the adaptive-mode guard
// uses the float form below.
func ExhaustiveCount(l int) int {
	if l <= 0 {
		return 0
	}
	return combin.Binomial(2*l-1, l)
}

// exhaustiveCountFloat is the overflow-safe C(2l-1, l) used to decide
// whether exhaustive enumeration fits the sampling budget.
func exhaustiveCountFloat(l int) float64 {
	if l <= 0 {
		return 0
	}
	return combin.GeneralizedBinomial(float64(2*l-1), float64(l))
}

// Resample resamples data with replacement and returns an M x L matrix
// where every row is one resampled copy of the data vector.
func Resample(rnd *rand.Rand, data []float64, maxSamples int, mode Mode) (*mat.Dense, error) {
	l := len(data)
	if l == 0 {
		return nil, fmt.Errorf("bootstrap: empty data vector: %w", common.ErrorInvalidValue)
	}
	switch mode {
	case ModeExhaustive:
		return exhaustive(data), nil
	case ModeRandom:
		if maxSamples <= 0 {
			return nil, fmt.Errorf("bootstrap: max samples %v: %w", maxSamples, common.ErrorInvalidValue)
		}
		return random(rnd, data, maxSamples), nil
	case ModeAdaptive:
		if maxSamples <= 0 {
			return nil, fmt.Errorf("bootstrap: max samples %v: %w", maxSamples, common.ErrorInvalidValue)
		}
		if exhaustiveCountFloat(l) <= float64(maxSamples) {
			return exhaustive(data), nil
		}
		return random(rnd, data, maxSamples), nil
	}
	return nil, fmt.Errorf("bootstrap mode %q: %w", mode, common.ErrorUnknownName)
}

func random(rnd *rand.Rand, data []float64, rows int) *mat.Dense {
	l := len(data)
	out := mat.NewDense(rows, l, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < l; j++ {
			out.Set(i, j, data[rnd.Intn(l)])
		}
	}
	return out
}

// exhaustive walks every non-decreasing index tuple of length l over
// {0..l-1}, which enumerates the multisets exactly once.
func exhaustive(data []float64) *mat.Dense {
	l := len(data)
	rows := ExhaustiveCount(l)
	out := mat.NewDense(rows, l, nil)

	idx := make([]int, l)
	for row := 0; row < rows; row++ {
		for j, k := range idx {
			out.Set(row, j, data[k])
		}
		// Advance the odometer: bump the rightmost index that can still
		// grow, then level everything after it.
		pos := l - 1
		for pos >= 0 && idx[pos] == l-1 {
			pos--
		}
		if pos < 0 {
			break
		}
		idx[pos]++
		for j := pos + 1; j < l; j++ {
			idx[j] = idx[pos]
		}
	}
	return out
}
