// Package distsample draws Monte-Carlo samples from the named
// uncertainty distribution families used for DVH and model parameter
// jittering.
package distsample

import (
	"fmt"
	"math"

	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/model"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// box95Inflation is the half-width inflation factor turning a 95%
// two-sided confidence interval into full uniform bounds.
const box95Inflation = (1/0.95 - 1) / 2

// z975 is the standard normal quantile at 97.5%.
var z975 = distuv.UnitNormal.Quantile(0.975)

// Sampler draws from named distribution families. All randomness comes
// from its own source so runs are reproducible from a seed.
type Sampler struct {
	rnd *rand.Rand
}

func New(seed uint64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

func NewFromSource(src rand.Source) *Sampler {
	return &Sampler{rnd: rand.New(src)}
}

// Sample draws n values from the given family. Shape parameters may be
// scalars or vectors; vectors broadcast into one independent draw set
// per element, producing an n x K matrix (K = 1 for all-scalar
// parameters).
func (s *Sampler) Sample(kind model.DistKind, n int, params ...model.Param) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count %v: %w", n, common.ErrorInvalidValue)
	}
	cols := 1
	for _, p := range params {
		if len(p) == 0 {
			return nil, fmt.Errorf("distribution %q: empty shape parameter: %w",
				kind, common.ErrorInvalidValue)
		}
		if len(p) == 1 {
			continue
		}
		if cols != 1 && len(p) != cols {
			return nil, fmt.Errorf("distribution %q: parameter vectors of lengths %v and %v: %w",
				kind, cols, len(p), common.ErrorBadShape)
		}
		cols = len(p)
	}

	out := mat.NewDense(n, cols, nil)
	args := make([]float64, len(params))
	column := make([]float64, n)
	for k := 0; k < cols; k++ {
		for i, p := range params {
			if len(p) == 1 {
				args[i] = p[0]
			} else {
				args[i] = p[k]
			}
		}
		if err := s.drawColumn(kind, args, column); err != nil {
			return nil, err
		}
		out.SetCol(k, column)
	}
	return out, nil
}

// SampleVec is the scalar-parameter convenience form of Sample,
// returning a plain vector of n draws.
func (s *Sampler) SampleVec(kind model.DistKind, n int, args ...float64) ([]float64, error) {
	params := make([]model.Param, len(args))
	for i, a := range args {
		params[i] = model.Param{a}
	}
	samples, err := s.Sample(kind, n, params...)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	mat.Col(out, 0, samples)
	return out, nil
}

func (s *Sampler) drawColumn(kind model.DistKind, args, out []float64) error {
	switch kind {
	case model.DistDelta:
		if len(args) < 1 {
			return argError(kind, 1, len(args))
		}
		for i := range out {
			out[i] = args[0]
		}
		return nil

	case model.DistDoubleDelta:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		for i := range out {
			if s.rnd.Float64() < 0.5 {
				out[i] = args[0]
			} else {
				out[i] = args[1]
			}
		}
		return nil

	case model.DistBox:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		// Parameter order is irrelevant for a box.
		lo, hi := math.Min(args[0], args[1]), math.Max(args[0], args[1])
		return s.drawUniform(lo, hi, out)

	case model.DistBox95:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		lo, hi := math.Min(args[0], args[1]), math.Max(args[0], args[1])
		// Widen symmetrically so that [lo, hi] is the 95% interval.
		pad := (hi - lo) * box95Inflation
		return s.drawUniform(lo-pad, hi+pad, out)

	case model.DistTriangle:
		if len(args) != 3 {
			return argError(kind, 3, len(args))
		}
		return s.drawTriangle(args[0], args[1], args[2], out)

	case model.DistTriangle95:
		if len(args) != 3 {
			return argError(kind, 3, len(args))
		}
		a, m, b, err := solveTriangle95(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return s.drawTriangle(a, m, b, out)

	case model.DistTriangle95Mod:
		if len(args) != 3 {
			return argError(kind, 3, len(args))
		}
		a, b, err := solveTriangle95Mode(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return s.drawTriangle(a, args[1], b, out)

	case model.DistGaussian:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		return s.drawNormal(args[0], args[1], out)

	case model.DistGaussian95:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		mu, sigma := normalFromCI(args[0], args[1])
		return s.drawNormal(mu, sigma, out)

	case model.DistLogNormal:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		return s.drawLogNormal(args[0], args[1], out)

	case model.DistLogNormal95:
		if len(args) != 2 {
			return argError(kind, 2, len(args))
		}
		if args[0] <= 0 || args[1] <= 0 {
			return fmt.Errorf("distribution %q: bounds must be positive, got [%v, %v]: %w",
				kind, args[0], args[1], common.ErrorInvalidValue)
		}
		mu, sigma := normalFromCI(math.Log(args[0]), math.Log(args[1]))
		return s.drawLogNormal(mu, sigma, out)
	}
	return fmt.Errorf("distribution %q: %w", kind, common.ErrorUnknownName)
}

func (s *Sampler) drawUniform(lo, hi float64, out []float64) error {
	if lo == hi {
		for i := range out {
			out[i] = lo
		}
		return nil
	}
	dist := distuv.Uniform{Min: lo, Max: hi, Src: s.rnd}
	for i := range out {
		out[i] = dist.Rand()
	}
	return nil
}

func (s *Sampler) drawTriangle(min, mode, max float64, out []float64) error {
	if !(min <= mode && mode <= max) {
		return fmt.Errorf("triangle parameters (%v, %v, %v) out of order: %w",
			min, mode, max, common.ErrorInvalidValue)
	}
	if min == max {
		for i := range out {
			out[i] = min
		}
		return nil
	}
	dist := distuv.NewTriangle(min, max, mode, s.rnd)
	for i := range out {
		out[i] = dist.Rand()
	}
	return nil
}

func (s *Sampler) drawNormal(mu, sigma float64, out []float64) error {
	if sigma < 0 {
		return fmt.Errorf("gaussian sigma %v: %w", sigma, common.ErrorInvalidValue)
	}
	if sigma == 0 {
		for i := range out {
			out[i] = mu
		}
		return nil
	}
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: s.rnd}
	for i := range out {
		out[i] = dist.Rand()
	}
	return nil
}

func (s *Sampler) drawLogNormal(mu, sigma float64, out []float64) error {
	if sigma < 0 {
		return fmt.Errorf("lognormal sigma %v: %w", sigma, common.ErrorInvalidValue)
	}
	if sigma == 0 {
		for i := range out {
			out[i] = math.Exp(mu)
		}
		return nil
	}
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.rnd}
	for i := range out {
		out[i] = dist.Rand()
	}
	return nil
}

// normalFromCI derives (mu, sigma) from a two-sided 95% confidence
// interval using the standard normal quantiles at 2.5% and 97.5%.
func normalFromCI(lower, upper float64) (mu, sigma float64) {
	mu = (lower + upper) / 2
	sigma = (upper - lower) / (2 * z975)
	return mu, sigma
}

func argError(kind model.DistKind, want, got int) error {
	return fmt.Errorf("distribution %q needs %v shape parameters, got %v: %w",
		kind, want, got, common.ErrorInvalidValue)
}
