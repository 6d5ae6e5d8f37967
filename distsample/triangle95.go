package distsample

import (
	"fmt"
	"math"

	"github.com/radphys/dvhrisk/common"
	"gonum.org/v1/gonum/optimize"
)

// The triangle95 families fit a triangular distribution to a two-sided
// 95% confidence interval: the CDF must pass through 2.5% at the lower
// bound and 97.5% at the upper bound, with either the mean or the mode
// pinned. The quantile system is nonlinear and solved numerically; it
// is known to be fragile for extreme (lower, mean, upper) combinations
// and a non-converged solve is reported as an error, never guessed.

const (
	triangleResidualTol = 1e-6
	penalty             = 1e6
)

// triangleCDF is the closed-form CDF of a triangular distribution with
// support [a, b] and mode c.
func triangleCDF(x, a, c, b float64) float64 {
	switch {
	case x <= a:
		return 0
	case x >= b:
		return 1
	case x <= c:
		return (x - a) * (x - a) / ((b - a) * (c - a))
	default:
		return 1 - (b-x)*(b-x)/((b-a)*(b-c))
	}
}

// solveTriangle95Mode finds support bounds (a, b) such that the
// triangle with the given mode has its 2.5%/97.5% quantiles at lower
// and upper.
func solveTriangle95Mode(lower, mode, upper float64) (a, b float64, err error) {
	if !(lower < upper) || mode < lower || mode > upper {
		return 0, 0, fmt.Errorf("triangle95mode parameters (%v, %v, %v): %w",
			lower, mode, upper, common.ErrorInvalidValue)
	}
	width := upper - lower

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			a, b := x[0], x[1]
			if a > lower || b < upper || a > mode || b < mode {
				return penalty * (1 + math.Abs(a) + math.Abs(b))
			}
			r1 := triangleCDF(lower, a, mode, b) - 0.025
			r2 := triangleCDF(upper, a, mode, b) - 0.975
			return r1*r1 + r2*r2
		},
	}
	// Seed with symmetric inflation outside [lower, upper], the same
	// closed-form widening box95 uses.
	x0 := []float64{lower - 0.05*width, upper + 0.05*width}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, fmt.Errorf("triangle95mode(%v, %v, %v): %w: %v",
			lower, mode, upper, common.ErrorNoConvergence, err)
	}
	if result.F > triangleResidualTol {
		return 0, 0, fmt.Errorf("triangle95mode(%v, %v, %v): residual %v: %w",
			lower, mode, upper, result.F, common.ErrorNoConvergence)
	}
	return result.X[0], result.X[1], nil
}

// solveTriangle95 finds (a, mode, b) such that the triangle has the
// given mean and its 2.5%/97.5% quantiles at lower and upper. The mean
// constraint mean = (a+mode+b)/3 eliminates the mode, reducing the
// three-equation system to two unknowns; the mode-fixed sub-system
// solved at mode = mean provides the initial guess.
func solveTriangle95(lower, mean, upper float64) (a, mode, b float64, err error) {
	if !(lower < upper) || mean < lower || mean > upper {
		return 0, 0, 0, fmt.Errorf("triangle95 parameters (%v, %v, %v): %w",
			lower, mean, upper, common.ErrorInvalidValue)
	}

	modeOf := func(a, b float64) float64 { return 3*mean - a - b }

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			a, b := x[0], x[1]
			c := modeOf(a, b)
			if a > lower || b < upper || c < a || c > b {
				return penalty * (1 + math.Abs(a) + math.Abs(b))
			}
			r1 := triangleCDF(lower, a, c, b) - 0.025
			r2 := triangleCDF(upper, a, c, b) - 0.975
			return r1*r1 + r2*r2
		},
	}

	a0, b0, err := solveTriangle95Mode(lower, mean, upper)
	if err != nil {
		// Fall back to the closed-form widening as the seed; the full
		// solve below still has to converge on its own.
		width := upper - lower
		a0, b0 = lower-0.05*width, upper+0.05*width
	}
	result, err := optimize.Minimize(problem, []float64{a0, b0}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("triangle95(%v, %v, %v): %w: %v",
			lower, mean, upper, common.ErrorNoConvergence, err)
	}
	if result.F > triangleResidualTol {
		return 0, 0, 0, fmt.Errorf("triangle95(%v, %v, %v): residual %v: %w",
			lower, mean, upper, result.F, common.ErrorNoConvergence)
	}
	a, b = result.X[0], result.X[1]
	return a, modeOf(a, b), b, nil
}
