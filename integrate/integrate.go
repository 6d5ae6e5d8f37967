// Package integrate evaluates response-model integrals over the unit
// volume-fraction interval.
package integrate

import (
	"fmt"
	"math"

	"github.com/radphys/dvhrisk/common"
	"gonum.org/v1/gonum/integrate/quad"
)

// Method selects the quadrature strategy.
type Method string

const (
	// MethodTrapezoid is fixed trapezoidal quadrature with adaptive
	// step halving. Adaptive quadrature can misbehave on the kinked
	// integrands the plateau and threshold models produce, so this
	// strategy is always available as the robust alternative.
	MethodTrapezoid Method = "trapezoid"
	// MethodSimpson is adaptive-recursive Simpson quadrature.
	MethodSimpson Method = "simpson"
	// MethodGauss is Gauss-Legendre quadrature with an order-doubling
	// refinement loop.
	MethodGauss Method = "gauss"
)

// Options configures one integration. The zero value means trapezoid
// with DefaultTolerance.
type Options struct {
	Method    Method
	Tolerance float64
}

const DefaultTolerance = 1e-5

// maxHalvings bounds the trapezoid refinement; 2^22 intervals is far
// beyond any tolerance used in practice.
const maxHalvings = 22

// Integrate evaluates the integral of f over [0, 1].
func Integrate(f func(float64) float64, opts Options) (float64, error) {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	switch opts.Method {
	case MethodTrapezoid, "":
		return trapezoid(f, 0, 1, tol)
	case MethodSimpson:
		return adaptiveSimpson(f, 0, 1, tol), nil
	case MethodGauss:
		return gaussLegendre(f, 0, 1, tol)
	}
	return 0, fmt.Errorf("integration method %q: %w", opts.Method, common.ErrorUnknownName)
}

// trapezoid starts from a coarse step proportional to the tolerance
// and halves it until two consecutive estimates agree within the
// tolerance.
func trapezoid(f func(float64) float64, a, b, tol float64) (float64, error) {
	step := math.Max(1e-4, math.Min(100*tol, 0.25)) * (b - a)
	n := int(math.Ceil((b - a) / step))
	if n < 4 {
		n = 4
	}

	prev := trapezoidFixed(f, a, b, n)
	for i := 0; i < maxHalvings; i++ {
		n *= 2
		cur := trapezoidFixed(f, a, b, n)
		if math.Abs(cur-prev) < tol {
			return cur, nil
		}
		prev = cur
	}
	return 0, fmt.Errorf("trapezoid integration did not settle within tolerance %v: %w",
		tol, common.ErrorNoConvergence)
}

func trapezoidFixed(f func(float64) float64, a, b float64, n int) float64 {
	h := (b - a) / float64(n)
	sum := (f(a) + f(b)) / 2
	for i := 1; i < n; i++ {
		sum += f(a + float64(i)*h)
	}
	return sum * h
}

// adaptiveSimpson is the classic recursive Simpson scheme with the
// Richardson error estimate.
func adaptiveSimpson(f func(float64) float64, a, b, tol float64) float64 {
	fa, fb := f(a), f(b)
	m, fm, whole := simpsonStep(f, a, b, fa, fb)
	return simpsonRecurse(f, a, b, fa, fb, m, fm, whole, tol, 50)
}

func simpsonStep(f func(float64) float64, a, b, fa, fb float64) (m, fm, s float64) {
	m = (a + b) / 2
	fm = f(m)
	s = (b - a) / 6 * (fa + 4*fm + fb)
	return m, fm, s
}

func simpsonRecurse(f func(float64) float64, a, b, fa, fb, m, fm, whole, tol float64, depth int) float64 {
	lm, flm, left := simpsonStep(f, a, m, fa, fm)
	rm, frm, right := simpsonStep(f, m, b, fm, fb)
	delta := left + right - whole
	if depth <= 0 || math.Abs(delta) <= 15*tol {
		return left + right + delta/15
	}
	return simpsonRecurse(f, a, m, fa, fm, lm, flm, left, tol/2, depth-1) +
		simpsonRecurse(f, m, b, fm, fb, rm, frm, right, tol/2, depth-1)
}

// gaussLegendre doubles the rule order until two consecutive fixed
// estimates agree within the tolerance.
func gaussLegendre(f func(float64) float64, a, b, tol float64) (float64, error) {
	n := 8
	prev := quad.Fixed(f, a, b, n, nil, 0)
	for n <= 1<<14 {
		n *= 2
		cur := quad.Fixed(f, a, b, n, nil, 0)
		if math.Abs(cur-prev) < tol {
			return cur, nil
		}
		prev = cur
	}
	return 0, fmt.Errorf("gauss quadrature did not settle within tolerance %v: %w",
		tol, common.ErrorNoConvergence)
}
