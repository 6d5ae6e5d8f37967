// Package interpolate turns discrete DVH data points into a continuous
// dose(volumeFraction) function.
package interpolate

import (
	"fmt"
	"math"
	"sort"

	"github.com/radphys/dvhrisk/common"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// Method selects the interpolant fitted through the cleaned points.
type Method string

const (
	MethodLinear Method = "linear"
	MethodPCHIP  Method = "pchip" // monotone piecewise cubic, the default
	MethodCubic  Method = "cubic"
	MethodSpline Method = "spline"
)

// relEps is the relative nudge applied to a remaining adjacent
// duplicate pair of abscissas so the interpolant stays well defined.
const relEps = 1e-7

type predictor interface {
	Predict(x float64) float64
	PredictDerivative(x float64) float64
}

// DoseAt evaluates the dose at the given volume fractions. The DVH
// points matrix may be laid out n x 2 or 2 x n with dose first and
// volume fraction second; the curve stores dose as a function of
// volume and is interpolated directly with volume fraction as the
// independent variable. The result has the same length as volumes.
//
// Degenerate inputs that cannot support interpolation (fewer than two
// distinct abscissas after cleaning, or a pure vertical drop from full
// volume at zero dose) yield an all-zero dose vector.
func DoseAt(volumes []float64, points *mat.Dense, method Method) ([]float64, error) {
	c, err := NewCurve(points, method)
	if err != nil {
		return nil, err
	}
	return c.AtAll(volumes), nil
}

// extractAxes accepts an n x 2 or 2 x n matrix and returns the dose
// and volume-fraction columns.
func extractAxes(points *mat.Dense) (dose, volume []float64, err error) {
	if points == nil {
		return nil, nil, fmt.Errorf("dvh points: nil matrix: %w", common.ErrorBadShape)
	}
	r, c := points.Dims()
	switch {
	case c == 2:
		dose = make([]float64, r)
		volume = make([]float64, r)
		mat.Col(dose, 0, points)
		mat.Col(volume, 1, points)
	case r == 2:
		dose = make([]float64, c)
		volume = make([]float64, c)
		mat.Row(dose, 0, points)
		mat.Row(volume, 1, points)
	default:
		return nil, nil, fmt.Errorf("dvh points: %vx%v matrix is neither 2-row nor 2-column: %w",
			r, c, common.ErrorBadShape)
	}
	return dose, volume, nil
}

// trimDuplicateEnds drops leading and trailing runs of points sharing
// the same volume coordinate, stopping as soon as two consecutive
// values differ.
func trimDuplicateEnds(dose, volume []float64) ([]float64, []float64) {
	start := 0
	for start+1 < len(volume) && volume[start] == volume[start+1] {
		start++
	}
	end := len(volume)
	for end-2 >= start && volume[end-1] == volume[end-2] {
		end--
	}
	return dose[start:end], volume[start:end]
}

// degenerate reports curves with no interpolable content: fewer than
// two points, or exactly the vertical drop (volume 1, dose 0) ->
// (volume 0, dose >= 0). Dose is defined as zero everywhere for these.
func degenerate(dose, volume []float64) bool {
	if len(volume) < 2 {
		return true
	}
	if len(volume) == 2 && volume[0] == 1 && dose[0] == 0 && volume[1] == 0 {
		return true
	}
	return false
}

// collapseInteriorRuns reduces interior runs of three or more equal
// volume values to the first and last point of the run. Cubic and
// monotone interpolants fail on exact duplicate abscissas.
func collapseInteriorRuns(dose, volume []float64) ([]float64, []float64) {
	outDose := dose[:0:0]
	outVolume := volume[:0:0]
	for i := 0; i < len(volume); {
		j := i
		for j+1 < len(volume) && volume[j+1] == volume[i] {
			j++
		}
		outDose = append(outDose, dose[i])
		outVolume = append(outVolume, volume[i])
		if j > i {
			outDose = append(outDose, dose[j])
			outVolume = append(outVolume, volume[j])
		}
		i = j + 1
	}
	return outDose, outVolume
}

// nudgeDuplicatePairs separates a remaining adjacent duplicate pair by
// a relative epsilon scaled toward the neighbours, preserving the
// ordering of the surrounding points.
func nudgeDuplicatePairs(volume []float64) {
	for i := 0; i+1 < len(volume); i++ {
		if volume[i] != volume[i+1] {
			continue
		}
		scale := math.Abs(volume[i])
		if scale == 0 {
			scale = 1
		}
		eps := scale * relEps
		if i > 0 {
			eps = math.Min(eps, math.Abs(volume[i]-volume[i-1])/2)
			if volume[i-1] < volume[i] {
				volume[i] -= eps
			} else {
				volume[i] += eps
			}
		}
		if i+2 < len(volume) {
			eps2 := math.Min(scale*relEps, math.Abs(volume[i+2]-volume[i+1])/2)
			if volume[i+2] > volume[i+1] {
				volume[i+1] += eps2
			} else {
				volume[i+1] -= eps2
			}
		}
		if volume[i] == volume[i+1] {
			// Both neighbours missing or coincident; force a minimal split.
			volume[i] -= eps
			volume[i+1] += eps
		}
	}
}

// Curve is a fitted, reusable dose(volume) interpolant. The zero-dose
// degenerate case is represented explicitly so callers can evaluate it
// like any other curve.
type Curve struct {
	pred   predictor
	lo, hi float64
	zero   bool
}

// NewCurve runs the DVH cleaning pipeline (orientation, end trimming,
// interior run collapse, epsilon nudge) and fits the interpolant once,
// for callers that evaluate the same curve many times.
func NewCurve(points *mat.Dense, method Method) (*Curve, error) {
	fp, err := newPredictor(method)
	if err != nil {
		return nil, err
	}
	dose, volume, err := extractAxes(points)
	if err != nil {
		return nil, err
	}

	dose, volume = trimDuplicateEnds(dose, volume)
	if degenerate(dose, volume) {
		return &Curve{zero: true}, nil
	}
	dose, volume = collapseInteriorRuns(dose, volume)
	nudgeDuplicatePairs(volume)

	// The interpolant wants a strictly increasing independent axis;
	// DVH volume fractions arrive descending with dose.
	if volume[0] > volume[len(volume)-1] {
		reverse(volume)
		reverse(dose)
	}

	p, err := fit(fp, volume, dose)
	if err != nil {
		return nil, err
	}
	return &Curve{pred: p, lo: volume[0], hi: volume[len(volume)-1]}, nil
}

// NewXYCurve fits a curve through arbitrary (x, y) samples: pairs are
// sorted by x and duplicate abscissas merged by averaging before the
// fit. Used when re-expressing transformed DVHs over new bins.
func NewXYCurve(xs, ys []float64, method Method) (*Curve, error) {
	fp, err := newPredictor(method)
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("xy curve: %v xs and %v ys: %w", len(xs), len(ys), common.ErrorBadShape)
	}
	type pair struct{ x, y float64 }
	pairs := make([]pair, len(xs))
	for i := range xs {
		pairs[i] = pair{xs[i], ys[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	var mx, my []float64
	for i := 0; i < len(pairs); {
		j := i
		sum := 0.0
		for j < len(pairs) && pairs[j].x == pairs[i].x {
			sum += pairs[j].y
			j++
		}
		mx = append(mx, pairs[i].x)
		my = append(my, sum/float64(j-i))
		i = j
	}
	if len(mx) < 2 {
		return &Curve{zero: true}, nil
	}

	p, err := fit(fp, mx, my)
	if err != nil {
		return nil, err
	}
	return &Curve{pred: p, lo: mx[0], hi: mx[len(mx)-1]}, nil
}

// At evaluates the curve at x, extrapolating linearly with the
// endpoint derivative outside the fitted range.
func (c *Curve) At(x float64) float64 {
	if c.zero {
		return 0
	}
	return predictExtrapolating(c.pred, x, c.lo, c.hi)
}

func (c *Curve) AtAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = c.At(x)
	}
	return out
}

type fittablePredictor interface {
	predictor
	Fit(xs, ys []float64) error
}

// piecewiseLinear extends interp.PiecewiseLinear with segment-slope
// derivatives so the linear method shares the extrapolation path with
// the cubic predictors.
type piecewiseLinear struct {
	interp.PiecewiseLinear
	xs, ys []float64
}

func (pl *piecewiseLinear) Fit(xs, ys []float64) error {
	if err := pl.PiecewiseLinear.Fit(xs, ys); err != nil {
		return err
	}
	pl.xs = append(pl.xs[:0], xs...)
	pl.ys = append(pl.ys[:0], ys...)
	return nil
}

// PredictDerivative returns the slope of the segment containing x,
// clamped to the first or last segment outside the fitted range.
func (pl *piecewiseLinear) PredictDerivative(x float64) float64 {
	i := sort.SearchFloat64s(pl.xs, x)
	if i < 1 {
		i = 1
	}
	if i > len(pl.xs)-1 {
		i = len(pl.xs) - 1
	}
	return (pl.ys[i] - pl.ys[i-1]) / (pl.xs[i] - pl.xs[i-1])
}

func newPredictor(method Method) (fittablePredictor, error) {
	switch method {
	case MethodLinear:
		return &piecewiseLinear{}, nil
	case MethodPCHIP, "":
		return &interp.FritschButland{}, nil
	case MethodCubic:
		return &interp.AkimaSpline{}, nil
	case MethodSpline:
		return &interp.NaturalCubic{}, nil
	}
	return nil, fmt.Errorf("interpolation method %q: %w", method, common.ErrorUnknownName)
}

func fit(p fittablePredictor, xs, ys []float64) (predictor, error) {
	if err := p.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("interpolation fit: %w", err)
	}
	return p, nil
}

// predictExtrapolating evaluates p at x, extending linearly with the
// endpoint derivative beyond the fitted range.
func predictExtrapolating(p predictor, x, lo, hi float64) float64 {
	switch {
	case x < lo:
		return p.Predict(lo) + p.PredictDerivative(lo)*(x-lo)
	case x > hi:
		return p.Predict(hi) + p.PredictDerivative(hi)*(x-hi)
	default:
		return p.Predict(x)
	}
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
