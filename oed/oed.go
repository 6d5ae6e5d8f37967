// Package oed composes interpolation, response models, numeric
// integration and Monte-Carlo sampling into organ-equivalent-dose and
// relative-risk figures for single patients and whole cohorts.
package oed

import (
	"fmt"

	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/integrate"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/response"
	"gonum.org/v1/gonum/mat"
)

// OED computes the organ equivalent dose for one DVH: the integral of
// the response model applied to the interpolated dose over the full
// volume-fraction range [0, 1].
func OED(m response.Model, points *mat.Dense, interpMethod interpolate.Method,
	intOpts integrate.Options) (float64, error) {

	curve, err := interpolate.NewCurve(points, interpMethod)
	if err != nil {
		return 0, fmt.Errorf("oed %s: %w", m.Name(), err)
	}
	value, err := integrate.Integrate(func(v float64) float64 {
		return m.Response(curve.At(v))
	}, intOpts)
	if err != nil {
		return 0, fmt.Errorf("oed %s: %w", m.Name(), err)
	}
	return value, nil
}

// RelativeRiskParams parameterizes the ratio of two linear-quadratic
// organ-equivalent-dose integrals comparing treatment modalities. The
// numerator uses (Alpha, Beta, N1) directly over the first DVH; the
// denominator rescales the coefficients by the RBE pairs over the
// second DVH. The second RBE pair is only consulted by the
// LinearQuadMultiRBE model.
type RelativeRiskParams struct {
	Alpha float64
	Beta  float64
	N1    float64
	N2    float64

	RBE1Min float64
	RBE1Max float64
	RBE2Min float64
	RBE2Max float64
}

// RelativeRisk returns the ratio of the numerator model integral over
// dvh1 to the RBE-rescaled denominator integral over dvh2. Supported
// model names are LinearQuad and LinearQuadMultiRBE.
func RelativeRisk(modelName string, dvh1, dvh2 *mat.Dense, p RelativeRiskParams,
	interpMethod interpolate.Method, intOpts integrate.Options) (float64, error) {

	var numModel, denModel response.Model
	switch modelName {
	case "LinearQuad":
		numModel = response.LinearQuad{Alpha: p.Alpha, Beta: p.Beta, N: p.N1}
		denModel = response.LinearQuad{
			Alpha: p.Alpha * p.RBE1Min,
			Beta:  p.Beta * p.RBE1Max,
			N:     p.N2,
		}
	case "LinearQuadMultiRBE":
		numModel = response.LinearQuad{Alpha: p.Alpha, Beta: p.Beta, N: p.N1}
		denModel = response.LinearQuadMultiRBE{
			Alpha: p.Alpha, Beta: p.Beta, N: p.N2,
			RBE1Min: p.RBE1Min, RBE1Max: p.RBE1Max,
			RBE2Min: p.RBE2Min, RBE2Max: p.RBE2Max,
		}
	default:
		return 0, fmt.Errorf("relative risk model %q: %w", modelName, common.ErrorUnknownName)
	}

	num, err := OED(numModel, dvh1, interpMethod, intOpts)
	if err != nil {
		return 0, fmt.Errorf("relative risk numerator: %w", err)
	}
	den, err := OED(denModel, dvh2, interpMethod, intOpts)
	if err != nil {
		return 0, fmt.Errorf("relative risk denominator: %w", err)
	}
	if den == 0 {
		return 0, fmt.Errorf("relative risk denominator integrated to zero: %w",
			common.ErrorInvalidValue)
	}
	return num / den, nil
}
