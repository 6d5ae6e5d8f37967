package oed

import (
	"fmt"
	"math"

	"github.com/radphys/dvhrisk/distsample"
	"github.com/radphys/dvhrisk/model"
	"gonum.org/v1/gonum/mat"
)

// JitterDVH draws one jittered copy of a DVH's data points. Points
// that carry explicit (low, high) ranges are sampled inside those
// bounds with the configured distribution kind; points without ranges
// are offset by a draw from the jitter distribution itself (whose
// parameters are offsets around zero, e.g. box(-0.05, 0.05) for dose
// binning uncertainty). Jittered volume fractions are clamped to
// [0, 1] and doses to be non-negative.
func JitterDVH(ds *distsample.Sampler, dvh *model.DVH,
	doseJitter, volumeJitter model.Distribution) (*mat.Dense, error) {

	n := dvh.Len()
	points := mat.NewDense(n, 2, nil)

	dose, err := jitterAxis(ds, dvh.Dose, dvh.DoseLow, dvh.DoseHigh, doseJitter)
	if err != nil {
		return nil, fmt.Errorf("dvh %q dose jitter: %w", dvh.Organ, err)
	}
	volume, err := jitterAxis(ds, dvh.Volume, dvh.VolumeLow, dvh.VolumeHigh, volumeJitter)
	if err != nil {
		return nil, fmt.Errorf("dvh %q volume jitter: %w", dvh.Organ, err)
	}

	for i := 0; i < n; i++ {
		points.Set(i, 0, math.Max(dose[i], 0))
		points.Set(i, 1, math.Min(math.Max(volume[i], 0), 1))
	}
	return points, nil
}

func jitterAxis(ds *distsample.Sampler, nominal, low, high []float64,
	jitter model.Distribution) ([]float64, error) {

	n := len(nominal)
	out := make([]float64, n)
	if jitter.Kind == "" || jitter.Kind == model.DistDelta && len(jitter.Params) == 0 {
		copy(out, nominal)
		return out, nil
	}

	ranged := len(low) == n && len(high) == n
	for i := 0; i < n; i++ {
		if ranged {
			v, err := rangedDraw(ds, jitter.Kind, nominal[i], low[i], high[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
			continue
		}
		offsets := make([]float64, 0, len(jitter.Params))
		for _, p := range jitter.Params {
			offsets = append(offsets, p[0])
		}
		draw, err := ds.SampleVec(jitter.Kind, 1, offsets...)
		if err != nil {
			return nil, err
		}
		out[i] = nominal[i] + draw[0]
	}
	return out, nil
}

// rangedDraw samples one value for a point carrying explicit
// (low, high) bounds, building the family's shape parameters from the
// bracket. Triangle families centre on the nominal value, which sits
// inside the bracket for validated DVHs. The plain gaussian and
// lognormal families read the bracket as a 95% interval.
func rangedDraw(ds *distsample.Sampler, kind model.DistKind,
	nominal, low, high float64) (float64, error) {

	var args []float64
	switch kind {
	case model.DistDelta:
		args = []float64{nominal}
	case model.DistTriangle, model.DistTriangle95, model.DistTriangle95Mod:
		args = []float64{low, nominal, high}
	case model.DistGaussian:
		kind = model.DistGaussian95
		args = []float64{low, high}
	case model.DistLogNormal:
		kind = model.DistLogNormal95
		args = []float64{low, high}
	default:
		args = []float64{low, high}
	}
	draw, err := ds.SampleVec(kind, 1, args...)
	if err != nil {
		return 0, err
	}
	return draw[0], nil
}

// SampleParams draws one concrete value per parameter distribution, in
// order, for building a response model instance.
func SampleParams(ds *distsample.Sampler, dists []model.Distribution) ([]float64, error) {
	out := make([]float64, len(dists))
	for i, dist := range dists {
		draw, err := ds.Sample(dist.Kind, 1, dist.Params...)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = draw.At(0, 0)
	}
	return out, nil
}
