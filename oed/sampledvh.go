package oed

import (
	"context"
	"fmt"
	"math"

	"github.com/radphys/dvhrisk/bootstrap"
	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/distsample"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/response"
	"github.com/radphys/dvhrisk/sampler"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SampleDVHOptions configures cross-patient DVH sampling.
type SampleDVHOptions struct {
	DoseJitter          model.Distribution
	VolumeJitter        model.Distribution
	InterpolationMethod interpolate.Method
	BootstrapMax        int
	BootstrapMode       bootstrap.Mode
	Seed                uint64
	Workers             int
}

// SampleDVH produces Monte-Carlo samples of the cohort mean DVH. Per
// sample, every patient's DVH is jittered and interpolated onto the
// volume bins; a bootstrap resample of the patient set then selects
// whose curves contribute to the mean. The result is an
// nsamples x len(volumeBins) matrix of mean dose rows.
func SampleDVH(ctx context.Context, dvhs []*model.DVH, nsamples int,
	volumeBins []float64, options SampleDVHOptions) (*mat.Dense, error) {

	if len(dvhs) == 0 {
		return nil, fmt.Errorf("sample dvh: no input histograms: %w", common.ErrorInvalidValue)
	}
	if nsamples <= 0 || len(volumeBins) == 0 {
		return nil, fmt.Errorf("sample dvh: %v samples over %v bins: %w",
			nsamples, len(volumeBins), common.ErrorInvalidValue)
	}
	if options.BootstrapMax <= 0 {
		options.BootstrapMax = bootstrap.DefaultMaxSamples
	}
	if options.BootstrapMode == "" {
		options.BootstrapMode = bootstrap.ModeAdaptive
	}

	// The patient index vector is resampled once; its rows are cycled
	// across the Monte-Carlo samples.
	indices := make([]float64, len(dvhs))
	for i := range indices {
		indices[i] = float64(i)
	}
	rnd := rand.New(rand.NewSource(options.Seed))
	picks, err := bootstrap.Resample(rnd, indices, options.BootstrapMax, options.BootstrapMode)
	if err != nil {
		return nil, err
	}
	pickRows, _ := picks.Dims()

	out := mat.NewDense(nsamples, len(volumeBins), nil)
	err = sampler.ParallelMap(ctx, nsamples, options.Workers, func(s int) error {
		ds := distsample.New(options.Seed + 1 + uint64(s))
		mean := make([]float64, len(volumeBins))
		row := picks.RawRowView(s % pickRows)
		for _, pick := range row {
			dvh := dvhs[int(pick)]
			points, err := JitterDVH(ds, dvh, options.DoseJitter, options.VolumeJitter)
			if err != nil {
				return err
			}
			doses, err := interpolate.DoseAt(volumeBins, points, options.InterpolationMethod)
			if err != nil {
				return fmt.Errorf("dvh %q: %w", dvh.Organ, err)
			}
			floats.Add(mean, doses)
		}
		floats.Scale(1/float64(len(row)), mean)
		out.SetRow(s, mean)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyResponse evaluates a response model over an interpolated DVH
// and re-expresses the transformed curve as a new DVH over the given
// dose bins: for each dose bin the volume fraction receiving at least
// that transformed dose.
func ApplyResponse(dvh *model.DVH, volumeBins, doseBins []float64,
	interpMethod interpolate.Method, m response.Model) (*model.DVH, error) {

	if len(volumeBins) < 2 {
		return nil, fmt.Errorf("apply response: %v volume bins: %w",
			len(volumeBins), common.ErrorInvalidValue)
	}
	curve, err := interpolate.NewCurve(dvh.Points(), interpMethod)
	if err != nil {
		return nil, fmt.Errorf("dvh %q: %w", dvh.Organ, err)
	}

	transformed := make([]float64, len(volumeBins))
	for i, v := range volumeBins {
		transformed[i] = m.Response(curve.At(v))
	}

	// Invert to volume(transformed dose). Response models may be
	// non-monotonic; duplicate abscissas average out in the fit.
	inverse, err := interpolate.NewXYCurve(transformed, volumeBins, interpolate.MethodLinear)
	if err != nil {
		return nil, fmt.Errorf("dvh %q: %w", dvh.Organ, err)
	}

	volume := make([]float64, len(doseBins))
	for i, d := range doseBins {
		volume[i] = math.Min(math.Max(inverse.At(d), 0), 1)
	}
	return &model.DVH{Organ: dvh.Organ, Dose: doseBins, Volume: volume}, nil
}
