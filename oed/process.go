package oed

import (
	"context"
	"errors"
	"fmt"

	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/distsample"
	"github.com/radphys/dvhrisk/integrate"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/response"
	"github.com/radphys/dvhrisk/sampler"
	"github.com/radphys/dvhrisk/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// ProcessOptions configures a Monte-Carlo OED batch. All defaults are
// explicit; there is no hidden global parameter bag.
type ProcessOptions struct {
	// NSamples is the number of Monte-Carlo trials per organ/model.
	NSamples int
	// Organs and Models restrict the batch; empty means everything the
	// parameter table covers.
	Organs []string
	Models []string
	// OrganNameMap translates structure names found in DVH files to
	// canonical organ names.
	OrganNameMap map[string]string
	// OrganParams holds the ordered parameter distributions per
	// (organ, model).
	OrganParams map[string]map[string][]model.Distribution

	DoseJitter   model.Distribution
	VolumeJitter model.Distribution

	// Every (integration, interpolation) method combination is cycled
	// across the trials, so the spread of the samples also reflects
	// numerical uncertainty.
	IntegrationMethods   []integrate.Options
	InterpolationMethods []interpolate.Method

	Seed    uint64
	Workers int
}

func (o *ProcessOptions) withDefaults() ProcessOptions {
	opts := *o
	if opts.NSamples <= 0 {
		opts.NSamples = 100
	}
	if len(opts.IntegrationMethods) == 0 {
		opts.IntegrationMethods = []integrate.Options{{Method: integrate.MethodTrapezoid}}
	}
	if len(opts.InterpolationMethods) == 0 {
		opts.InterpolationMethods = []interpolate.Method{interpolate.MethodPCHIP}
	}
	return opts
}

// ProcessPatients computes OED sample vectors for every patient,
// organ and model in the batch. Missing or malformed organs are
// logged and skipped rather than aborting the batch; configuration
// errors (unknown model or method names) fail immediately.
func ProcessPatients(ctx context.Context, sets []*model.DVHSet, options ProcessOptions) (model.ResultSet, error) {
	logger := utils.GetLogger(ctx)
	opts := options.withDefaults()

	models := opts.Models
	if len(models) == 0 {
		models = collectModels(opts.OrganParams)
	}
	// Unknown model names are configuration errors and fail the whole
	// batch up front; parameter counts are checked per organ later.
	for _, name := range models {
		if _, err := response.New(name); errors.Is(err, common.ErrorUnknownName) {
			return nil, err
		}
	}
	organs := opts.Organs
	if len(organs) == 0 {
		organs = collectOrgans(opts.OrganParams)
	}

	results := make(model.ResultSet)
	for _, set := range sets {
		for _, organ := range organs {
			dvh, ok := set.Organ(organ, opts.OrganNameMap)
			if !ok {
				logger.Warn("organ not found, skipping",
					zap.String("patient", set.Patient), zap.String("organ", organ))
				continue
			}
			if err := dvh.Validate(); err != nil {
				logger.Warn("malformed dvh, skipping",
					zap.String("patient", set.Patient), zap.String("organ", organ),
					zap.Error(err))
				continue
			}
			dvh.ResolveRangeOverlaps()

			for _, modelName := range models {
				paramDists, ok := opts.OrganParams[organ][modelName]
				if !ok {
					logger.Warn("no parameters for organ/model, skipping",
						zap.String("organ", organ), zap.String("model", modelName))
					continue
				}

				key := model.ResultKey{Patient: set.Patient, Organ: organ, Model: modelName}
				samples, err := oedSamples(ctx, dvh, modelName, paramDists, opts, keySeed(opts.Seed, key))
				if err != nil {
					logger.Warn("oed sampling failed, skipping",
						zap.String("key", key.String()), zap.Error(err))
					continue
				}
				results[key] = samples
				logger.Info("oed samples computed",
					zap.String("key", key.String()), zap.Int("samples", len(samples)),
					zap.Float64("mean", utils.FormatFloat(stat.Mean(samples, nil), 3)))
			}
		}
	}
	return results, nil
}

// oedSamples runs the per-trial pipeline: jitter the DVH points and
// the model parameters, build the response model, integrate. Method
// combinations are cycled round-robin over the trials.
func oedSamples(ctx context.Context, dvh *model.DVH, modelName string,
	paramDists []model.Distribution, opts ProcessOptions, seed uint64) ([]float64, error) {

	combos := methodCombos(opts)
	samples := make([]float64, opts.NSamples)

	err := sampler.ParallelMap(ctx, opts.NSamples, opts.Workers, func(i int) error {
		ds := distsample.New(seed + uint64(i))
		points, err := JitterDVH(ds, dvh, opts.DoseJitter, opts.VolumeJitter)
		if err != nil {
			return err
		}
		params, err := SampleParams(ds, paramDists)
		if err != nil {
			return err
		}
		m, err := buildModel(modelName, params)
		if err != nil {
			return err
		}
		combo := combos[i%len(combos)]
		value, err := OED(m, points, combo.interp, combo.integ)
		if err != nil {
			return err
		}
		samples[i] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

type methodCombo struct {
	integ  integrate.Options
	interp interpolate.Method
}

func methodCombos(opts ProcessOptions) []methodCombo {
	combos := make([]methodCombo, 0, len(opts.IntegrationMethods)*len(opts.InterpolationMethods))
	for _, integOpt := range opts.IntegrationMethods {
		for _, interpMethod := range opts.InterpolationMethods {
			combos = append(combos, methodCombo{integ: integOpt, interp: interpMethod})
		}
	}
	return combos
}

func buildModel(name string, params []float64) (response.Model, error) {
	return response.New(name, params...)
}

func collectModels(organParams map[string]map[string][]model.Distribution) []string {
	seen := map[string]bool{}
	var out []string
	for _, perModel := range organParams {
		for name := range perModel {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func collectOrgans(organParams map[string]map[string][]model.Distribution) []string {
	out := make([]string, 0, len(organParams))
	for name := range organParams {
		out = append(out, name)
	}
	return out
}

// keySeed derives a per-result-key seed from the base seed so trial
// streams stay independent between organs and patients.
func keySeed(base uint64, key model.ResultKey) uint64 {
	const prime = 1099511628211
	h := base
	for _, s := range []string{key.Patient, key.Organ, key.Model} {
		for _, b := range []byte(s) {
			h = (h ^ uint64(b)) * prime
		}
	}
	return h
}

// RelativeRiskSamples draws Monte-Carlo relative-risk values between
// two treatment modality DVHs of the same organ: both DVHs and the
// shared model parameters are jittered per trial and the ratio of the
// two integrals recorded.
func RelativeRiskSamples(ctx context.Context, modelName string, dvh1, dvh2 *model.DVH,
	paramDists []model.Distribution, rbe RelativeRiskParams, opts ProcessOptions) ([]float64, error) {

	o := opts.withDefaults()
	combos := methodCombos(o)
	samples := make([]float64, o.NSamples)

	err := sampler.ParallelMap(ctx, o.NSamples, o.Workers, func(i int) error {
		ds := distsample.New(o.Seed + uint64(i))
		points1, err := JitterDVH(ds, dvh1, o.DoseJitter, o.VolumeJitter)
		if err != nil {
			return err
		}
		points2, err := JitterDVH(ds, dvh2, o.DoseJitter, o.VolumeJitter)
		if err != nil {
			return err
		}
		params := rbe
		if len(paramDists) >= 2 {
			drawn, err := SampleParams(ds, paramDists[:2])
			if err != nil {
				return err
			}
			params.Alpha, params.Beta = drawn[0], drawn[1]
		}
		combo := combos[i%len(combos)]
		value, err := RelativeRisk(modelName, points1, points2, params, combo.interp, combo.integ)
		if err != nil {
			return err
		}
		samples[i] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("relative risk: no samples produced: %w", common.ErrorInvalidValue)
	}
	return samples, nil
}
