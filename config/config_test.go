package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/radphys/dvhrisk/bootstrap"
	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
organs: [Bladder]
models: [LinExp]
dose_binning_uncertainty:
  kind: box
  params: [0.05]
volume_ratio_uncertainty:
  kind: box
  params: [1.0e-6]
organ_params:
  Bladder:
    LinExp:
      - kind: triangle95mode
        params: [1.236, 1.592, 2.026]
patients:
  - file: p1.json
    gender: M
    age: 55
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, bootstrap.DefaultMaxSamples, cfg.BootstrapMaxSamples)
	assert.Equal(t, string(bootstrap.ModeAdaptive), cfg.BootstrapSampleMode)
	assert.Equal(t, []string{string(interpolate.MethodPCHIP)}, cfg.InterpolationMethods)
	assert.Contains(t, cfg.IntegrationMethods, "trapezoid")
	assert.Equal(t, 100, cfg.NSamples)

	// A single symmetric parameter expands to explicit bounds.
	assert.Equal(t, []model.Param{{-0.05}, {0.05}}, cfg.DoseBinningUncertainty.Params)

	require.Len(t, cfg.Patients, 1)
	assert.Equal(t, model.GenderMale, cfg.Patients[0].Gender)
	assert.Equal(t, 55.0, cfg.Patients[0].Age)
}

func TestLoadExpandsSingleParamShorthand(t *testing.T) {
	body := `
organs: [Bladder]
dose_binning_uncertainty:
  kind: gaussian
  params: [0.05]
volume_ratio_uncertainty:
  kind: triangle
  params: [0.01]
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	// Gaussian and lognormal shorthands read the argument as the sigma
	// around a zero mean; triangles as symmetric bounds about zero.
	assert.Equal(t, []model.Param{{0}, {0.05}}, cfg.DoseBinningUncertainty.Params)
	assert.Equal(t, []model.Param{{-0.01}, {0}, {0.01}}, cfg.VolumeRatioUncertainty.Params)
}

func TestLoadOrganParams(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	dists := cfg.OrganParams["Bladder"]["LinExp"]
	require.Len(t, dists, 1)
	assert.Equal(t, model.DistTriangle95Mod, dists[0].Kind)
	assert.Equal(t, []model.Param{{1.236}, {1.592}, {2.026}}, dists[0].Params)
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	body := `
models: [Bogus]
`
	_, err := Load(writeConfig(t, body))
	assert.ErrorIs(t, err, common.ErrorUnknownName)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	body := `
bootstrap_sample_mode: sometimes
`
	_, err := Load(writeConfig(t, body))
	assert.ErrorIs(t, err, common.ErrorUnknownName)
}

func TestLoadRejectsUnknownMethods(t *testing.T) {
	_, err := Load(writeConfig(t, "integration_methods: {romberg: 1e-5}\n"))
	assert.ErrorIs(t, err, common.ErrorUnknownName)

	_, err = Load(writeConfig(t, "interpolation_methods: [nearest]\n"))
	assert.ErrorIs(t, err, common.ErrorUnknownName)
}

func TestLoadRejectsBadGender(t *testing.T) {
	body := `
patients:
  - file: p1.json
    gender: unknown
`
	_, err := Load(writeConfig(t, body))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestProcessOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	opts := cfg.ProcessOptions()
	assert.Equal(t, []string{"Bladder"}, opts.Organs)
	assert.Equal(t, []string{"LinExp"}, opts.Models)
	assert.Equal(t, 100, opts.NSamples)
	require.Len(t, opts.IntegrationMethods, 1)
	assert.Equal(t, "trapezoid", string(opts.IntegrationMethods[0].Method))
	assert.Equal(t, []interpolate.Method{interpolate.MethodPCHIP}, opts.InterpolationMethods)
	assert.Equal(t, model.DistBox, opts.DoseJitter.Kind)
}

func TestSampleDVHOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	opts := cfg.SampleDVHOptions()
	assert.Equal(t, interpolate.MethodPCHIP, opts.InterpolationMethod)
	assert.Equal(t, bootstrap.ModeAdaptive, opts.BootstrapMode)
	assert.Equal(t, bootstrap.DefaultMaxSamples, opts.BootstrapMax)
}
