// Package config loads experiment configuration: organ/model parameter
// tables, jitter models, method lists and sampling budgets.
package config

import (
	"fmt"
	"os"

	"github.com/radphys/dvhrisk/bootstrap"
	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/integrate"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/oed"
	"github.com/radphys/dvhrisk/response"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk experiment configuration.
type Config struct {
	Organs []string `yaml:"organs"`
	Models []string `yaml:"models"`

	// OrganNameMap translates structure names in DVH files (keys) to
	// canonical organ names (values).
	OrganNameMap map[string]string `yaml:"organ_name_map"`

	// IntegrationMethods maps method name to error tolerance.
	IntegrationMethods   map[string]float64 `yaml:"integration_methods"`
	InterpolationMethods []string           `yaml:"interpolation_methods"`

	DoseBinningUncertainty model.Distribution `yaml:"dose_binning_uncertainty"`
	VolumeRatioUncertainty model.Distribution `yaml:"volume_ratio_uncertainty"`

	BootstrapMaxSamples int    `yaml:"bootstrap_max_samples"`
	BootstrapSampleMode string `yaml:"bootstrap_sample_mode"`

	NSamples int `yaml:"nsamples"`

	// OrganParams: organ -> model -> ordered parameter distributions.
	OrganParams map[string]map[string][]model.Distribution `yaml:"organ_params"`

	Patients []model.PatientRecord `yaml:"patients"`

	Seed    uint64 `yaml:"seed"`
	Workers int    `yaml:"workers"`
}

// Load reads and validates a YAML configuration file, applying the
// documented defaults for omitted fields.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BootstrapMaxSamples == 0 {
		c.BootstrapMaxSamples = bootstrap.DefaultMaxSamples
	}
	if c.BootstrapSampleMode == "" {
		c.BootstrapSampleMode = string(bootstrap.ModeAdaptive)
	}
	if len(c.InterpolationMethods) == 0 {
		c.InterpolationMethods = []string{string(interpolate.MethodPCHIP)}
	}
	if len(c.IntegrationMethods) == 0 {
		c.IntegrationMethods = map[string]float64{
			string(integrate.MethodTrapezoid): integrate.DefaultTolerance,
		}
	}
	if c.NSamples == 0 {
		c.NSamples = 100
	}
	// Single-parameter range distributions mean a symmetric +/- offset,
	// e.g. box: [0.05] is box(-0.05, 0.05).
	expand := func(d *model.Distribution) {
		if len(d.Params) == 1 && len(d.Params[0]) == 1 {
			switch d.Kind {
			case model.DistBox, model.DistBox95, model.DistDoubleDelta,
				model.DistGaussian95:
				v := d.Params[0][0]
				d.Params = []model.Param{{-v}, {v}}
			case model.DistTriangle, model.DistTriangle95, model.DistTriangle95Mod:
				v := d.Params[0][0]
				d.Params = []model.Param{{-v}, {0}, {v}}
			case model.DistGaussian, model.DistLogNormal:
				// A single argument is the sigma around a zero mean.
				v := d.Params[0][0]
				d.Params = []model.Param{{0}, {v}}
			}
		}
	}
	expand(&c.DoseBinningUncertainty)
	expand(&c.VolumeRatioUncertainty)

	for i := range c.Patients {
		gender, err := model.NormalizeGender(string(c.Patients[i].Gender))
		if err == nil {
			c.Patients[i].Gender = gender
		}
	}
}

func (c *Config) validate() error {
	switch bootstrap.Mode(c.BootstrapSampleMode) {
	case bootstrap.ModeRandom, bootstrap.ModeExhaustive, bootstrap.ModeAdaptive:
	default:
		return fmt.Errorf("bootstrap_sample_mode %q: %w", c.BootstrapSampleMode, common.ErrorUnknownName)
	}
	for name := range c.IntegrationMethods {
		switch integrate.Method(name) {
		case integrate.MethodTrapezoid, integrate.MethodSimpson, integrate.MethodGauss:
		default:
			return fmt.Errorf("integration method %q: %w", name, common.ErrorUnknownName)
		}
	}
	for _, name := range c.InterpolationMethods {
		switch interpolate.Method(name) {
		case interpolate.MethodLinear, interpolate.MethodPCHIP,
			interpolate.MethodCubic, interpolate.MethodSpline:
		default:
			return fmt.Errorf("interpolation method %q: %w", name, common.ErrorUnknownName)
		}
	}
	// Only the model name needs to exist here; parameter counts are
	// checked against the organ tables at processing time.
	for _, name := range c.Models {
		known := false
		for _, registered := range response.Names() {
			if registered == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("model %q: %w", name, common.ErrorUnknownName)
		}
	}
	for _, p := range c.Patients {
		if _, err := model.NormalizeGender(string(p.Gender)); err != nil {
			return err
		}
	}
	return nil
}

// ProcessOptions converts the configuration into the explicit options
// struct the orchestrators take.
func (c *Config) ProcessOptions() oed.ProcessOptions {
	var integOpts []integrate.Options
	for name, tol := range c.IntegrationMethods {
		integOpts = append(integOpts, integrate.Options{
			Method:    integrate.Method(name),
			Tolerance: tol,
		})
	}
	var interpMethods []interpolate.Method
	for _, name := range c.InterpolationMethods {
		interpMethods = append(interpMethods, interpolate.Method(name))
	}
	return oed.ProcessOptions{
		NSamples:             c.NSamples,
		Organs:               c.Organs,
		Models:               c.Models,
		OrganNameMap:         c.OrganNameMap,
		OrganParams:          c.OrganParams,
		DoseJitter:           c.DoseBinningUncertainty,
		VolumeJitter:         c.VolumeRatioUncertainty,
		IntegrationMethods:   integOpts,
		InterpolationMethods: interpMethods,
		Seed:                 c.Seed,
		Workers:              c.Workers,
	}
}

// SampleDVHOptions converts the configuration into the options for
// cross-patient DVH sampling.
func (c *Config) SampleDVHOptions() oed.SampleDVHOptions {
	method := interpolate.MethodPCHIP
	if len(c.InterpolationMethods) > 0 {
		method = interpolate.Method(c.InterpolationMethods[0])
	}
	return oed.SampleDVHOptions{
		DoseJitter:          c.DoseBinningUncertainty,
		VolumeJitter:        c.VolumeRatioUncertainty,
		InterpolationMethod: method,
		BootstrapMax:        c.BootstrapMaxSamples,
		BootstrapMode:       bootstrap.Mode(c.BootstrapSampleMode),
		Seed:                c.Seed,
		Workers:             c.Workers,
	}
}
