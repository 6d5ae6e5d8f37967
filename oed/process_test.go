package oed

import (
	"context"
	"testing"

	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDVHSet(patient string) *model.DVHSet {
	return &model.DVHSet{
		Patient: patient,
		Organs: map[string]*model.DVH{
			"Bladder": {
				Organ:  "Bladder",
				Dose:   []float64{0, 2, 4, 6},
				Volume: []float64{1, 0.8, 0.4, 0},
			},
		},
	}
}

func TestProcessPatients(t *testing.T) {
	sets := []*model.DVHSet{testDVHSet("p1")}
	opts := ProcessOptions{
		NSamples: 8,
		Organs:   []string{"Bladder", "Colon"},
		Models:   []string{"LNT"},
		OrganParams: map[string]map[string][]model.Distribution{
			"Bladder": {"LNT": {}},
		},
	}

	results, err := ProcessPatients(context.Background(), sets, opts)
	require.NoError(t, err)

	key := model.ResultKey{Patient: "p1", Organ: "Bladder", Model: "LNT"}
	samples, ok := results[key]
	require.True(t, ok)
	require.Len(t, samples, 8)

	// Without jitter and with a single method combination every trial
	// computes the same integral.
	for _, s := range samples {
		assert.Equal(t, samples[0], s)
	}
	assert.Greater(t, samples[0], 0.0)
	assert.Less(t, samples[0], 6.0)

	// The absent organ is skipped, not failed.
	assert.Len(t, results, 1)
}

func TestProcessPatientsNameMap(t *testing.T) {
	set := &model.DVHSet{
		Patient: "p1",
		Organs: map[string]*model.DVH{
			"URINARY_BLADDER": {
				Organ:  "URINARY_BLADDER",
				Dose:   []float64{0, 3, 6},
				Volume: []float64{1, 0.5, 0},
			},
		},
	}
	opts := ProcessOptions{
		NSamples:     4,
		Organs:       []string{"Bladder"},
		Models:       []string{"LNT"},
		OrganNameMap: map[string]string{"URINARY_BLADDER": "Bladder"},
		OrganParams: map[string]map[string][]model.Distribution{
			"Bladder": {"LNT": {}},
		},
	}

	results, err := ProcessPatients(context.Background(), []*model.DVHSet{set}, opts)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	_, ok := results[model.ResultKey{Patient: "p1", Organ: "Bladder", Model: "LNT"}]
	assert.True(t, ok)
}

func TestProcessPatientsUnknownModel(t *testing.T) {
	opts := ProcessOptions{
		Models: []string{"Bogus"},
		OrganParams: map[string]map[string][]model.Distribution{
			"Bladder": {"Bogus": {}},
		},
	}
	_, err := ProcessPatients(context.Background(), []*model.DVHSet{testDVHSet("p1")}, opts)
	assert.ErrorIs(t, err, common.ErrorUnknownName)
}

func TestProcessPatientsSkipsMissingParams(t *testing.T) {
	sets := []*model.DVHSet{testDVHSet("p1")}
	opts := ProcessOptions{
		NSamples: 2,
		Organs:   []string{"Bladder"},
		Models:   []string{"LNT", "LinExp"},
		OrganParams: map[string]map[string][]model.Distribution{
			"Bladder": {"LNT": {}},
		},
	}

	results, err := ProcessPatients(context.Background(), sets, opts)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestProcessPatientsModelParams(t *testing.T) {
	sets := []*model.DVHSet{testDVHSet("p1")}
	opts := ProcessOptions{
		NSamples: 4,
		OrganParams: map[string]map[string][]model.Distribution{
			"Bladder": {"LinExp": {model.NewDistribution(model.DistDelta, 0.1)}},
		},
		Seed: 99,
	}

	results, err := ProcessPatients(context.Background(), sets, opts)
	require.NoError(t, err)

	samples := results[model.ResultKey{Patient: "p1", Organ: "Bladder", Model: "LinExp"}]
	require.Len(t, samples, 4)
	for _, s := range samples {
		assert.Greater(t, s, 0.0)
	}
}

func TestProcessPatientsReproducible(t *testing.T) {
	opts := ProcessOptions{
		NSamples: 6,
		OrganParams: map[string]map[string][]model.Distribution{
			"Bladder": {"LNT": {}},
		},
		DoseJitter: model.Distribution{
			Kind:   model.DistBox,
			Params: []model.Param{{-0.05}, {0.05}},
		},
		Seed: 7,
	}

	a, err := ProcessPatients(context.Background(), []*model.DVHSet{testDVHSet("p1")}, opts)
	require.NoError(t, err)
	b, err := ProcessPatients(context.Background(), []*model.DVHSet{testDVHSet("p1")}, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRelativeRiskSamplesSelf(t *testing.T) {
	dvh := testDVHSet("p1").Organs["Bladder"]
	opts := ProcessOptions{NSamples: 4}
	rbe := RelativeRiskParams{
		Alpha: 0.1, Beta: 0.03, N1: 1, N2: 1,
		RBE1Min: 1, RBE1Max: 1, RBE2Min: 1, RBE2Max: 1,
	}

	samples, err := RelativeRiskSamples(context.Background(), "LinearQuad",
		dvh, dvh, nil, rbe, opts)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for _, s := range samples {
		assert.InDelta(t, 1.0, s, 1e-12)
	}
}
