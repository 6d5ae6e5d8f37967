package oed

import (
	"context"
	"testing"

	"github.com/radphys/dvhrisk/bootstrap"
	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/response"
	"github.com/radphys/dvhrisk/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantDoseDVH(organ string, dose float64) *model.DVH {
	return &model.DVH{
		Organ:  organ,
		Dose:   []float64{dose, dose},
		Volume: []float64{1, 0},
	}
}

func TestSampleDVHCyclesBootstrapRows(t *testing.T) {
	// Two constant-dose patients under exhaustive bootstrap give three
	// multisets: {A,A}, {A,B}, {B,B}, with cohort means 10, 15 and 20.
	dvhs := []*model.DVH{
		constantDoseDVH("Bladder", 10),
		constantDoseDVH("Bladder", 20),
	}
	bins := utils.Linspace(0, 1, 5)
	opts := SampleDVHOptions{BootstrapMode: bootstrap.ModeExhaustive}

	out, err := SampleDVH(context.Background(), dvhs, 3, bins, opts)
	require.NoError(t, err)

	rows, cols := out.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, len(bins), cols)

	want := []float64{10, 15, 20}
	for s := 0; s < rows; s++ {
		for b := 0; b < cols; b++ {
			assert.InDelta(t, want[s], out.At(s, b), 1e-9, "sample %v bin %v", s, b)
		}
	}
}

func TestSampleDVHRowCycling(t *testing.T) {
	dvhs := []*model.DVH{constantDoseDVH("Bladder", 10)}
	bins := utils.Linspace(0, 1, 3)

	// A single patient has a single multiset; every sample repeats it.
	out, err := SampleDVH(context.Background(), dvhs, 4, bins, SampleDVHOptions{})
	require.NoError(t, err)
	rows, _ := out.Dims()
	require.Equal(t, 4, rows)
	for s := 0; s < rows; s++ {
		for _, v := range out.RawRowView(s) {
			assert.InDelta(t, 10.0, v, 1e-9)
		}
	}
}

func TestSampleDVHErrors(t *testing.T) {
	bins := utils.Linspace(0, 1, 3)

	_, err := SampleDVH(context.Background(), nil, 3, bins, SampleDVHOptions{})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)

	dvhs := []*model.DVH{constantDoseDVH("Bladder", 10)}
	_, err = SampleDVH(context.Background(), dvhs, 0, bins, SampleDVHOptions{})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)

	_, err = SampleDVH(context.Background(), dvhs, 3, nil, SampleDVHOptions{})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestApplyResponseLNT(t *testing.T) {
	dvh := &model.DVH{
		Organ:  "Bladder",
		Dose:   []float64{0, 5, 10},
		Volume: []float64{1, 0.5, 0},
	}
	volumeBins := utils.Linspace(0, 1, 11)
	doseBins := []float64{0, 2.5, 5, 7.5, 10}

	got, err := ApplyResponse(dvh, volumeBins, doseBins, interpolate.MethodLinear, response.LNT{})
	require.NoError(t, err)

	// dose(v) = 10*(1-v) is untouched by LNT, so the inverse recovers
	// volume(d) = 1 - d/10 on the new dose bins.
	require.Equal(t, doseBins, got.Dose)
	want := []float64{1, 0.75, 0.5, 0.25, 0}
	for i := range want {
		assert.InDelta(t, want[i], got.Volume[i], 1e-9, "dose bin %v", doseBins[i])
	}
	assert.Equal(t, "Bladder", got.Organ)
}

func TestApplyResponseClampsVolume(t *testing.T) {
	dvh := &model.DVH{
		Organ:  "Bladder",
		Dose:   []float64{0, 5, 10},
		Volume: []float64{1, 0.5, 0},
	}
	volumeBins := utils.Linspace(0, 1, 11)
	doseBins := []float64{-5, 20}

	got, err := ApplyResponse(dvh, volumeBins, doseBins, interpolate.MethodLinear, response.LNT{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Volume[0])
	assert.Equal(t, 0.0, got.Volume[1])
}

func TestApplyResponseBadBins(t *testing.T) {
	dvh := constantDoseDVH("Bladder", 10)
	_, err := ApplyResponse(dvh, []float64{0.5}, []float64{1}, interpolate.MethodLinear, response.LNT{})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}
