package sampler

import (
	"errors"
	"testing"

	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func deltaSpec(v float64) *model.SampleSpec {
	return model.DistSpec(model.NewDistribution(model.DistDelta, v))
}

func TestSampleFuncDelta(t *testing.T) {
	d := New(1)
	calls := 0
	f := func(args ...Value) (Value, error) {
		calls++
		return args[0], nil
	}

	results, samples, err := d.SampleFunc(f, 5, deltaSpec(7))
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	require.Len(t, results, 5)
	require.Len(t, samples, 5)
	for i := range results {
		assert.Equal(t, 7.0, results[i])
		require.Len(t, samples[i], 1)
		assert.Equal(t, 7.0, samples[i][0])
	}
}

func TestSampleFuncOnce(t *testing.T) {
	d := New(2)
	f := func(args ...Value) (Value, error) {
		return args[0].(float64) + args[1].(float64), nil
	}

	result, args, err := d.SampleFuncOnce(f, deltaSpec(1), deltaSpec(2))
	require.NoError(t, err)
	assert.Equal(t, 3.0, result)
	assert.Equal(t, []Value{1.0, 2.0}, args)
}

func TestSampleFuncBadTrialCount(t *testing.T) {
	d := New(3)
	f := func(args ...Value) (Value, error) { return nil, nil }
	_, _, err := d.SampleFunc(f, 0, deltaSpec(1))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestSampleFuncParameterAnnotation(t *testing.T) {
	d := New(4)
	f := func(args ...Value) (Value, error) { return nil, nil }
	bogus := &model.SampleSpec{Type: "bogus"}

	_, _, err := d.SampleFunc(f, 1, deltaSpec(1), bogus)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorUnknownName)
	assert.Contains(t, err.Error(), "parameter 2")
}

func TestSampleFuncPropagatesError(t *testing.T) {
	d := New(5)
	boom := errors.New("boom")
	f := func(args ...Value) (Value, error) { return nil, boom }
	_, _, err := d.SampleFunc(f, 3, deltaSpec(1))
	assert.ErrorIs(t, err, boom)
}

func TestResolveStruct(t *testing.T) {
	d := New(6)
	spec := &model.SampleSpec{
		Type: model.SpecStruct,
		Fields: map[string]*model.SampleSpec{
			"alpha": deltaSpec(0.1),
			"beta":  deltaSpec(0.03),
		},
	}

	v, err := d.Resolve(spec)
	require.NoError(t, err)
	fields, ok := v.(map[string]Value)
	require.True(t, ok)
	assert.Equal(t, 0.1, fields["alpha"])
	assert.Equal(t, 0.03, fields["beta"])
}

func TestResolveStructFieldAnnotation(t *testing.T) {
	d := New(7)
	spec := &model.SampleSpec{
		Type: model.SpecStruct,
		Fields: map[string]*model.SampleSpec{
			"bad": {Type: "bogus"},
		},
	}
	_, err := d.Resolve(spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "bad"`)
}

func TestResolveArray(t *testing.T) {
	d := New(8)
	spec := &model.SampleSpec{
		Type:  model.SpecArray,
		Items: []*model.SampleSpec{deltaSpec(1), deltaSpec(2), deltaSpec(3)},
	}

	v, err := d.Resolve(spec)
	require.NoError(t, err)
	assert.Equal(t, []Value{1.0, 2.0, 3.0}, v)
}

func TestResolveMatrix(t *testing.T) {
	d := New(9)
	row := func(vals ...float64) *model.SampleSpec {
		params := make([]model.Param, 1)
		params[0] = model.Param(vals)
		return &model.SampleSpec{Type: string(model.DistDelta), Params: params}
	}
	spec := &model.SampleSpec{
		Type:  model.SpecMatrix,
		Items: []*model.SampleSpec{row(1, 2), row(3, 4)},
	}

	v, err := d.Resolve(spec)
	require.NoError(t, err)
	m, ok := v.(*mat.Dense)
	require.True(t, ok)
	r, c := m.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 2}, m.RawRowView(0))
	assert.Equal(t, []float64{3, 4}, m.RawRowView(1))
}

func TestResolveMatrixTransposed(t *testing.T) {
	d := New(10)
	row := func(vals ...float64) *model.SampleSpec {
		return &model.SampleSpec{Type: string(model.DistDelta), Params: []model.Param{model.Param(vals)}}
	}
	spec := &model.SampleSpec{
		Type:  model.SpecMatrixT,
		Items: []*model.SampleSpec{row(1, 2), row(3, 4)},
	}

	v, err := d.Resolve(spec)
	require.NoError(t, err)
	m := v.(*mat.Dense)
	assert.Equal(t, []float64{1, 3}, m.RawRowView(0))
	assert.Equal(t, []float64{2, 4}, m.RawRowView(1))
}

func TestResolveMatrixRowWidthMismatch(t *testing.T) {
	d := New(11)
	spec := &model.SampleSpec{
		Type: model.SpecMatrix,
		Items: []*model.SampleSpec{
			{Type: string(model.DistDelta), Params: []model.Param{{1, 2}}},
			{Type: string(model.DistDelta), Params: []model.Param{{1, 2, 3}}},
		},
	}
	_, err := d.Resolve(spec)
	assert.ErrorIs(t, err, common.ErrorBadShape)
}

func TestResolveVector(t *testing.T) {
	d := New(12)
	choices := []interface{}{"a", "b", "c"}
	spec := &model.SampleSpec{Type: model.SpecVector, Choices: choices}

	for i := 0; i < 20; i++ {
		v, err := d.Resolve(spec)
		require.NoError(t, err)
		assert.Contains(t, choices, v)
	}
}

func TestResolveVectorEmpty(t *testing.T) {
	d := New(13)
	_, err := d.Resolve(&model.SampleSpec{Type: model.SpecVector})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestResolveSizedVector(t *testing.T) {
	d := New(14)
	spec := deltaSpec(7)
	spec.Size = []int{4}

	v, err := d.Resolve(spec)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7, 7}, v)
}

func TestResolveSizedMatrix(t *testing.T) {
	d := New(15)
	spec := deltaSpec(7)
	spec.Size = []int{2, 3}

	v, err := d.Resolve(spec)
	require.NoError(t, err)
	m, ok := v.(*mat.Dense)
	require.True(t, ok)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{7, 7, 7}, m.RawRowView(0))
}

func TestResolveSizedErrors(t *testing.T) {
	d := New(16)

	spec := deltaSpec(7)
	spec.Size = []int{0}
	_, err := d.Resolve(spec)
	assert.ErrorIs(t, err, common.ErrorInvalidValue)

	spec = deltaSpec(7)
	spec.Size = []int{2, 2, 2}
	_, err = d.Resolve(spec)
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestResolveNilSpec(t *testing.T) {
	d := New(17)
	_, err := d.Resolve(nil)
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}
