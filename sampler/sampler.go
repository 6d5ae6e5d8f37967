// Package sampler implements the generic sampling driver: it resolves
// declarative nested sample specifications into concrete values and
// applies a user function to each independent draw.
package sampler

import (
	"fmt"

	"github.com/radphys/dvhrisk/common"
	"github.com/radphys/dvhrisk/distsample"
	"github.com/radphys/dvhrisk/model"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Value is a resolved sample: float64, []float64, *mat.Dense,
// map[string]Value for struct specs, []Value for array specs, or a raw
// element chosen from a vector spec.
type Value = interface{}

// Func is the user function invoked once per trial with the resolved
// positional parameter values.
type Func func(args ...Value) (Value, error)

// Driver resolves sample specifications against its own random stream.
type Driver struct {
	rnd  *rand.Rand
	dist *distsample.Sampler
}

func New(seed uint64) *Driver {
	rnd := rand.New(rand.NewSource(seed))
	return &Driver{rnd: rnd, dist: distsample.NewFromSource(rnd)}
}

// SampleFunc runs n independent trials. For each trial every spec is
// resolved into a concrete value and f is invoked with the resolved
// positional values; the n results and the per-trial resolved samples
// are returned. A resolution failure is annotated with the 1-based
// index of the offending parameter.
func (d *Driver) SampleFunc(f Func, n int, specs ...*model.SampleSpec) ([]Value, [][]Value, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("trial count %v: %w", n, common.ErrorInvalidValue)
	}
	results := make([]Value, n)
	samples := make([][]Value, n)
	for trial := 0; trial < n; trial++ {
		result, args, err := d.runTrial(f, specs)
		if err != nil {
			return nil, nil, err
		}
		results[trial] = result
		samples[trial] = args
	}
	return results, samples, nil
}

// SampleFuncOnce runs a single trial and returns the unwrapped result;
// callers rely on not having to index a length-1 collection.
func (d *Driver) SampleFuncOnce(f Func, specs ...*model.SampleSpec) (Value, []Value, error) {
	return d.runTrial(f, specs)
}

func (d *Driver) runTrial(f Func, specs []*model.SampleSpec) (Value, []Value, error) {
	args := make([]Value, len(specs))
	for i, spec := range specs {
		v, err := d.Resolve(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		args[i] = v
	}
	result, err := f(args...)
	if err != nil {
		return nil, nil, err
	}
	return result, args, nil
}

// Resolve recursively resolves one specification into a concrete value
// for a single trial.
func (d *Driver) Resolve(spec *model.SampleSpec) (Value, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil sample spec: %w", common.ErrorInvalidValue)
	}
	if len(spec.Size) > 0 {
		return d.resolveSized(spec)
	}
	return d.resolveOne(spec)
}

func (d *Driver) resolveOne(spec *model.SampleSpec) (Value, error) {
	switch spec.Type {
	case model.SpecStruct:
		out := make(map[string]Value, len(spec.Fields))
		for name, sub := range spec.Fields {
			v, err := d.Resolve(sub)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out[name] = v
		}
		return out, nil

	case model.SpecArray:
		out := make([]Value, len(spec.Items))
		for i, sub := range spec.Items {
			v, err := d.Resolve(sub)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
			out[i] = v
		}
		return out, nil

	case model.SpecMatrix, model.SpecMatrixT:
		m, err := d.resolveMatrix(spec.Items)
		if err != nil {
			return nil, err
		}
		if spec.Type == model.SpecMatrixT {
			r, c := m.Dims()
			t := mat.NewDense(c, r, nil)
			t.Copy(m.T())
			return t, nil
		}
		return m, nil

	case model.SpecVector:
		if len(spec.Choices) == 0 {
			return nil, fmt.Errorf("vector spec with no choices: %w", common.ErrorInvalidValue)
		}
		return spec.Choices[d.rnd.Intn(len(spec.Choices))], nil
	}

	// Any other tag is a distribution leaf drawn once per trial.
	draw, err := d.dist.Sample(model.DistKind(spec.Type), 1, spec.Params...)
	if err != nil {
		return nil, err
	}
	_, cols := draw.Dims()
	if cols == 1 {
		return draw.At(0, 0), nil
	}
	row := make([]float64, cols)
	mat.Row(row, 0, draw)
	return row, nil
}

// resolveMatrix resolves each item and stacks the numeric results
// vertically into one matrix: scalars and vectors become rows, matrix
// results keep their rows. All items must agree on the column count.
func (d *Driver) resolveMatrix(items []*model.SampleSpec) (*mat.Dense, error) {
	var rows [][]float64
	for i, sub := range items {
		v, err := d.Resolve(sub)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		switch val := v.(type) {
		case float64:
			rows = append(rows, []float64{val})
		case []float64:
			rows = append(rows, val)
		case *mat.Dense:
			r, c := val.Dims()
			for j := 0; j < r; j++ {
				row := make([]float64, c)
				mat.Row(row, j, val)
				rows = append(rows, row)
			}
		default:
			return nil, fmt.Errorf("item %d: non-numeric value %T in matrix spec: %w",
				i+1, v, common.ErrorInvalidValue)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix spec with no items: %w", common.ErrorInvalidValue)
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("matrix spec rows of widths %v and %v (row %v): %w",
				cols, len(row), i+1, common.ErrorBadShape)
		}
	}
	out := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out, nil
}

// resolveSized repeats the draw into a batch reshaped to the requested
// dimensions: [n] yields a vector of n draws, [r, c] an r x c matrix
// for numeric draws. Non-numeric draws batch into nested slices.
func (d *Driver) resolveSized(spec *model.SampleSpec) (Value, error) {
	total := 1
	for _, dim := range spec.Size {
		if dim <= 0 {
			return nil, fmt.Errorf("size dimension %v: %w", dim, common.ErrorInvalidValue)
		}
		total *= dim
	}
	if len(spec.Size) > 2 {
		return nil, fmt.Errorf("size with %v dimensions: %w", len(spec.Size), common.ErrorInvalidValue)
	}

	flat := &model.SampleSpec{
		Type:    spec.Type,
		Fields:  spec.Fields,
		Items:   spec.Items,
		Choices: spec.Choices,
		Params:  spec.Params,
	}

	draws := make([]Value, total)
	numeric := true
	for i := 0; i < total; i++ {
		v, err := d.resolveOne(flat)
		if err != nil {
			return nil, err
		}
		draws[i] = v
		if _, ok := v.(float64); !ok {
			numeric = false
		}
	}
	if !numeric {
		return draws, nil
	}

	values := make([]float64, total)
	for i, v := range draws {
		values[i] = v.(float64)
	}
	if len(spec.Size) == 1 {
		return values, nil
	}
	return mat.NewDense(spec.Size[0], spec.Size[1], values), nil
}
