package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DistKind names an uncertainty distribution family.
type DistKind string

const (
	DistDelta         DistKind = "delta"
	DistDoubleDelta   DistKind = "double_delta"
	DistBox           DistKind = "box"
	DistBox95         DistKind = "box95"
	DistTriangle      DistKind = "triangle"
	DistTriangle95    DistKind = "triangle95"
	DistTriangle95Mod DistKind = "triangle95mode"
	DistGaussian      DistKind = "gaussian"
	DistGaussian95    DistKind = "gaussian95"
	DistLogNormal     DistKind = "lognormal"
	DistLogNormal95   DistKind = "lognormal95"
)

// Param is one shape parameter of a distribution: a scalar or a vector.
// Scalars are stored as a single element. In YAML both `0.05` and
// `[0.1, 0.2]` decode to a Param.
type Param []float64

func (p *Param) UnmarshalYAML(value *yaml.Node) error {
	var scalar float64
	if err := value.Decode(&scalar); err == nil {
		*p = Param{scalar}
		return nil
	}
	var vec []float64
	if err := value.Decode(&vec); err != nil {
		return fmt.Errorf("distribution parameter must be a number or a list of numbers: %w", err)
	}
	*p = Param(vec)
	return nil
}

// Distribution is a declarative, immutable specification of an
// uncertainty distribution: a kind tag plus ordered shape parameters.
type Distribution struct {
	Kind   DistKind `json:"kind" yaml:"kind"`
	Params []Param  `json:"params" yaml:"params"`
}

func NewDistribution(kind DistKind, params ...float64) Distribution {
	d := Distribution{Kind: kind, Params: make([]Param, len(params))}
	for i, p := range params {
		d.Params[i] = Param{p}
	}
	return d
}

// Spec type tags for the generic sampling driver, alongside the
// distribution kinds which act as leaf tags.
const (
	SpecStruct  = "struct"
	SpecArray   = "array"
	SpecMatrix  = "matrix"
	SpecMatrixT = "matrixTransposed"
	SpecVector  = "vector"
)

// SampleSpec is a recursive declarative description of how to draw one
// parameter value: a struct of named sub-specs, an ordered list of
// sub-specs concatenated into a slice or matrix, a uniform selection
// from fixed choices, or a distribution leaf. Size, when set,
// multiplies the draw into a reshaped batch.
type SampleSpec struct {
	Type string `json:"type" yaml:"type"`

	Fields  map[string]*SampleSpec `json:"fields,omitempty" yaml:"fields,omitempty"`
	Items   []*SampleSpec          `json:"items,omitempty" yaml:"items,omitempty"`
	Choices []interface{}          `json:"choices,omitempty" yaml:"choices,omitempty"`
	Params  []Param                `json:"params,omitempty" yaml:"params,omitempty"`

	Size []int `json:"size,omitempty" yaml:"size,omitempty"`
}

// DistSpec wraps a Distribution as a leaf sampling spec.
func DistSpec(d Distribution) *SampleSpec {
	return &SampleSpec{Type: string(d.Kind), Params: d.Params}
}
