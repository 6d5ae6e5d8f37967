package model

import "fmt"

// ResultKey addresses one sample vector in a batch result: which
// patient, which organ, and which response model produced it.
type ResultKey struct {
	Patient string `json:"patient"`
	Organ   string `json:"organ"`
	Model   string `json:"model"`
}

func (k ResultKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Patient, k.Organ, k.Model)
}

// ResultSet maps result keys to Monte-Carlo sample vectors. The
// explicit composite key replaces nested dynamic field names.
type ResultSet map[ResultKey][]float64

// Merge appends the sample vectors of other onto r, key by key, so
// that repeated runs accumulate samples instead of replacing them.
func (r ResultSet) Merge(other ResultSet) {
	for key, samples := range other {
		r[key] = append(r[key], samples...)
	}
}

// Summary holds the aggregated statistics the plotting layer consumes.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Lower  float64 `json:"lower"` // lower confidence bound
	Upper  float64 `json:"upper"` // upper confidence bound
}
