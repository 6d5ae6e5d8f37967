package model

import (
	"fmt"

	"github.com/radphys/dvhrisk/common"
	"gonum.org/v1/gonum/mat"
)

// DVH is a dose-volume histogram for one organ structure: an ordered
// sequence of (dose, volumeFraction) pairs, with volume fraction
// monotonically non-increasing as dose increases. The optional range
// slices give per-point (low, high) uncertainty bounds per axis.
type DVH struct {
	Organ  string    `json:"organ"`
	Dose   []float64 `json:"dose"`
	Volume []float64 `json:"ratio_to_total_volume"`

	DoseLow    []float64 `json:"dose_low,omitempty"`
	DoseHigh   []float64 `json:"dose_high,omitempty"`
	VolumeLow  []float64 `json:"volume_low,omitempty"`
	VolumeHigh []float64 `json:"volume_high,omitempty"`
}

func NewDVH(organ string, dose, volume []float64) (*DVH, error) {
	if len(dose) == 0 || len(dose) != len(volume) {
		return nil, fmt.Errorf("dvh %q: dose and volume lengths %v and %v: %w",
			organ, len(dose), len(volume), common.ErrorInvalidValue)
	}
	return &DVH{Organ: organ, Dose: dose, Volume: volume}, nil
}

func (d *DVH) Len() int {
	return len(d.Dose)
}

// Points returns the data points as an n x 2 matrix with dose in the
// first column and volume fraction in the second, the layout the dose
// interpolator consumes.
func (d *DVH) Points() *mat.Dense {
	n := len(d.Dose)
	points := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		points.Set(i, 0, d.Dose[i])
		points.Set(i, 1, d.Volume[i])
	}
	return points
}

// Validate checks the per-point range invariants: lengths match the
// point count and low <= nominal <= high on both axes.
func (d *DVH) Validate() error {
	n := len(d.Dose)
	if n == 0 || len(d.Volume) != n {
		return fmt.Errorf("dvh %q: mismatched point arrays: %w", d.Organ, common.ErrorBadShape)
	}
	for _, r := range [][]float64{d.DoseLow, d.DoseHigh, d.VolumeLow, d.VolumeHigh} {
		if len(r) != 0 && len(r) != n {
			return fmt.Errorf("dvh %q: range array length %v for %v points: %w",
				d.Organ, len(r), n, common.ErrorBadShape)
		}
	}
	for i := 0; i < n; i++ {
		if len(d.DoseLow) == n && len(d.DoseHigh) == n {
			if d.DoseLow[i] > d.Dose[i] || d.Dose[i] > d.DoseHigh[i] {
				return fmt.Errorf("dvh %q: dose range at point %v does not bracket the nominal value: %w",
					d.Organ, i, common.ErrorInvalidValue)
			}
		}
		if len(d.VolumeLow) == n && len(d.VolumeHigh) == n {
			if d.VolumeLow[i] > d.Volume[i] || d.Volume[i] > d.VolumeHigh[i] {
				return fmt.Errorf("dvh %q: volume range at point %v does not bracket the nominal value: %w",
					d.Organ, i, common.ErrorInvalidValue)
			}
		}
	}
	return nil
}

// ResolveRangeOverlaps repairs overlapping uncertainty ranges between
// consecutive points by averaging at the shared boundary, so that the
// interval of point i always ends before the interval of point i+1
// begins. Interpolating jittered points is undefined otherwise.
func (d *DVH) ResolveRangeOverlaps() {
	resolve := func(nominal, low, high []float64) {
		n := len(nominal)
		if len(low) != n || len(high) != n {
			return
		}
		for i := 0; i+1 < n; i++ {
			if nominal[i] == nominal[i+1] {
				continue
			}
			ascending := nominal[i] < nominal[i+1]
			if ascending && high[i] > low[i+1] {
				mid := (high[i] + low[i+1]) / 2
				high[i], low[i+1] = mid, mid
			}
			if !ascending && low[i] < high[i+1] {
				mid := (low[i] + high[i+1]) / 2
				low[i], high[i+1] = mid, mid
			}
		}
	}
	resolve(d.Dose, d.DoseLow, d.DoseHigh)
	resolve(d.Volume, d.VolumeLow, d.VolumeHigh)
}

// DVHSet holds all structures loaded from one patient file, keyed by
// the organ name as found in the file.
type DVHSet struct {
	Patient string          `json:"patient"`
	Organs  map[string]*DVH `json:"organs"`
}

// Organ looks up a structure by canonical name, consulting nameMap
// (file name -> canonical name) when a direct hit is missing.
func (s *DVHSet) Organ(name string, nameMap map[string]string) (*DVH, bool) {
	if dvh, ok := s.Organs[name]; ok {
		return dvh, true
	}
	for fileName, canonical := range nameMap {
		if canonical != name {
			continue
		}
		if dvh, ok := s.Organs[fileName]; ok {
			return dvh, true
		}
	}
	return nil, false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// NormalizeGender accepts the common M/F aliases used in patient
// parameter tables.
func NormalizeGender(s string) (Gender, error) {
	switch s {
	case "M", "m", "Male", "male":
		return GenderMale, nil
	case "F", "f", "Female", "female":
		return GenderFemale, nil
	}
	return "", fmt.Errorf("gender %q: %w", s, common.ErrorInvalidValue)
}

// PatientRecord identifies one patient input file with the demographic
// attributes the risk models need.
type PatientRecord struct {
	File   string  `json:"file" yaml:"file"`
	Gender Gender  `json:"gender" yaml:"gender"`
	Age    float64 `json:"age" yaml:"age"`
}
