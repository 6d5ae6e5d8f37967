// Package dvhio is the thin persistence collaborator: it loads and
// saves DVH sets and named result sample vectors as JSON. Parsing the
// vendor text export grammar is a separate concern and not handled
// here.
package dvhio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/oed"
)

// LoadDVHSet reads one patient's DVH structures from a JSON file.
func LoadDVHSet(path string) (*model.DVHSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dvh file %q: %w", path, err)
	}
	var set model.DVHSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("dvh file %q: %w", path, err)
	}
	if set.Patient == "" {
		set.Patient = path
	}
	for name, dvh := range set.Organs {
		if dvh.Organ == "" {
			dvh.Organ = name
		}
	}
	return &set, nil
}

// SaveDVHSet writes one patient's DVH structures as JSON.
func SaveDVHSet(path string, set *model.DVHSet) error {
	raw, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// resultFile is the serialized form of a result set: the composite map
// key flattens into explicit record fields.
type resultFile struct {
	Results []resultRecord `json:"results"`
}

type resultRecord struct {
	model.ResultKey
	Samples []float64 `json:"samples"`
}

// LoadResults reads a result set, returning an empty set when the file
// does not exist so that runs can accumulate onto a fresh output path.
func LoadResults(path string) (model.ResultSet, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(model.ResultSet), nil
	}
	if err != nil {
		return nil, fmt.Errorf("results file %q: %w", path, err)
	}
	var file resultFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("results file %q: %w", path, err)
	}
	results := make(model.ResultSet, len(file.Results))
	for _, record := range file.Results {
		results[record.ResultKey] = append(results[record.ResultKey], record.Samples...)
	}
	return results, nil
}

// SaveResults writes a result set as JSON.
func SaveResults(path string, results model.ResultSet) error {
	file := resultFile{Results: make([]resultRecord, 0, len(results))}
	for key, samples := range results {
		file.Results = append(file.Results, resultRecord{ResultKey: key, Samples: samples})
	}
	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// SaveSummaries writes population-level aggregates as JSON.
func SaveSummaries(path string, stats map[oed.GroupKey]oed.PopulationStats) error {
	type record struct {
		oed.GroupKey
		oed.PopulationStats
	}
	records := make([]record, 0, len(stats))
	for key, s := range stats {
		records = append(records, record{GroupKey: key, PopulationStats: s})
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
