package dvhio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/oed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDVHSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient.json")
	set := &model.DVHSet{
		Patient: "p1",
		Organs: map[string]*model.DVH{
			"Bladder": {
				Organ:  "Bladder",
				Dose:   []float64{0, 2, 4},
				Volume: []float64{1, 0.5, 0},
			},
		},
	}

	require.NoError(t, SaveDVHSet(path, set))
	got, err := LoadDVHSet(path)
	require.NoError(t, err)
	assert.Equal(t, set, got)
}

func TestLoadDVHSetFillsNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient.json")
	raw := `{"organs": {"Bladder": {"dose": [0, 1], "ratio_to_total_volume": [1, 0]}}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	got, err := LoadDVHSet(path)
	require.NoError(t, err)
	assert.Equal(t, path, got.Patient)
	assert.Equal(t, "Bladder", got.Organs["Bladder"].Organ)
}

func TestLoadDVHSetMissingFile(t *testing.T) {
	_, err := LoadDVHSet(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestResultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	results := model.ResultSet{
		{Patient: "p1", Organ: "Bladder", Model: "LNT"}:    {1, 2, 3},
		{Patient: "p2", Organ: "Colon", Model: "LinExp"}:   {4.5},
		{Patient: "p1", Organ: "Bladder", Model: "LinExp"}: {6, 7},
	}

	require.NoError(t, SaveResults(path, results))
	got, err := LoadResults(path)
	require.NoError(t, err)
	assert.Equal(t, results, got)
}

func TestLoadResultsMissingFile(t *testing.T) {
	got, err := LoadResults(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLoadResultsMergesDuplicateKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	raw := `{"results": [
		{"patient": "p1", "organ": "Bladder", "model": "LNT", "samples": [1]},
		{"patient": "p1", "organ": "Bladder", "model": "LNT", "samples": [2]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	got, err := LoadResults(path)
	require.NoError(t, err)
	key := model.ResultKey{Patient: "p1", Organ: "Bladder", Model: "LNT"}
	assert.Equal(t, []float64{1, 2}, got[key])
}

func TestSaveSummaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summaries.json")
	stats := map[oed.GroupKey]oed.PopulationStats{
		{Organ: "Bladder", Model: "LNT"}: {
			Patients: 3,
			Summary:  model.Summary{Min: 1, Max: 5, Mean: 3},
		},
	}

	require.NoError(t, SaveSummaries(path, stats))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"organ": "Bladder"`)
	assert.Contains(t, string(raw), `"patients": 3`)
}
