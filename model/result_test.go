package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultKeyString(t *testing.T) {
	key := ResultKey{Patient: "p1", Organ: "Bladder", Model: "LNT"}
	assert.Equal(t, "p1/Bladder/LNT", key.String())
}

func TestResultSetMerge(t *testing.T) {
	a := ResultSet{
		{Patient: "p1", Organ: "Bladder", Model: "LNT"}: {1, 2},
	}
	b := ResultSet{
		{Patient: "p1", Organ: "Bladder", Model: "LNT"}: {3},
		{Patient: "p2", Organ: "Colon", Model: "LNT"}:   {4},
	}
	a.Merge(b)

	assert.Equal(t, []float64{1, 2, 3}, a[ResultKey{Patient: "p1", Organ: "Bladder", Model: "LNT"}])
	assert.Equal(t, []float64{4}, a[ResultKey{Patient: "p2", Organ: "Colon", Model: "LNT"}])
	assert.Len(t, a, 2)
}
