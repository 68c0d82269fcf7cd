package stats

import (
	"testing"

	"housetree/pkg/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasics(t *testing.T) {
	x := []float64{4, 1, 3, 2}
	assert.Equal(t, 2.5, Mean(x))
	assert.Equal(t, 1.25, Variance(x))
	assert.Equal(t, 2.5, Median(x))
	min, max := MinMax(x)
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 4.0, max)
	assert.Equal(t, 1.0, Percentile(x, 0))
	assert.Equal(t, 4.0, Percentile(x, 100))
	assert.Equal(t, []float64{4, 1, 3, 2}, x, "inputs are not reordered")

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Std(nil))
}

func TestSummarize(t *testing.T) {
	tbl := &data.Table{
		Headers: []string{"Id", "LotArea", "Bucket"},
		Rows: [][]float64{
			{1, 100, 0},
			{2, 300, 1},
			{3, 200, 1},
		},
	}
	ds, err := data.Build(tbl, 1, true)
	require.NoError(t, err)

	s := Summarize(ds)
	assert.Equal(t, 3, s.Rows)
	require.Len(t, s.Features, 1)
	f := s.Features[0]
	assert.Equal(t, "LotArea", f.Name)
	assert.Equal(t, 200.0, f.Mean)
	assert.Equal(t, 100.0, f.Min)
	assert.Equal(t, 200.0, f.Median)
	assert.Equal(t, 300.0, f.Max)
	assert.Equal(t, map[int]int{0: 1, 1: 2}, s.ClassCounts)

	out := s.String()
	assert.Contains(t, out, "3 records, 1 features")
	assert.Contains(t, out, "LotArea")
	assert.Contains(t, out, "classes: 0=1 1=2")
}
