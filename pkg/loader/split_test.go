package loader_test

import (
	"sort"
	"testing"

	"housetree/pkg/data"
	"housetree/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenRows is a 10-row table with 3 features and a 5/5 binary target.
func tenRows(t *testing.T) *data.Dataset {
	t.Helper()
	tbl := &data.Table{Headers: []string{"a", "b", "c", "y"}}
	for i := 0; i < 10; i++ {
		tbl.Rows = append(tbl.Rows, []float64{float64(i), float64(i * i), float64(10 - i), float64(i % 2)})
	}
	ds, err := data.Build(tbl, 0, true)
	require.NoError(t, err)
	return ds
}

func TestSplit_Sizes(t *testing.T) {
	ds := tenRows(t)
	train, test, err := loader.Split(ds, 0.8, loader.DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Rows())
	assert.Equal(t, 2, test.Rows())
	assert.Equal(t, ds.FeatureNames, train.FeatureNames)
	assert.Equal(t, ds.FeatureNames, test.FeatureNames)
}

// TestSplit_ExhaustiveAndDisjoint checks the index sets for many ratios.
func TestSplit_ExhaustiveAndDisjoint(t *testing.T) {
	ds := tenRows(t)
	for _, ratio := range []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95} {
		train, test, err := loader.Split(ds, ratio, 7)
		require.NoError(t, err, "ratio %v", ratio)

		all := append(append([]int{}, train.Indices...), test.Indices...)
		sort.Ints(all)
		assert.Equal(t, ds.Indices, all, "ratio %v", ratio)

		seen := map[int]bool{}
		for _, i := range train.Indices {
			seen[i] = true
		}
		for _, i := range test.Indices {
			assert.False(t, seen[i], "index %d on both sides", i)
		}
	}
}

// TestSplit_RowCorrespondence checks features and labels travel together.
func TestSplit_RowCorrespondence(t *testing.T) {
	ds := tenRows(t)
	train, test, err := loader.Split(ds, 0.6, 3)
	require.NoError(t, err)
	for _, part := range []*data.Dataset{train, test} {
		for i, orig := range part.Indices {
			assert.Equal(t, ds.Row(orig), part.Row(i))
			assert.Equal(t, ds.Labels[orig], part.Labels[i])
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	ds := tenRows(t)
	a, _, err := loader.Split(ds, 0.7, 99)
	require.NoError(t, err)
	b, _, err := loader.Split(ds, 0.7, 99)
	require.NoError(t, err)
	assert.Equal(t, a.Indices, b.Indices)
}

func TestSplit_InvalidRatio(t *testing.T) {
	ds := tenRows(t)
	for _, ratio := range []float64{0, 1, -0.2, 1.5, 0.05} {
		_, _, err := loader.Split(ds, ratio, 1)
		assert.ErrorIs(t, err, loader.ErrInvalidRatio, "ratio %v", ratio)
	}
}

func TestKFold(t *testing.T) {
	folds, err := loader.KFold(10, 3, 5)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	var all []int
	for _, f := range folds {
		assert.NotEmpty(t, f)
		all = append(all, f...)
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	_, err = loader.KFold(3, 4, 5)
	assert.ErrorIs(t, err, loader.ErrInvalidFolds)
	_, err = loader.KFold(10, 1, 5)
	assert.ErrorIs(t, err, loader.ErrInvalidFolds)
}

func TestFoldSplit(t *testing.T) {
	ds := tenRows(t)
	folds, err := loader.KFold(ds.Rows(), 5, 1)
	require.NoError(t, err)

	train, test, err := loader.FoldSplit(ds, folds, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Rows())
	assert.Equal(t, folds[2], test.Indices)

	_, _, err = loader.FoldSplit(ds, folds, 5)
	assert.ErrorIs(t, err, loader.ErrInvalidFolds)
}
