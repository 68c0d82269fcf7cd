package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomForest_FitPredict(t *testing.T) {
	X, y := stepData()
	rf := NewRandomForest(WithNEstimators(5), WithBootstrap(false))
	require.NoError(t, rf.Fit(X, y))
	require.Len(t, rf.Trees, 5)

	preds, err := rf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, preds)

	// without bootstrap every tree sees the same rows
	assert.Equal(t, []float64{0, 1, 0}, rf.FeatureImportance())
	assert.Equal(t, rf.Trees[0].Tree(), rf.Tree())
}

func TestRandomForest_Reproducible(t *testing.T) {
	X, y := stepData()
	a := NewRandomForest(WithNEstimators(4), WithForestRandomState(9))
	b := NewRandomForest(WithNEstimators(4), WithForestRandomState(9))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	for i := range a.Trees {
		assert.Equal(t, a.Trees[i].Tree().Nodes, b.Trees[i].Tree().Nodes)
	}
	assert.InDeltaSlice(t, a.FeatureImportance(), b.FeatureImportance(), 1e-12)
}

func TestRandomForest_Errors(t *testing.T) {
	X, y := stepData()
	_, err := NewRandomForest().Predict(X)
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.Nil(t, NewRandomForest().Tree())

	err = NewRandomForest(WithNEstimators(0)).Fit(X, y)
	assert.Error(t, err)
	err = NewRandomForest().Fit(X, y[:1])
	assert.ErrorIs(t, err, ErrMismatch)
}
