package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfusionMatrix(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2}
	yPred := []int{0, 1, 1, 1, 0}
	cm, err := ConfusionMatrix(yTrue, yPred)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, cm.Classes)
	assert.Equal(t, 1.0, cm.Counts.At(0, 0))
	assert.Equal(t, 1.0, cm.Counts.At(0, 1))
	assert.Equal(t, 2.0, cm.Counts.At(1, 1))
	assert.Equal(t, 1.0, cm.Counts.At(2, 0))
	assert.Equal(t, 5.0, cm.Total())
	assert.InDelta(t, 0.6, cm.Accuracy(), 1e-12)
	assert.Contains(t, cm.String(), "classes [0 1 2]")
}

// TestAccuracy_SingleClassTestSet covers a held-out set with one class only.
func TestAccuracy_SingleClassTestSet(t *testing.T) {
	acc, err := Accuracy([]int{1, 1}, []int{1, 0})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(acc))
	assert.Equal(t, 0.5, acc)

	acc, err = Accuracy([]int{1}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestAccuracy_Empty(t *testing.T) {
	cm, err := ConfusionMatrix(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cm.Accuracy())
	p, r, f := cm.PrecisionRecallF1()
	assert.Equal(t, [3]float64{0, 0, 0}, [3]float64{p, r, f})
}

func TestConfusionMatrix_Mismatch(t *testing.T) {
	_, err := ConfusionMatrix([]int{1}, []int{1, 2})
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestPrecisionRecallF1(t *testing.T) {
	cm, err := ConfusionMatrix([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
	require.NoError(t, err)
	p, r, f := cm.PrecisionRecallF1()
	// class 0: p=1 r=0.5; class 1: p=2/3 r=1
	assert.InDelta(t, (1+2.0/3)/2, p, 1e-12)
	assert.InDelta(t, 0.75, r, 1e-12)
	assert.InDelta(t, (2.0/3+0.8)/2, f, 1e-12)
}
