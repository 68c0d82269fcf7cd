package model

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyInput is returned when Fit receives no rows or no features.
	ErrEmptyInput = errors.New("model: empty input")

	// ErrMismatch is returned when X and y disagree on length, or when a
	// prediction matrix has a different width than the training data.
	ErrMismatch = errors.New("model: dimension mismatch")

	// ErrNotFitted is returned by prediction methods called before Fit.
	ErrNotFitted = errors.New("model: not fitted")
)

// Classifier is a trained (or trainable) label predictor that can explain
// itself through feature importances and a decision tree.
type Classifier interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
	// FeatureImportance returns one score per training column.
	FeatureImportance() []float64
	// Tree returns the decision structure used for rendering.
	Tree() *Tree
	// NumFeatures returns the training width, 0 before Fit.
	NumFeatures() int
}
