package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RandomForest for classification. Trees are grown one after another from
// seeded bootstrap samples, so a fixed RandomState reproduces the forest.
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Criterion       string
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64

	// Internal state
	Trees     []*DecisionTreeClassifier
	nFeatures int
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesSplit = n }
}
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesLeaf = n }
}
func WithForestCriterion(c string) RandomForestOption {
	return func(rf *RandomForest) { rf.Criterion = c }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     1,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the random forest.
func (rf *RandomForest) Fit(X mat.Matrix, y []int) error {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return fmt.Errorf("%w: X is %dx%d", ErrEmptyInput, n, p)
	}
	if len(y) != n {
		return fmt.Errorf("%w: X has %d rows, y has %d labels", ErrMismatch, n, len(y))
	}
	if rf.NEstimators < 1 {
		return fmt.Errorf("randomforest: need at least one estimator, got %d", rf.NEstimators)
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	rf.Trees = make([]*DecisionTreeClassifier, rf.NEstimators)
	rf.nFeatures = p
	for idx := 0; idx < rf.NEstimators; idx++ {
		seed := rf.RandomState + int64(idx)
		treeRand := rand.New(rand.NewSource(seed))

		// Bootstrap sampling: rows are shared, only the index slice is drawn.
		sampleX := make([][]float64, n)
		sampleY := make([]int, n)
		for j := 0; j < n; j++ {
			k := j
			if rf.Bootstrap {
				k = treeRand.Intn(n)
			}
			sampleX[j] = rows[k]
			sampleY[j] = y[k]
		}

		tree := NewDecisionTreeClassifier(
			WithMaxDepth(rf.MaxDepth),
			WithMinSamplesSplit(rf.MinSamplesSplit),
			WithMinSamplesLeaf(rf.MinSamplesLeaf),
			WithCriterion(rf.Criterion),
			WithMaxFeatures(rf.MaxFeatures),
			WithRandomState(seed), // unique seed for each tree
		)
		if err := tree.fitRows(sampleX, sampleY, p); err != nil {
			return fmt.Errorf("randomforest: tree %d: %w", idx, err)
		}
		rf.Trees[idx] = tree
	}
	return nil
}

// Predict returns the majority vote of all trees. Ties go to the smallest
// label.
func (rf *RandomForest) Predict(X mat.Matrix) ([]int, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	allPreds := make([][]int, 0, len(rf.Trees))
	for _, tree := range rf.Trees {
		preds, err := tree.Predict(X)
		if err != nil {
			return nil, err
		}
		allPreds = append(allPreds, preds)
	}

	n, _ := X.Dims()
	finalPred := make([]int, n)
	for i := 0; i < n; i++ {
		counts := make(map[int]int)
		for j := range allPreds {
			counts[allPreds[j][i]]++
		}
		bestClass, maxCount := 0, -1
		for cls, cnt := range counts {
			if cnt > maxCount || (cnt == maxCount && cls < bestClass) {
				bestClass, maxCount = cls, cnt
			}
		}
		finalPred[i] = bestClass
	}
	return finalPred, nil
}

// FeatureImportance averages the importances of the member trees.
func (rf *RandomForest) FeatureImportance() []float64 {
	out := make([]float64, rf.nFeatures)
	if len(rf.Trees) == 0 {
		return out
	}
	for _, tree := range rf.Trees {
		floats.Add(out, tree.importance)
	}
	floats.Scale(1/float64(len(rf.Trees)), out)
	return out
}

// Tree returns the first tree of the forest, the one that is rendered.
func (rf *RandomForest) Tree() *Tree {
	if len(rf.Trees) == 0 {
		return nil
	}
	return rf.Trees[0].Tree()
}

// NumFeatures returns the training width.
func (rf *RandomForest) NumFeatures() int { return rf.nFeatures }

type forestState struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Criterion       string
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64
	NFeatures       int
	Trees           []*DecisionTreeClassifier
}

// MarshalBinary implements encoding.BinaryMarshaler using gob. Member trees
// are encoded through their own MarshalBinary.
func (rf *RandomForest) MarshalBinary() ([]byte, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(forestState{
		NEstimators:     rf.NEstimators,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MinSamplesLeaf:  rf.MinSamplesLeaf,
		Criterion:       rf.Criterion,
		MaxFeatures:     rf.MaxFeatures,
		Bootstrap:       rf.Bootstrap,
		RandomState:     rf.RandomState,
		NFeatures:       rf.nFeatures,
		Trees:           rf.Trees,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (rf *RandomForest) UnmarshalBinary(data []byte) error {
	var s forestState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	rf.NEstimators = s.NEstimators
	rf.MaxDepth = s.MaxDepth
	rf.MinSamplesSplit = s.MinSamplesSplit
	rf.MinSamplesLeaf = s.MinSamplesLeaf
	rf.Criterion = s.Criterion
	rf.MaxFeatures = s.MaxFeatures
	rf.Bootstrap = s.Bootstrap
	rf.RandomState = s.RandomState
	rf.nFeatures = s.NFeatures
	rf.Trees = s.Trees
	return nil
}
