package loader

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"housetree/pkg/data"
)

// DefaultSeed is the shuffle seed used when none is configured.
const DefaultSeed int64 = 42

// ErrInvalidRatio is returned for a ratio outside (0,1) or one that would
// leave the train or the test side empty.
var ErrInvalidRatio = errors.New("loader: invalid split ratio")

// ErrInvalidFolds is returned when k-fold parameters cannot produce non-empty
// folds.
var ErrInvalidFolds = errors.New("loader: invalid fold count")

// Split partitions ds into train and test sets. floor(N*ratio) rows go to
// train. Rows are assigned by a permutation drawn from a rand.Source seeded
// with seed, so the same seed always yields the same partition.
func Split(ds *data.Dataset, ratio float64, seed int64) (train, test *data.Dataset, err error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("%w: %v not in (0,1)", ErrInvalidRatio, ratio)
	}
	n := ds.Rows()
	nTrain := int(math.Floor(float64(n) * ratio))
	if nTrain == 0 || nTrain == n {
		return nil, nil, fmt.Errorf("%w: ratio %v over %d rows gives %d train / %d test",
			ErrInvalidRatio, ratio, n, nTrain, n-nTrain)
	}

	indices := Permutation(n, seed)
	if train, err = ds.Subset(indices[:nTrain]); err != nil {
		return nil, nil, err
	}
	if test, err = ds.Subset(indices[nTrain:]); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// Permutation returns a seeded permutation of [0,n).
func Permutation(n int, seed int64) []int {
	return rand.New(rand.NewSource(seed)).Perm(n)
}

// KFold yields k disjoint folds of row indices covering [0,n).
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: %d folds over %d rows", ErrInvalidFolds, k, n)
	}
	indices := Permutation(n, seed)
	folds := make([][]int, k)
	for i := range n {
		folds[i%k] = append(folds[i%k], indices[i])
	}
	return folds, nil
}

// FoldSplit returns the train/test pair for fold f: fold f is the test set,
// every other fold is training data.
func FoldSplit(ds *data.Dataset, folds [][]int, f int) (train, test *data.Dataset, err error) {
	if f < 0 || f >= len(folds) {
		return nil, nil, fmt.Errorf("%w: fold %d of %d", ErrInvalidFolds, f, len(folds))
	}
	var trainIdx []int
	for i, fold := range folds {
		if i != f {
			trainIdx = append(trainIdx, fold...)
		}
	}
	if train, err = ds.Subset(trainIdx); err != nil {
		return nil, nil, err
	}
	if test, err = ds.Subset(folds[f]); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
