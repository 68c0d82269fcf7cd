package model

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Confusion is a confusion matrix: Counts.At(i, j) is the number of rows whose
// true label is Classes[i] and predicted label is Classes[j].
type Confusion struct {
	Classes []int
	Counts  *mat.Dense // nil when built from no rows
}

// ConfusionMatrix tabulates predictions against the true labels. Classes are
// the sorted union of both label vectors.
func ConfusionMatrix(yTrue, yPred []int) (*Confusion, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("%w: %d true labels, %d predictions", ErrMismatch, len(yTrue), len(yPred))
	}
	classes := distinctSorted(append(append([]int(nil), yTrue...), yPred...))
	cm := &Confusion{Classes: classes}
	if len(classes) == 0 {
		return cm, nil
	}
	cm.Counts = mat.NewDense(len(classes), len(classes), nil)
	for i := range yTrue {
		r := sort.SearchInts(classes, yTrue[i])
		c := sort.SearchInts(classes, yPred[i])
		cm.Counts.Set(r, c, cm.Counts.At(r, c)+1)
	}
	return cm, nil
}

// Total returns the number of tabulated rows.
func (c *Confusion) Total() float64 {
	if c.Counts == nil {
		return 0
	}
	return mat.Sum(c.Counts)
}

// Accuracy returns the fraction of rows on the diagonal. It is 0 for an
// empty matrix rather than NaN.
func (c *Confusion) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return mat.Trace(c.Counts) / total
}

// PrecisionRecallF1 returns macro-averaged precision, recall and F1 over the
// classes of the matrix. Classes without predictions (or without true rows)
// contribute 0 to precision (or recall).
func (c *Confusion) PrecisionRecallF1() (prec, rec, f1 float64) {
	k := len(c.Classes)
	if k == 0 {
		return 0, 0, 0
	}
	for i := 0; i < k; i++ {
		tp := c.Counts.At(i, i)
		predicted := mat.Sum(c.Counts.ColView(i))
		actual := mat.Sum(c.Counts.RowView(i))
		var p, r float64
		if predicted > 0 {
			p = tp / predicted
		}
		if actual > 0 {
			r = tp / actual
		}
		prec += p
		rec += r
		if p+r > 0 {
			f1 += 2 * p * r / (p + r)
		}
	}
	n := float64(k)
	return prec / n, rec / n, f1 / n
}

func (c *Confusion) String() string {
	if c.Counts == nil {
		return "(empty confusion matrix)"
	}
	return fmt.Sprintf("classes %v\n%v", c.Classes, mat.Formatted(c.Counts, mat.Squeeze()))
}

// Accuracy is a shortcut for ConfusionMatrix(yTrue, yPred).Accuracy().
func Accuracy(yTrue, yPred []int) (float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Accuracy(), nil
}
