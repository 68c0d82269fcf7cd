package data

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with its integer class labels.
//
// Row i of Features and Labels comes from row Indices[i] of the table the
// dataset was built from. Labels is nil for an unlabeled dataset.
type Dataset struct {
	Features     *mat.Dense
	Labels       []int
	FeatureNames []string
	Indices      []int
}

// Build slices t into a Dataset.
//
// The target is the last column when targetIsLast is set; features are then
// the half-open column range [dropLeading, H-1). Otherwise every column from
// dropLeading on is a feature and the dataset has no labels. Labels are the
// target values truncated toward zero.
func Build(t *Table, dropLeading int, targetIsLast bool) (*Dataset, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", ErrShape)
	}
	h := len(t.Headers)
	end := h
	if targetIsLast {
		end = h - 1
	}
	if dropLeading < 0 {
		return nil, fmt.Errorf("%w: %s: negative drop count %d", ErrShape, t.Source, dropLeading)
	}
	f := end - dropLeading
	if f <= 0 {
		return nil, fmt.Errorf("%w: %s: no feature columns left (%d columns, drop %d, target=%t)",
			ErrShape, t.Source, h, dropLeading, targetIsLast)
	}
	n := len(t.Rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s: no data rows", ErrShape, t.Source)
	}

	buf := make([]float64, 0, n*f)
	var labels []int
	if targetIsLast {
		labels = make([]int, n)
	}
	for i, row := range t.Rows {
		if len(row) != h {
			return nil, fmt.Errorf("%w: %s row %d: got %d fields, want %d", ErrShape, t.Source, i, len(row), h)
		}
		buf = append(buf, row[dropLeading:end]...)
		if targetIsLast {
			y := row[h-1]
			if math.IsNaN(y) || math.IsInf(y, 0) || y <= -1 {
				return nil, fmt.Errorf("%w: %s row %d: label %v is not a non-negative integer", ErrFormat, t.Source, i, y)
			}
			labels[i] = int(y)
		}
	}
	// mat.NewDense panics on a length mismatch; report it instead.
	if len(buf) != n*f {
		return nil, fmt.Errorf("%w: %s: %d values for a %dx%d matrix", ErrShape, t.Source, len(buf), n, f)
	}

	names := make([]string, f)
	copy(names, t.Headers[dropLeading:end])
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &Dataset{
		Features:     mat.NewDense(n, f, buf),
		Labels:       labels,
		FeatureNames: names,
		Indices:      idx,
	}, nil
}

// Rows returns the number of records.
func (d *Dataset) Rows() int {
	r, _ := d.Features.Dims()
	return r
}

// Cols returns the number of features.
func (d *Dataset) Cols() int {
	_, c := d.Features.Dims()
	return c
}

// Labeled reports whether the dataset carries a target vector.
func (d *Dataset) Labeled() bool { return d.Labels != nil }

// Row returns a copy of the features of record i.
func (d *Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.Features)
}

// Subset returns a new dataset holding the given rows in the given order.
// Feature names are shared with d.
func (d *Dataset) Subset(rows []int) (*Dataset, error) {
	n, f := d.Features.Dims()
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty subset", ErrShape)
	}
	buf := make([]float64, 0, len(rows)*f)
	var labels []int
	if d.Labels != nil {
		labels = make([]int, len(rows))
	}
	idx := make([]int, len(rows))
	for k, i := range rows {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: row %d out of range [0,%d)", ErrShape, i, n)
		}
		buf = append(buf, d.Features.RawRowView(i)...)
		if labels != nil {
			labels[k] = d.Labels[i]
		}
		idx[k] = d.Indices[i]
	}
	return &Dataset{
		Features:     mat.NewDense(len(rows), f, buf),
		Labels:       labels,
		FeatureNames: d.FeatureNames,
		Indices:      idx,
	}, nil
}

// Classes returns the distinct labels in ascending order.
func (d *Dataset) Classes() []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, y := range d.Labels {
		if _, ok := seen[y]; !ok {
			seen[y] = struct{}{}
			out = append(out, y)
		}
	}
	sort.Ints(out)
	return out
}

func (d *Dataset) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %d records x %d features", d.Rows(), d.Cols())
	if d.Labeled() {
		fmt.Fprintf(&b, ", %d classes %v", len(d.Classes()), d.Classes())
	}
	fmt.Fprintf(&b, "\nfeatures: %s", strings.Join(d.FeatureNames, ", "))
	return b.String()
}
