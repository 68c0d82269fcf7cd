package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier over numeric features.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => use all features, >0 => number of features sampled per node
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// internals
	tree       *Tree
	classes    []int // sorted distinct labels; probas are aligned with it
	nFeatures  int
	importance []float64
}

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
// Training is deterministic for a given set of options.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MaxDepth:            0, // 0 => no explicit max (stopping by other criteria)
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		Criterion:           "gini",
		MaxFeatures:         0,
		MinImpurityDecrease: 0.0,
		RandomState:         1,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API: Fit / Predict / PredictProba / Save/Load
// ---------------------------

// Fit trains the decision tree on X (n x p) and y (n labels).
//
// Features are searched in ascending column order and thresholds in
// ascending value order; the first candidate with the strictly largest
// impurity decrease wins, so equal-gain splits resolve the same way on
// every run.
func (t *DecisionTreeClassifier) Fit(X mat.Matrix, y []int) error {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return fmt.Errorf("%w: X is %dx%d", ErrEmptyInput, n, p)
	}
	if len(y) != n {
		return fmt.Errorf("%w: X has %d rows, y has %d labels", ErrMismatch, n, len(y))
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}
	return t.fitRows(rows, y, p)
}

func (t *DecisionTreeClassifier) fitRows(X [][]float64, y []int, p int) error {
	switch t.Criterion {
	case "", "gini", "entropy":
	default:
		return fmt.Errorf("dtree: unknown criterion %q", t.Criterion)
	}

	t.classes = distinctSorted(y)
	t.nFeatures = p
	t.tree = &Tree{}
	raw := make([]float64, p)

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}

	b := &builder{
		t:        t,
		X:        X,
		y:        y,
		p:        p,
		rnd:      rand.New(rand.NewSource(t.RandomState)),
		impurity: giniFromCounts,
		raw:      raw,
	}
	if t.Criterion == "entropy" {
		b.impurity = entropyFromCounts
	}
	b.buildNode(idx, 0)

	// mean decrease in impurity, normalised to sum to 1
	if total := floats.Sum(raw); total > 0 {
		floats.Scale(1/total, raw)
	}
	t.importance = raw
	return nil
}

// Predict returns the predicted label of each row of X.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) ([]int, error) {
	probs, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, pr := range probs {
		out[i] = t.classes[argmaxFloat(pr)]
	}
	return out, nil
}

// PredictProba returns the per-class probability vectors for rows in X,
// aligned with Classes(). Each vector is a fresh copy.
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) ([][]float64, error) {
	if t.tree.Len() == 0 {
		return nil, ErrNotFitted
	}
	n, p := X.Dims()
	if p != t.nFeatures {
		return nil, fmt.Errorf("%w: model has %d features, X has %d", ErrMismatch, t.nFeatures, p)
	}
	out := make([][]float64, n)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		out[i] = append([]float64(nil), t.tree.leafFor(row).Probas...)
	}
	return out, nil
}

// FeatureImportance returns the normalised mean decrease in impurity of each
// feature. A tree that never split reports all zeros.
func (t *DecisionTreeClassifier) FeatureImportance() []float64 {
	return append([]float64(nil), t.importance...)
}

// Tree returns the fitted tree. It must not be modified.
func (t *DecisionTreeClassifier) Tree() *Tree { return t.tree }

// Classes returns the labels seen during Fit, ascending.
func (t *DecisionTreeClassifier) Classes() []int { return append([]int(nil), t.classes...) }

// NumFeatures returns the training width.
func (t *DecisionTreeClassifier) NumFeatures() int { return t.nFeatures }

// treeState is the gob wire form of a fitted classifier.
type treeState struct {
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	Criterion           string
	MaxFeatures         int
	MinImpurityDecrease float64
	RandomState         int64
	Classes             []int
	NFeatures           int
	Importance          []float64
	Nodes               []Node
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (t *DecisionTreeClassifier) MarshalBinary() ([]byte, error) {
	if t.tree.Len() == 0 {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(treeState{
		MaxDepth:            t.MaxDepth,
		MinSamplesSplit:     t.MinSamplesSplit,
		MinSamplesLeaf:      t.MinSamplesLeaf,
		Criterion:           t.Criterion,
		MaxFeatures:         t.MaxFeatures,
		MinImpurityDecrease: t.MinImpurityDecrease,
		RandomState:         t.RandomState,
		Classes:             t.classes,
		NFeatures:           t.nFeatures,
		Importance:          t.importance,
		Nodes:               t.tree.Nodes,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (t *DecisionTreeClassifier) UnmarshalBinary(data []byte) error {
	var s treeState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	t.MaxDepth = s.MaxDepth
	t.MinSamplesSplit = s.MinSamplesSplit
	t.MinSamplesLeaf = s.MinSamplesLeaf
	t.Criterion = s.Criterion
	t.MaxFeatures = s.MaxFeatures
	t.MinImpurityDecrease = s.MinImpurityDecrease
	t.RandomState = s.RandomState
	t.classes = s.Classes
	t.nFeatures = s.NFeatures
	t.importance = s.Importance
	t.tree = &Tree{Nodes: s.Nodes}
	return nil
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

type builder struct {
	t        *DecisionTreeClassifier
	X        [][]float64
	y        []int
	p        int
	rnd      *rand.Rand
	impurity func([]int) float64
	raw      []float64 // unnormalised importance accumulator
}

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
}

// gainEpsilon absorbs rounding noise so that a split which leaves the class
// mix unchanged is never taken.
const gainEpsilon = 1e-12

// pair is a feature value and its row index.
type pair struct {
	v float64
	i int
}

// buildNode appends the node for idx to the arena and returns its index.
// Nodes are appended before their children, so arena order is pre-order.
func (b *builder) buildNode(idx []int, depth int) int {
	t := b.t
	nClasses := len(t.classes)
	counts := countsFromIndices(b.y, idx, nClasses, t.classes)
	imp := b.impurity(counts)

	id := len(t.tree.Nodes)
	t.tree.Nodes = append(t.tree.Nodes, Node{
		Leaf:     true,
		Class:    t.classes[argmax(counts)],
		Samples:  len(idx),
		Impurity: imp,
		Probas:   countsToProbas(counts),
	})

	if isPure(counts) || len(idx) < t.MinSamplesSplit || len(idx) < 2*max(t.MinSamplesLeaf, 1) {
		return id
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return id
	}

	best := splitResult{feature: -1}
	for _, f := range b.candidateFeatures() {
		r := b.findBestSplitForFeature(idx, f, counts, imp)
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		return id
	}

	var leftIdx, rightIdx []int
	for _, ii := range idx {
		if b.X[ii][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, ii)
		} else {
			rightIdx = append(rightIdx, ii)
		}
	}
	leftCounts := countsFromIndices(b.y, leftIdx, nClasses, t.classes)
	rightCounts := countsFromIndices(b.y, rightIdx, nClasses, t.classes)
	b.raw[best.feature] += float64(len(idx))*imp -
		float64(len(leftIdx))*b.impurity(leftCounts) -
		float64(len(rightIdx))*b.impurity(rightCounts)

	trueID := b.buildNode(leftIdx, depth+1)
	falseID := b.buildNode(rightIdx, depth+1)

	// index, not pointer: the arena may have been reallocated by the children
	node := &t.tree.Nodes[id]
	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.True = trueID
	node.False = falseID
	return id
}

// candidateFeatures returns the features to search at one node, ascending.
func (b *builder) candidateFeatures() []int {
	featIndices := make([]int, b.p)
	for j := range featIndices {
		featIndices[j] = j
	}
	k := b.t.MaxFeatures
	if k <= 0 || k >= b.p {
		return featIndices
	}
	for i := 0; i < k; i++ {
		j := i + b.rnd.Intn(b.p-i)
		featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
	}
	featIndices = featIndices[:k]
	sort.Ints(featIndices)
	return featIndices
}

// findBestSplitForFeature sweeps the sorted values of feature f, moving one
// row at a time from the right partition to the left one.
func (b *builder) findBestSplitForFeature(idx []int, f int, counts []int, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}
	minLeaf := max(b.t.MinSamplesLeaf, 1)

	vals := make([]pair, len(idx))
	for k, ii := range idx {
		vals[k] = pair{b.X[ii][f], ii}
	}
	sort.SliceStable(vals, func(a, c int) bool { return vals[a].v < vals[c].v })

	nClasses := len(counts)
	left := make([]int, nClasses)
	right := append([]int(nil), counts...)
	n := float64(len(idx))

	for s := 1; s < len(vals); s++ {
		ci := classIndex(b.y[vals[s-1].i], b.t.classes)
		left[ci]++
		right[ci]--

		if vals[s].v == vals[s-1].v {
			continue
		}
		nl, nr := s, len(vals)-s
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		weighted := (float64(nl)/n)*b.impurity(left) + (float64(nr)/n)*b.impurity(right)
		gain := parentImpurity - weighted
		if gain > gainEpsilon && gain > result.gain {
			lo, hi := vals[s-1].v, vals[s].v
			thr := lo + (hi-lo)/2
			if thr >= hi {
				// adjacent floats: the midpoint rounds up to hi
				thr = lo
			}
			result = splitResult{gain: gain, feature: f, threshold: thr}
		}
	}
	return result
}

func distinctSorted(y []int) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0)
	for _, lab := range y {
		if _, ok := seen[lab]; !ok {
			seen[lab] = struct{}{}
			out = append(out, lab)
		}
	}
	sort.Ints(out)
	return out
}

func countsFromIndices(y []int, idx []int, nClasses int, classes []int) []int {
	counts := make([]int, nClasses)
	for _, ii := range idx {
		counts[classIndex(y[ii], classes)]++
	}
	return counts
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// classIndex returns index of label in the sorted classes slice.
func classIndex(label int, classes []int) int {
	return sort.SearchInts(classes, label)
}
