// Package report turns a fitted model's feature importances into a ranked
// listing and a bar chart.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

var (
	// ErrShape is returned when names and scores cannot be paired.
	ErrShape = errors.New("report: names and scores differ in length")

	// ErrRender is returned when a chart cannot be produced.
	ErrRender = errors.New("report: render failed")
)

// Importance is a feature name with its importance score.
type Importance struct {
	Name  string
	Score float64
}

// Rank pairs names[i] with scores[i] and sorts by score, highest first.
// Equal scores keep their input order.
func Rank(names []string, scores []float64) ([]Importance, error) {
	if len(names) != len(scores) {
		return nil, fmt.Errorf("%w: %d names, %d scores", ErrShape, len(names), len(scores))
	}
	ranked := make([]Importance, len(names))
	for i := range names {
		ranked[i] = Importance{Name: names[i], Score: scores[i]}
	}
	SortImportances(ranked)
	return ranked, nil
}

// SortImportances sorts in place, score descending, stable on ties.
func SortImportances(ranked []Importance) {
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
}

// TruncateAtFirstZero returns the prefix of ranked that ends just before the
// first entry whose score is exactly zero. Later non-zero entries are dropped
// too; on sorted input there are none.
func TruncateAtFirstZero(ranked []Importance) []Importance {
	for i, imp := range ranked {
		if imp.Score == 0 {
			return ranked[:i]
		}
	}
	return ranked
}

// FormatImportances writes one "name: value%" line per entry.
func FormatImportances(w io.Writer, ranked []Importance) error {
	for _, imp := range ranked {
		if _, err := fmt.Fprintf(w, "%s: %.2f%%\n", imp.Name, imp.Score*100); err != nil {
			return err
		}
	}
	return nil
}
