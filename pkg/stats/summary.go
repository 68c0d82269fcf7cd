package stats

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"housetree/pkg/data"

	"gonum.org/v1/gonum/mat"
)

// FeatureSummary describes one feature column.
type FeatureSummary struct {
	Name   string
	Mean   float64
	Std    float64
	Min    float64
	Median float64
	Max    float64
}

// Summary is the console overview printed before training.
type Summary struct {
	Rows     int
	Features []FeatureSummary
	// ClassCounts maps each label to its number of rows.
	ClassCounts map[int]int
	Classes     []int
}

// Summarize computes per-feature statistics and the class distribution of ds.
func Summarize(ds *data.Dataset) Summary {
	s := Summary{Rows: ds.Rows(), ClassCounts: map[int]int{}}
	col := make([]float64, ds.Rows())
	for j, name := range ds.FeatureNames {
		mat.Col(col, j, ds.Features)
		min, max := MinMax(col)
		s.Features = append(s.Features, FeatureSummary{
			Name:   name,
			Mean:   Mean(col),
			Std:    Std(col),
			Min:    min,
			Median: Median(col),
			Max:    max,
		})
	}
	for _, y := range ds.Labels {
		s.ClassCounts[y]++
	}
	s.Classes = ds.Classes()
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d records, %d features\n", s.Rows, len(s.Features))
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "feature\tmean\tstd\tmin\tmedian\tmax")
	for _, f := range s.Features {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", f.Name, f.Mean, f.Std, f.Min, f.Median, f.Max)
	}
	w.Flush()
	if len(s.Classes) > 0 {
		parts := make([]string, len(s.Classes))
		for i, c := range s.Classes {
			parts[i] = fmt.Sprintf("%d=%d", c, s.ClassCounts[c])
		}
		fmt.Fprintf(&b, "classes: %s\n", strings.Join(parts, " "))
	}
	return b.String()
}
