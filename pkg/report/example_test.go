package report_test

import (
	"fmt"
	"os"

	"housetree/pkg/report"
)

func ExampleRank() {
	ranked, err := report.Rank(
		[]string{"Id", "LotArea", "OverallQual", "YearBuilt"},
		[]float64{0, 0.25, 0.6, 0.15},
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = report.FormatImportances(os.Stdout, report.TruncateAtFirstZero(ranked))
	// Output:
	// OverallQual: 60.00%
	// LotArea: 25.00%
	// YearBuilt: 15.00%
}
