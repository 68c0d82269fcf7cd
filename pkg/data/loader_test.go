package data_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"housetree/pkg/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestLoadTable_HeadersAndRows checks header strings are kept verbatim and
// every record is parsed in file order.
func TestLoadTable_HeadersAndRows(t *testing.T) {
	path := writeFile(t, "houses.csv", "Id,LotArea,Rooms,Bucket\n1,8450,7,2\n2,9600,6,1\n3,11250,7,2\n")

	tbl, err := data.LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "LotArea", "Rooms", "Bucket"}, tbl.Headers)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 4, tbl.NumCols())
	assert.Equal(t, []float64{1, 8450, 7, 2}, tbl.Rows[0])
	assert.Equal(t, []float64{3, 11250, 7, 2}, tbl.Rows[2])
	assert.Equal(t, []float64{8450, 9600, 11250}, tbl.Column(1))
	assert.Equal(t, path, tbl.Source)
}

func TestLoadTable_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	_, err := data.LoadTable(missing)
	require.ErrorIs(t, err, data.ErrIO)
	assert.Contains(t, err.Error(), missing)
}

// TestReadTable_NonNumericIsAllOrNothing verifies one bad field fails the
// whole read and no table is returned.
func TestReadTable_NonNumericIsAllOrNothing(t *testing.T) {
	in := "a,b,y\n1,2,0\n3,x,1\n5,6,0\n"
	tbl, err := data.ReadTable(strings.NewReader(in), "mem.csv")
	require.ErrorIs(t, err, data.ErrFormat)
	assert.Nil(t, tbl)
	assert.Contains(t, err.Error(), "mem.csv line 3")
	assert.Contains(t, err.Error(), "(b)")
}

func TestReadTable_RejectsNaNAndInf(t *testing.T) {
	for _, lit := range []string{"NaN", "Inf", "-inf"} {
		_, err := data.ReadTable(strings.NewReader("a,y\n"+lit+",1\n"), "mem.csv")
		assert.ErrorIs(t, err, data.ErrFormat, lit)
	}
}

func TestReadTable_RaggedRow(t *testing.T) {
	_, err := data.ReadTable(strings.NewReader("a,b,y\n1,2,0\n3,1\n"), "mem.csv")
	require.ErrorIs(t, err, data.ErrShape)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadTable_Empty(t *testing.T) {
	_, err := data.ReadTable(strings.NewReader(""), "empty.csv")
	assert.ErrorIs(t, err, data.ErrFormat)
}

func TestReadTable_HeaderOnly(t *testing.T) {
	tbl, err := data.ReadTable(strings.NewReader("a,b,y\n"), "mem.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())
}

func TestReadTable_WithoutHeaderAndComma(t *testing.T) {
	tbl, err := data.ReadTable(strings.NewReader("1;2\n3;4\n"), "mem.csv", data.WithoutHeader(), data.WithComma(';'))
	require.NoError(t, err)
	assert.Equal(t, []string{"col0", "col1"}, tbl.Headers)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, tbl.Rows)
}
