package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a rectangular numeric CSV: one header row followed by records that
// all carry exactly len(Headers) fields.
type Table struct {
	Source  string
	Headers []string
	Rows    [][]float64
}

// NumRows returns the number of data records (the header is not counted).
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the header width.
func (t *Table) NumCols() int { return len(t.Headers) }

// Column returns a copy of column j.
func (t *Table) Column(j int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

type readConfig struct {
	comma     rune
	hasHeader bool
}

// ReadOption tweaks how a table is read.
type ReadOption func(*readConfig)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) ReadOption { return func(c *readConfig) { c.comma = r } }

// WithoutHeader treats the first record as data. Headers are synthesised as
// col0, col1, ...
func WithoutHeader() ReadOption { return func(c *readConfig) { c.hasHeader = false } }

// LoadTable reads the CSV file at path. The whole file is parsed before
// anything is returned: a single bad field fails the load and no partial table
// escapes.
func LoadTable(path string, opts ...ReadOption) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer file.Close()
	return ReadTable(bufio.NewReader(file), path, opts...)
}

// ReadTable parses a table from r. source is only used in error messages.
func ReadTable(r io.Reader, source string, opts ...ReadOption) (*Table, error) {
	cfg := readConfig{comma: ',', hasHeader: true}
	for _, o := range opts {
		o(&cfg)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	reader.TrimLeadingSpace = true
	// row widths are checked below so the error can name the line
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrFormat, source, perr.Line, perr.Err)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFormat, source)
	}

	t := &Table{Source: source}
	body := records
	firstLine := 1
	if cfg.hasHeader {
		t.Headers = make([]string, len(records[0]))
		for j, h := range records[0] {
			t.Headers[j] = strings.TrimSpace(h)
		}
		body = records[1:]
		firstLine = 2
	} else {
		t.Headers = make([]string, len(records[0]))
		for j := range t.Headers {
			t.Headers[j] = "col" + strconv.Itoa(j)
		}
	}

	width := len(t.Headers)
	t.Rows = make([][]float64, 0, len(body))
	for i, rec := range body {
		line := firstLine + i
		if len(rec) != width {
			return nil, fmt.Errorf("%w: %s line %d: got %d fields, want %d", ErrShape, source, line, len(rec), width)
		}
		row := make([]float64, width)
		for j, s := range rec {
			v, err := parseField(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d column %d (%s): %q is not a number",
					ErrFormat, source, line, j, t.Headers[j], s)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// parseField accepts finite decimal numbers only; NaN and Inf literals are
// rejected the same way as any other non-numeric text.
func parseField(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
