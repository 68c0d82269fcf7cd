package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteLabels writes one label per line to path, in order and without a
// header. The file is truncated if it exists; missing parent directories are
// created.
func WriteLabels(path string, labels []int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory for %s: %v", ErrIO, path, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}

	writer := csv.NewWriter(file)
	record := make([]string, 1)
	for _, y := range labels {
		record[0] = strconv.Itoa(y)
		if err := writer.Write(record); err != nil {
			file.Close()
			return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("%w: flush %s: %v", ErrIO, path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	return nil
}

// ReadLabels reads a file written by WriteLabels back into an int slice. An
// empty file holds zero labels.
func ReadLabels(path string) ([]int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	if info.Size() == 0 {
		return []int{}, nil
	}
	t, err := LoadTable(path, WithoutHeader())
	if err != nil {
		return nil, err
	}
	if t.NumCols() != 1 {
		return nil, fmt.Errorf("%w: %s: got %d columns, want 1", ErrShape, path, t.NumCols())
	}
	col := t.Column(0)
	out := make([]int, len(col))
	for i, v := range col {
		out[i] = int(v)
	}
	return out, nil
}
