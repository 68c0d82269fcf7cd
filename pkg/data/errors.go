package data

import "errors"

// Sentinel errors returned by the loader, the dataset builder and the label
// writer. Callers match them with errors.Is; the wrapped message carries the
// offending path, line or row index.
var (
	// ErrIO is returned when a file cannot be opened, created, read or written.
	ErrIO = errors.New("data: i/o failure")

	// ErrFormat is returned when a field that must be numeric is not, or when a
	// label cannot be represented as a non-negative integer.
	ErrFormat = errors.New("data: malformed field")

	// ErrShape is returned for ragged rows and for feature/label shapes that do
	// not line up.
	ErrShape = errors.New("data: shape mismatch")
)
