package types

import "errors"

// Engine-level errors
var (
	// ErrNotFound indicates the upstream document does not exist.
	// Surfaced immediately with no partial chunk output.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidConfiguration indicates a supplied configuration value
	// (typically a helper pattern) could not be compiled. Surfaced before
	// any scanning begins.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
