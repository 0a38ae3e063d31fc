package interfaces

import "errors"

// Recommendation failure taxonomy. Callers use errors.Is to tell them apart.
var (
	// ErrMissingResource means the instruction document is absent
	ErrMissingResource = errors.New("missing resource")

	// ErrMissingConfiguration means the provider credential is absent or the provider is unavailable
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrProvider wraps any failure of the embedding or generation call
	ErrProvider = errors.New("provider failure")

	// ErrEmptyInput means the submitted text was blank
	ErrEmptyInput = errors.New("empty input")
)
