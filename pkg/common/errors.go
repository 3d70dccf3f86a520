package common

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration the caller must fix before a run
// can start, such as a chunk overlap that is not smaller than the chunk
// size. It is never recovered from within the pipeline.
var ErrInvalidConfig = errors.New("invalid configuration")

// ExtractionValidationError reports LLM output that failed schema or
// reference validation after all retries for one chunk. It is recovered
// locally: the chunk is skipped and counted, the run continues.
type ExtractionValidationError struct {
	ChunkID string
	Reason  string
}

func (e *ExtractionValidationError) Error() string {
	return fmt.Sprintf("extraction output invalid for chunk %s: %s", e.ChunkID, e.Reason)
}

// DimensionMismatchError reports a similarity query whose embedding
// dimensionality does not match the persisted vectors. This is a
// configuration error and is never silently coerced.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: store has %d, query has %d", e.Want, e.Got)
}
