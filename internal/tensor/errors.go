package tensor

import "fmt"

// ShapeError reports a shape contract violation: a kernel larger than its
// input, mismatched dimensions between pipeline stages, or an invalid shape.
// It is always surfaced to the caller, never corrected silently.
type ShapeError struct {
	Op     string // Operation that detected the violation (e.g. "im2col")
	Detail string // Human-readable description
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}
