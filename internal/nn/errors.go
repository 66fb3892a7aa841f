package nn

import "fmt"

// InvalidStateError reports a violation of the forward -> backward call
// protocol: Backward invoked without a preceding matching Forward, or with a
// cache that has already been consumed.
type InvalidStateError struct {
	Op     string
	Detail string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}
