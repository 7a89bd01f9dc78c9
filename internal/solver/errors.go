package solver

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the solver transport could not produce a
// response at all: unreachable service, spawn failure, timeout, or
// unparseable output. Callers may retry on a fallback transport.
var ErrUnavailable = errors.New("solver unavailable")

// SolveError is a failure reported by the solver itself, such as an
// infeasible model. The message is reported verbatim.
type SolveError struct {
	Message string
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("solver error: %s", e.Message)
}

// IsUnavailable reports whether err means the solver could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
