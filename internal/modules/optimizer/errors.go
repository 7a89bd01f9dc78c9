package optimizer

import "fmt"

// InputError marks a caller-supplied request that fails validation
// before any solve is attempted.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid optimization input: %s", e.Message)
}

func inputErrorf(format string, args ...interface{}) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// IntegrityError marks a structurally invalid solver solution. It
// indicates a bug in the formulation or the solver binding, never a
// user-input problem.
type IntegrityError struct {
	Check   string
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("solution integrity violation (%s): %s", e.Check, e.Message)
}

func integrityErrorf(check, format string, args ...interface{}) *IntegrityError {
	return &IntegrityError{Check: check, Message: fmt.Sprintf(format, args...)}
}
