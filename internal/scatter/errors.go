package scatter

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateSystem indicates a singular 2x2 boundary-matching system.
	ErrDegenerateSystem = errors.New("scatter: degenerate boundary system")

	// ErrMedium indicates physically meaningless medium parameters.
	ErrMedium = errors.New("scatter: invalid medium")

	// ErrMismatch indicates inputs of inconsistent length or order.
	ErrMismatch = errors.New("scatter: dimension mismatch")
)

// DegenerateSystemError reports the degree whose boundary system could not
// be solved. It is fatal for the direction being solved.
type DegenerateSystemError struct {
	Degree int
	Det    complex128
}

func (e *DegenerateSystemError) Error() string {
	return fmt.Sprintf("scatter: boundary system for degree %d is singular (det = %v)", e.Degree, e.Det)
}

func (e *DegenerateSystemError) Unwrap() error {
	return ErrDegenerateSystem
}
