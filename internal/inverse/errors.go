package inverse

import "errors"

var (
	// ErrEmptyProblem indicates an objective without points or directions.
	ErrEmptyProblem = errors.New("inverse: objective needs sample points and directions")

	// ErrDimension indicates a coefficient vector of the wrong length.
	ErrDimension = errors.New("inverse: coefficient vector length mismatch")

	// ErrUnknownMethod indicates an optimizer method or start that is not
	// registered.
	ErrUnknownMethod = errors.New("inverse: unknown method")

	// ErrDirectSolve indicates the least-squares solve of the objective failed.
	ErrDirectSolve = errors.New("inverse: direct least-squares solve failed")

	// ErrOverflow indicates non-finite weights or a non-finite recovered
	// transform: the probe magnitude is too large for the annulus.
	ErrOverflow = errors.New("inverse: numeric overflow")
)
