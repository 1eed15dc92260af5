package special

import "errors"

var (
	// ErrPadding indicates a non-zero value in the padding of a Table.
	ErrPadding = errors.New("special: padding entry of harmonic table is non-zero")

	// ErrSingularArgument indicates a Bessel function of the second kind
	// requested at the origin.
	ErrSingularArgument = errors.New("special: second-kind Bessel function is singular at zero")

	// ErrOrder indicates a non-positive truncation order.
	ErrOrder = errors.New("special: truncation order must be positive")
)
