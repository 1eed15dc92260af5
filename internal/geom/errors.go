package geom

import "errors"

var (
	// ErrZeroVector indicates a zero vector where a direction was expected.
	ErrZeroVector = errors.New("geom: zero vector has no direction")

	// ErrInvalidDirection indicates v.v differs from one beyond tolerance.
	ErrInvalidDirection = errors.New("geom: direction is not on the unit quadric")
)
