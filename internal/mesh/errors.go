package mesh

import "errors"

var (
	// ErrResolution indicates a mesh resolution too small to build a mesh.
	ErrResolution = errors.New("mesh: resolution out of range")

	// ErrAnnulus indicates inconsistent annulus or ball radii.
	ErrAnnulus = errors.New("mesh: invalid radii")

	// ErrUnknownKind indicates an unknown mesh or probe kind.
	ErrUnknownKind = errors.New("mesh: unknown kind")
)
