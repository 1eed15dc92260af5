// Package geom holds the vector and angle primitives of the scattering lab.
//
// Directions live on the unit quadric v.v = 1, where the product is the
// bilinear one. Real unit vectors are on it, and so are the complex probe
// directions whose Euclidean length grows without bound:
//
//	v := geom.Real(0, 0, 1)
//	ang, err := geom.ToAngles(v) // phi = 0, theta = pi/2 (pole)
//
// [ToAngles] and [FromAngles] are inverse to each other away from the poles.
package geom
