package geom

import (
	"fmt"
	"math"
	"math/cmplx"
)

// PoleTolerance is the |sin(phi)| below which a direction is treated as a
// pole and theta is fixed at pi/2.
const PoleTolerance = 1e-12

// Angles are the polar angles of a direction: v = (cos(theta)sin(phi),
// sin(theta)sin(phi), cos(phi)). Both are complex for complex directions.
type Angles struct {
	Theta complex128
	Phi   complex128
}

// IsPole reports whether the angles describe one of the two poles.
func (a Angles) IsPole() bool {
	return cmplx.Abs(cmplx.Sin(a.Phi)) <= PoleTolerance
}

// ToAngles converts a direction to polar angles.
//
// Real directions use the real inverse functions with the arguments clamped
// to [-1, 1], so rounding in x/|x| never leaks an imaginary part into the
// angles. Complex directions go through the complex-analytic acos/asin.
func ToAngles(v Vec3) (Angles, error) {
	if v.IsZero() {
		return Angles{}, ErrZeroVector
	}
	if v.IsReal() {
		return realAngles(v.RealParts()), nil
	}

	phi := cmplx.Acos(v[2])
	out := Angles{Theta: complex(math.Pi/2, 0), Phi: phi}
	sinphi := cmplx.Sin(phi)
	if cmplx.Abs(sinphi) <= PoleTolerance {
		return out, nil
	}

	out.Theta = cmplx.Asin(v[1] / sinphi)
	if lexNegative(v[0] / sinphi) {
		out.Theta = complex(math.Pi, 0) - out.Theta
	}
	return out, nil
}

func realAngles(v [3]float64) Angles {
	phi := math.Acos(clamp(v[2]))
	out := Angles{Theta: complex(math.Pi/2, 0), Phi: complex(phi, 0)}
	sinphi := math.Sin(phi)
	if math.Abs(sinphi) <= PoleTolerance {
		return out
	}

	theta := math.Asin(clamp(v[1] / sinphi))
	if v[0]/sinphi < 0 {
		theta = math.Pi - theta
	}
	out.Theta = complex(theta, 0)
	return out
}

// FromAngles rebuilds the direction described by a.
func FromAngles(a Angles) Vec3 {
	st, ct := cmplx.Sin(a.Theta), cmplx.Cos(a.Theta)
	sp, cp := cmplx.Sin(a.Phi), cmplx.Cos(a.Phi)
	return Vec3{ct * sp, st * sp, cp}
}

// ValidateDirection checks v.v = 1 within tol, relative to |v|^2 once the
// Euclidean length exceeds one. It never renormalizes.
func ValidateDirection(v Vec3, tol float64) error {
	if !v.IsValid() {
		return fmt.Errorf("%w: %v has NaN or Inf components", ErrInvalidDirection, v)
	}
	n := v.Norm()
	if d := cmplx.Abs(v.Dot(v) - 1); d > tol*math.Max(1, n*n) {
		return fmt.Errorf("%w: %v (|v.v - 1| = %.3g)", ErrInvalidDirection, v, d)
	}
	return nil
}

// lexNegative orders complex numbers by real part, then imaginary part.
func lexNegative(z complex128) bool {
	return real(z) < 0 || (real(z) == 0 && imag(z) < 0)
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
