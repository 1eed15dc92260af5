package geom

import (
	"math"
	"math/cmplx"
)

// Vec3 is a point or direction in real or complex 3-space.
type Vec3 [3]complex128

// Real builds a Vec3 with zero imaginary parts.
func Real(x, y, z float64) Vec3 {
	return Vec3{complex(x, 0), complex(y, 0), complex(z, 0)}
}

// FromSlice converts a real 3-slice. It panics on a length mismatch.
func FromSlice(s []float64) Vec3 {
	if len(s) != 3 {
		panic("geom: slice length mismatch")
	}
	return Real(s[0], s[1], s[2])
}

// Dot is the bilinear product sum(v_i * w_i). No conjugation: for complex
// directions v.v = 1 is a quadric, not a length.
func (v Vec3) Dot(w Vec3) complex128 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Norm is the Euclidean norm sqrt(sum |v_i|^2).
func (v Vec3) Norm() float64 {
	sum := 0.0
	for _, c := range v {
		a := cmplx.Abs(c)
		sum += a * a
	}
	return math.Sqrt(sum)
}

func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

func (v Vec3) Scale(f complex128) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

// IsReal reports whether every component has a zero imaginary part.
func (v Vec3) IsReal() bool {
	return imag(v[0]) == 0 && imag(v[1]) == 0 && imag(v[2]) == 0
}

func (v Vec3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// IsValid reports false if any component is NaN or Inf.
func (v Vec3) IsValid() bool {
	for _, c := range v {
		if cmplx.IsNaN(c) || cmplx.IsInf(c) {
			return false
		}
	}
	return true
}

// RealParts drops the imaginary parts.
func (v Vec3) RealParts() [3]float64 {
	return [3]float64{real(v[0]), real(v[1]), real(v[2])}
}

// Unit returns v scaled to Euclidean length one. Only meaningful for real
// vectors; callers renormalize explicitly, nothing in this package does it
// behind their back.
func (v Vec3) Unit() (Vec3, error) {
	n := v.Norm()
	if n == 0 {
		return Vec3{}, ErrZeroVector
	}
	return v.Scale(complex(1/n, 0)), nil
}
