package special

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/invscat/internal/geom"
)

// IPow returns i^l exactly.
func IPow(l int) complex128 {
	switch ((l % 4) + 4) % 4 {
	case 0:
		return 1
	case 1:
		return 1i
	case 2:
		return -1
	default:
		return -1i
	}
}

func signPow(k int) float64 {
	if k%2 == 0 {
		return 1
	}
	return -1
}

// ComplexY returns the scattering harmonics of degree l at complex angles,
// index m+l for m in [-l, l]:
//
//	Y_lm = (-1)^m i^l / sqrt(4pi) * sqrt((2l+1)(l-m)!/(l+m)!) * e^{i m theta} P_l^m(cos phi)
//
// for m >= 0, and Y_{l,-m} = (-1)^(l-m) conj(Y_lm).
func ComplexY(l int, ang geom.Angles) []complex128 {
	p := Legendre(l+1, cmplx.Cos(ang.Phi), cmplx.Sin(ang.Phi))
	return complexRow(l, ang.Theta, p[l])
}

func complexRow(l int, theta complex128, pl []complex128) []complex128 {
	y := make([]complex128, 2*l+1)
	il := IPow(l)
	for m := 0; m <= l; m++ {
		k := complex(signPow(m)*norm(l, m), 0) * il
		y[m+l] = k * cmplx.Exp(complex(0, float64(m))*theta) * pl[m]
	}
	for m := 1; m <= l; m++ {
		y[-m+l] = complex(signPow(l-m), 0) * cmplx.Conj(y[m+l])
	}
	return y
}

// ComplexYTable evaluates every degree below n at one pair of angles.
func ComplexYTable(n int, ang geom.Angles) *Table {
	t := NewTable(n)
	p := Legendre(n, cmplx.Cos(ang.Phi), cmplx.Sin(ang.Phi))
	for l := 0; l < n; l++ {
		t.SetRow(l, complexRow(l, ang.Theta, p[l]))
	}
	return t
}

// ComplexYAt converts v to angles and evaluates the table there.
func ComplexYAt(n int, v geom.Vec3) (*Table, error) {
	ang, err := geom.ToAngles(v)
	if err != nil {
		return nil, err
	}
	return ComplexYTable(n, ang), nil
}

// ComplexYCube evaluates one table per direction.
func ComplexYCube(n int, dirs []geom.Vec3) ([]*Table, error) {
	out := make([]*Table, len(dirs))
	for i, d := range dirs {
		t, err := ComplexYAt(n, d)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// RealY is the standard orthonormal spherical harmonic of degree l with the
// Condon-Shortley phase, index m+l:
//
//	Y_lm = sqrt((2l+1)/(4pi) (l-m)!/(l+m)!) (-1)^m P_l^m(cos phi) e^{i m theta}
//
// and Y_{l,-m} = (-1)^m conj(Y_lm).
func RealY(l int, theta, phi float64) []complex128 {
	p := Legendre(l+1, complex(math.Cos(phi), 0), complex(math.Sin(phi), 0))
	y := make([]complex128, 2*l+1)
	for m := 0; m <= l; m++ {
		k := signPow(m) * norm(l, m)
		y[m+l] = complex(k, 0) * p[l][m] * cmplx.Exp(complex(0, float64(m)*theta))
	}
	for m := 1; m <= l; m++ {
		y[-m+l] = complex(signPow(m), 0) * cmplx.Conj(y[m+l])
	}
	return y
}

// RealYSum is sum_m Y_lm(theta, phi).
func RealYSum(l int, theta, phi float64) complex128 {
	var s complex128
	for _, v := range RealY(l, theta, phi) {
		s += v
	}
	return s
}

// RealYSums returns RealYSum for every degree below n at a real direction.
func RealYSums(n int, v geom.Vec3) ([]complex128, error) {
	ang, err := geom.ToAngles(v)
	if err != nil {
		return nil, err
	}
	theta, phi := real(ang.Theta), real(ang.Phi)
	out := make([]complex128, n)
	for l := range out {
		out[l] = RealYSum(l, theta, phi)
	}
	return out, nil
}
