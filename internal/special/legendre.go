package special

import "math"

// Legendre returns the associated Legendre functions P_l^m(z) for
// 0 <= m <= l < n without the Condon-Shortley phase, as p[l][m].
//
// s stands for (1 - z^2)^{1/2}. Passing s = sin(phi) with z = cos(phi)
// continues the functions analytically in the angle, which keeps the
// branch consistent with the angles a complex direction was mapped to.
func Legendre(n int, z, s complex128) [][]complex128 {
	p := make([][]complex128, n)
	for l := range p {
		p[l] = make([]complex128, l+1)
	}
	if n == 0 {
		return p
	}

	// P_m^m = (2m-1)!! s^m
	pmm := complex(1, 0)
	for m := 0; m < n; m++ {
		if m > 0 {
			pmm *= complex(float64(2*m-1), 0) * s
		}
		p[m][m] = pmm
		if m+1 < n {
			p[m+1][m] = complex(float64(2*m+1), 0) * z * pmm
		}
		for l := m + 2; l < n; l++ {
			a := complex(float64(2*l-1), 0) * z * p[l-1][m]
			b := complex(float64(l+m-1), 0) * p[l-2][m]
			p[l][m] = (a - b) / complex(float64(l-m), 0)
		}
	}
	return p
}

// norm is sqrt((2l+1)/(4pi) * (l-m)!/(l+m)!), via log-gamma so large
// degrees do not overflow the factorials.
func norm(l, m int) float64 {
	lg1, _ := math.Lgamma(float64(l - m + 1))
	lg2, _ := math.Lgamma(float64(l + m + 1))
	return math.Sqrt(float64(2*l+1)/(4*math.Pi)) * math.Exp(0.5*(lg1-lg2))
}
