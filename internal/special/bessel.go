package special

import (
	"math/cmplx"
)

const (
	millerPad   = 20
	rescaleAt   = 1e250
	rescaleBy   = 1e-250
	minFunction = 2
)

// SphericalJ returns j_l(z) and j_l'(z) for l in [0, n) at complex z.
//
// Values come from Miller's downward recurrence, normalised against the
// closed form of whichever of j_0, j_1 is larger in magnitude. Upward
// recurrence loses every digit once l exceeds |z|.
func SphericalJ(n int, z complex128) (j, jp []complex128, err error) {
	if n < 1 {
		return nil, nil, ErrOrder
	}
	size := n + 1
	if size < minFunction {
		size = minFunction
	}
	full := make([]complex128, size)

	if z == 0 {
		full[0] = 1
	} else {
		start := size + int(cmplx.Abs(z)) + millerPad
		var next, cur complex128 = 0, 1e-300
		for l := start; l > 0; l-- {
			prev := complex(float64(2*l+1), 0)/z*cur - next
			next, cur = cur, prev
			if l-1 < size {
				full[l-1] = cur
			}
			if l < size {
				full[l] = next
			}
			if cmplx.Abs(cur) > rescaleAt {
				cur *= rescaleBy
				next *= rescaleBy
				for i := l - 1; i < size; i++ {
					full[i] *= rescaleBy
				}
			}
		}

		j0 := cmplx.Sin(z) / z
		j1 := cmplx.Sin(z)/(z*z) - cmplx.Cos(z)/z
		var scale complex128
		if cmplx.Abs(j0) >= cmplx.Abs(j1) {
			scale = j0 / full[0]
		} else {
			scale = j1 / full[1]
		}
		for i := range full {
			full[i] *= scale
		}
	}

	j = append([]complex128(nil), full[:n]...)
	jp = make([]complex128, n)
	jp[0] = -full[1]
	for l := 1; l < n; l++ {
		if z == 0 {
			if l == 1 {
				jp[l] = complex(1.0/3, 0)
			}
			continue
		}
		jp[l] = full[l-1] - complex(float64(l+1), 0)/z*full[l]
	}
	return j, jp, nil
}

// SphericalY returns y_l(z) and y_l'(z) for l in [0, n) by upward
// recurrence, which is stable for the second kind.
func SphericalY(n int, z complex128) (y, yp []complex128, err error) {
	if n < 1 {
		return nil, nil, ErrOrder
	}
	if z == 0 {
		return nil, nil, ErrSingularArgument
	}
	size := n + 1
	if size < minFunction {
		size = minFunction
	}
	full := make([]complex128, size)
	s, c := cmplx.Sin(z), cmplx.Cos(z)
	full[0] = -c / z
	full[1] = -c/(z*z) - s/z
	for l := 1; l+1 < size; l++ {
		full[l+1] = complex(float64(2*l+1), 0)/z*full[l] - full[l-1]
	}

	y = append([]complex128(nil), full[:n]...)
	yp = make([]complex128, n)
	yp[0] = -full[1]
	for l := 1; l < n; l++ {
		yp[l] = full[l-1] - complex(float64(l+1), 0)/z*full[l]
	}
	return y, yp, nil
}

// Radial holds the interior first-kind values at kappa*a and the exterior
// second-kind values at a radius, for every degree below the truncation
// order.
type Radial struct {
	J, JP []complex128
	Y, YP []complex128
}

// NewRadial evaluates j_l(kappa*a), j_l'(kappa*a), y_l(r), y_l'(r).
func NewRadial(n int, kappa complex128, a, r float64) (*Radial, error) {
	j, jp, err := SphericalJ(n, kappa*complex(a, 0))
	if err != nil {
		return nil, err
	}
	y, yp, err := SphericalY(n, complex(r, 0))
	if err != nil {
		return nil, err
	}
	return &Radial{J: j, JP: jp, Y: y, YP: yp}, nil
}
