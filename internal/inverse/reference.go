package inverse

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/mesh"
)

// ReferenceMode selects how the true transform is computed.
type ReferenceMode string

const (
	ReferenceAnalytic   ReferenceMode = "analytic"
	ReferenceGrid       ReferenceMode = "grid"
	ReferenceQuadrature ReferenceMode = "quadrature"
)

// smallFrequency is the |psi| a below which the closed form is replaced by
// its series, the closed form cancelling catastrophically there.
const smallFrequency = 1e-3

// AnalyticFourier is the transform of q on the ball of radius a:
//
//	F(psi) = 4pi q / |psi|^3 (sin(|psi| a) - |psi| a cos(|psi| a))
//
// with |psi| the Euclidean norm.
func AnalyticFourier(q, a float64, psi geom.Vec3) complex128 {
	t := psi.Norm()
	ta := t * a
	if ta < smallFrequency {
		// sin x - x cos x = x^3/3 - x^5/30 + ...
		return complex(4*math.Pi*q*a*a*a*(1.0/3-ta*ta/30), 0)
	}
	return complex(4*math.Pi*q/(t*t*t)*(math.Sin(ta)-ta*math.Cos(ta)), 0)
}

// GridFourier sums q exp(-i psi.y) over the ball grid built from dirs with
// numRadii shells between a/10 and a.
func GridFourier(q, a float64, psi geom.Vec3, dirs *mesh.Sphere, numRadii int) (complex128, error) {
	ball, err := mesh.Ball(dirs, a, numRadii)
	if err != nil {
		return 0, err
	}
	var sum complex128
	for _, y := range ball.Points() {
		sum += cmplx.Exp(-1i * psi.Dot(y))
	}
	return sum * complex(q*ball.Element(), 0), nil
}

// QuadratureFourier integrates the radial form 4pi q int_0^a r^2 sinc(|psi| r) dr
// with an order-point Gauss-Legendre rule. It is a validation path, slower
// than the closed form and independent of it.
func QuadratureFourier(q, a float64, psi geom.Vec3, order int) (complex128, error) {
	if order < 1 {
		return 0, fmt.Errorf("quadrature order %d must be positive", order)
	}
	t := psi.Norm()
	f := func(r float64) float64 {
		x := t * r
		if x == 0 {
			return r * r
		}
		return r * r * math.Sin(x) / x
	}
	return complex(4*math.Pi*q*quad.Fixed(f, 0, a, order, quad.Legendre{}, 0), 0), nil
}

// Reference dispatches on mode. dirs and numRadii are only used by the
// grid mode, order only by quadrature.
func Reference(mode ReferenceMode, q, a float64, psi geom.Vec3, dirs *mesh.Sphere, numRadii, order int) (complex128, error) {
	switch mode {
	case ReferenceAnalytic, "":
		return AnalyticFourier(q, a, psi), nil
	case ReferenceGrid:
		if dirs == nil {
			return 0, fmt.Errorf("grid reference needs a sphere mesh")
		}
		return GridFourier(q, a, psi, dirs, numRadii)
	case ReferenceQuadrature:
		return QuadratureFourier(q, a, psi, order)
	default:
		return 0, fmt.Errorf("%w: reference mode %q", ErrUnknownMethod, mode)
	}
}

// RelativeError is |got - want| / |want|.
func RelativeError(got, want complex128) float64 {
	return cmplx.Abs(got-want) / cmplx.Abs(want)
}
