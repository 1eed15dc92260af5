package inverse

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/parallel"
	"github.com/san-kum/invscat/internal/scatter"
)

// Recover estimates the Fourier transform of the potential at psi =
// thetap - theta from the optimized vector:
//
//	F = -4pi dSphere sum_l A(thetap, alpha_l) nu_l
//
// A non-finite F is reported as ErrOverflow.
func Recover(ctx context.Context, coeffs []*scatter.Coefficients, nu []complex128, thetap geom.Vec3, dSphere float64, workers int) (complex128, error) {
	if len(coeffs) != len(nu) {
		return 0, fmt.Errorf("%w: %d coefficient sets, %d weights", ErrDimension, len(coeffs), len(nu))
	}
	amps := make([]complex128, len(coeffs))
	err := parallel.Each(ctx, len(coeffs), workers, func(_ context.Context, l int) error {
		a, err := scatter.Amplitude(thetap, coeffs[l])
		if err != nil {
			return fmt.Errorf("amplitude %d: %w", l, err)
		}
		amps[l] = a
		return nil
	})
	if err != nil {
		return 0, err
	}

	var sum complex128
	for l, a := range amps {
		sum += a * nu[l]
	}
	f := complex(-4*math.Pi*dSphere, 0) * sum
	if cmplx.IsNaN(f) || cmplx.IsInf(f) {
		return 0, fmt.Errorf("%w: recovered transform is %v", ErrOverflow, f)
	}
	return f, nil
}
