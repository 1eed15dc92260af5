package scatter

import (
	"context"
	"fmt"
	"math/cmplx"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/parallel"
	"github.com/san-kum/invscat/internal/special"
)

// Amplitude is the scattering amplitude A(beta, alpha) = sum_{l,m}
// A_lm(alpha) Y_lm(beta). beta may be a complex direction.
func Amplitude(beta geom.Vec3, c *Coefficients) (complex128, error) {
	ang, err := directionAngles(beta)
	if err != nil {
		return 0, err
	}
	y := special.ComplexYTable(c.Table.Order(), ang)
	return c.Table.MulSum(y), nil
}

// AmplitudeSummed is the real-angle amplitude sum_l A_l sum_m Y_lm(beta).
func AmplitudeSummed(beta geom.Vec3, coeffs []complex128) (complex128, error) {
	if err := geom.ValidateDirection(beta, DirectionTolerance); err != nil {
		return 0, err
	}
	sums, err := special.RealYSums(len(coeffs), beta)
	if err != nil {
		return 0, err
	}
	var a complex128
	for l, c := range coeffs {
		a += c * sums[l]
	}
	return a, nil
}

// Incident is the plane wave exp(i k alpha.x).
func (s *Solver) Incident(alpha, x geom.Vec3) complex128 {
	return cmplx.Exp(1i * complex(s.medium.K, 0) * alpha.Dot(x))
}

// pointBasis returns y_l(|x|) and the harmonic table at x/|x|.
func (s *Solver) pointBasis(x geom.Vec3) ([]complex128, *special.Table, error) {
	r := x.Norm()
	if r == 0 {
		return nil, nil, fmt.Errorf("field at the origin: %w", special.ErrSingularArgument)
	}
	y, _, err := special.SphericalY(s.medium.N, complex(r, 0))
	if err != nil {
		return nil, nil, err
	}
	ang, err := geom.ToAngles(x.Scale(complex(1/r, 0)))
	if err != nil {
		return nil, nil, err
	}
	return y, special.ComplexYTable(s.medium.N, ang), nil
}

// TotalField is u(x, alpha) = exp(i k alpha.x) + sum_l y_l(|x|) sum_m
// A_lm Y_lm(x/|x|) for the coefficients of alpha.
func (s *Solver) TotalField(x geom.Vec3, c *Coefficients) (complex128, error) {
	if c.Table.Order() != s.medium.N {
		return 0, fmt.Errorf("%w: coefficients of order %d, solver order %d", ErrMismatch, c.Table.Order(), s.medium.N)
	}
	y, yt, err := s.pointBasis(x)
	if err != nil {
		return 0, err
	}
	return s.Incident(c.Alpha, x) + scattered(y, c.Table, yt), nil
}

// TotalFieldSummed is the real-angle total field.
func (s *Solver) TotalFieldSummed(x, alpha geom.Vec3, coeffs []complex128) (complex128, error) {
	r := x.Norm()
	if r == 0 {
		return 0, fmt.Errorf("field at the origin: %w", special.ErrSingularArgument)
	}
	y, _, err := special.SphericalY(len(coeffs), complex(r, 0))
	if err != nil {
		return 0, err
	}
	sums, err := special.RealYSums(len(coeffs), x.Scale(complex(1/r, 0)))
	if err != nil {
		return 0, err
	}
	u := s.Incident(alpha, x)
	for l, c := range coeffs {
		u += c * y[l] * sums[l]
	}
	return u, nil
}

func scattered(y []complex128, coeff, harmonics *special.Table) complex128 {
	var u complex128
	for l := range y {
		u += y[l] * coeff.RowDot(l, harmonics)
	}
	return u
}

// Sampler holds the total field of every incident direction at every
// sample point. The radial values and harmonic tables of each point are
// evaluated once, at construction.
type Sampler struct {
	points []geom.Vec3
	dirs   []geom.Vec3
	field  [][]complex128
}

// NewSampler evaluates u(x_i, alpha_l) for all points and all coefficient
// sets, spread over workers goroutines.
func NewSampler(ctx context.Context, s *Solver, points []geom.Vec3, coeffs []*Coefficients, workers int) (*Sampler, error) {
	if len(points) == 0 || len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: sampler needs points and directions", ErrMismatch)
	}
	for l, c := range coeffs {
		if c == nil || c.Table.Order() != s.medium.N {
			return nil, fmt.Errorf("%w: coefficient set %d does not match solver order %d", ErrMismatch, l, s.medium.N)
		}
	}

	sp := &Sampler{
		points: append([]geom.Vec3(nil), points...),
		dirs:   make([]geom.Vec3, len(coeffs)),
		field:  make([][]complex128, len(points)),
	}
	for l, c := range coeffs {
		sp.dirs[l] = c.Alpha
	}

	err := parallel.Each(ctx, len(points), workers, func(_ context.Context, i int) error {
		x := sp.points[i]
		y, yt, err := s.pointBasis(x)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		row := make([]complex128, len(coeffs))
		for l, c := range coeffs {
			row[l] = s.Incident(c.Alpha, x) + scattered(y, c.Table, yt)
		}
		sp.field[i] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// Len is the number of sample points.
func (sp *Sampler) Len() int { return len(sp.points) }

// Directions is the number of incident directions.
func (sp *Sampler) Directions() int { return len(sp.dirs) }

// Point returns sample point i.
func (sp *Sampler) Point(i int) geom.Vec3 { return sp.points[i] }

// U returns u(x_i, alpha_l) for every incident direction l. The slice is
// owned by the sampler.
func (sp *Sampler) U(i int) []complex128 { return sp.field[i] }

// Matrix returns a copy of the (point x direction) total-field matrix.
func (sp *Sampler) Matrix() [][]complex128 {
	out := make([][]complex128, len(sp.field))
	for i, row := range sp.field {
		out[i] = append([]complex128(nil), row...)
	}
	return out
}
