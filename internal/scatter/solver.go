package scatter

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/parallel"
	"github.com/san-kum/invscat/internal/special"
)

// DirectionTolerance bounds |v.v - 1| for incident and observation
// directions.
const DirectionTolerance = 1e-9

// degeneracyTolerance is the relative size of the determinant, against its
// two products, below which a boundary system counts as singular.
const degeneracyTolerance = 1e-13

// Solver matches the interior solution j_l(kappa r) to the exterior
// solution y_l(r) at the ball boundary. It is immutable after NewSolver and
// safe for concurrent use.
type Solver struct {
	medium Medium
	kappa  complex128
	radial *special.Radial

	// Per degree: det of the boundary system and the factors mapping the
	// incident coefficient a0 to the interior and exterior unknowns.
	det      []complex128
	interior []complex128
	exterior []complex128
	singular []bool
}

// NewSolver evaluates the radial basis of m once.
func NewSolver(m Medium) (*Solver, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	kappa := m.Kappa()
	radial, err := special.NewRadial(m.N, kappa, m.A, m.A)
	if err != nil {
		return nil, fmt.Errorf("radial basis: %w", err)
	}

	s := &Solver{
		medium:   m,
		kappa:    kappa,
		radial:   radial,
		det:      make([]complex128, m.N),
		interior: make([]complex128, m.N),
		exterior: make([]complex128, m.N),
		singular: make([]bool, m.N),
	}
	for l := 0; l < m.N; l++ {
		j, jp := radial.J[l], radial.JP[l]
		y, yp := radial.Y[l], radial.YP[l]

		// [[j, -y], [kappa j', -y']] [A; B] = a0 [j; j']
		p1, p2 := -j*yp, kappa*jp*y
		det := p1 + p2
		s.det[l] = det

		scale := math.Max(cmplx.Abs(p1), cmplx.Abs(p2))
		if cmplx.Abs(det) <= degeneracyTolerance*scale || det == 0 || cmplx.IsNaN(det) {
			s.singular[l] = true
			continue
		}
		s.interior[l] = (-j*yp + y*jp) / det
		s.exterior[l] = j * jp * (1 - kappa) / det
	}
	return s, nil
}

func (s *Solver) Medium() Medium { return s.medium }

// Order is the truncation order n.
func (s *Solver) Order() int { return s.medium.N }

// Radial exposes the boundary values of the radial basis.
func (s *Solver) Radial() *special.Radial { return s.radial }

func (s *Solver) checkDegree(l int) error {
	if s.singular[l] {
		return &DegenerateSystemError{Degree: l, Det: s.det[l]}
	}
	return nil
}

func directionAngles(v geom.Vec3) (geom.Angles, error) {
	if err := geom.ValidateDirection(v, DirectionTolerance); err != nil {
		return geom.Angles{}, err
	}
	return geom.ToAngles(v)
}

// IncidentCoefficients expands exp(i alpha.x) in the scattering harmonics:
// a0[l,m] = 4pi i^l conj(Y_lm(alpha)).
func (s *Solver) IncidentCoefficients(alpha geom.Vec3) (*special.Table, error) {
	ang, err := directionAngles(alpha)
	if err != nil {
		return nil, err
	}
	y := special.ComplexYTable(s.medium.N, ang)
	a0 := special.NewTable(s.medium.N)
	for l := 0; l < s.medium.N; l++ {
		c := 4 * math.Pi * special.IPow(l)
		src, dst := y.Row(l), a0.Row(l)
		for i, v := range src {
			dst[i] = c * cmplx.Conj(v)
		}
	}
	return a0, nil
}

// Solve returns the exterior coefficients of the field scattered from the
// incident direction alpha. Any singular degree aborts the solve.
func (s *Solver) Solve(alpha geom.Vec3) (*Coefficients, error) {
	a0, err := s.IncidentCoefficients(alpha)
	if err != nil {
		return nil, err
	}
	out := special.NewTable(s.medium.N)
	for l := 0; l < s.medium.N; l++ {
		if err := s.checkDegree(l); err != nil {
			return nil, err
		}
		src, dst := a0.Row(l), out.Row(l)
		for i, v := range src {
			dst[i] = v * s.exterior[l]
		}
	}
	return &Coefficients{Alpha: alpha, Table: out}, nil
}

// SolveDegree returns both unknowns of degree l for every order, indexed
// m+l, together with the incident coefficients they were solved for.
func (s *Solver) SolveDegree(alpha geom.Vec3, l int) (interior, exterior, incident []complex128, err error) {
	if l < 0 || l >= s.medium.N {
		return nil, nil, nil, fmt.Errorf("%w: degree %d outside [0, %d)", ErrMismatch, l, s.medium.N)
	}
	if err := s.checkDegree(l); err != nil {
		return nil, nil, nil, err
	}
	a0, err := s.IncidentCoefficients(alpha)
	if err != nil {
		return nil, nil, nil, err
	}
	incident = append([]complex128(nil), a0.Row(l)...)
	interior = make([]complex128, len(incident))
	exterior = make([]complex128, len(incident))
	for i, v := range incident {
		interior[i] = v * s.interior[l]
		exterior[i] = v * s.exterior[l]
	}
	return interior, exterior, incident, nil
}

// SolveSummed is the real-angle model: one coefficient per degree, driven
// by a0[l] = 4pi i^l conj(sum_m Y_lm(alpha)) with the standard harmonics.
// alpha must be real.
func (s *Solver) SolveSummed(alpha geom.Vec3) ([]complex128, error) {
	if !alpha.IsReal() {
		return nil, fmt.Errorf("%w: real-angle model needs a real direction, got %v", geom.ErrInvalidDirection, alpha)
	}
	if err := geom.ValidateDirection(alpha, DirectionTolerance); err != nil {
		return nil, err
	}
	sums, err := special.RealYSums(s.medium.N, alpha)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, s.medium.N)
	for l := range out {
		if err := s.checkDegree(l); err != nil {
			return nil, err
		}
		a0 := 4 * math.Pi * special.IPow(l) * cmplx.Conj(sums[l])
		out[l] = a0 * s.exterior[l]
	}
	return out, nil
}

// SolveAll solves every incident direction into its own slot, using up to
// workers goroutines. The first failure is returned.
func (s *Solver) SolveAll(ctx context.Context, dirs []geom.Vec3, workers int) ([]*Coefficients, error) {
	out := make([]*Coefficients, len(dirs))
	err := parallel.Each(ctx, len(dirs), workers, func(_ context.Context, i int) error {
		c, err := s.Solve(dirs[i])
		if err != nil {
			return fmt.Errorf("direction %d: %w", i, err)
		}
		out[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Coefficients are the exterior expansion coefficients for one incident
// direction. Tables are never shared between directions.
type Coefficients struct {
	Alpha geom.Vec3
	Table *special.Table
}

// Scaled returns a fresh coefficient set multiplied by f.
func (c *Coefficients) Scaled(f complex128) *Coefficients {
	return &Coefficients{Alpha: c.Alpha, Table: c.Table.Scaled(f)}
}

// Magnitudes returns |A_l,m| as a padded n x (2n+1) matrix.
func (c *Coefficients) Magnitudes() [][]float64 {
	dense := c.Table.Dense()
	out := make([][]float64, len(dense))
	for l, row := range dense {
		out[l] = make([]float64, len(row))
		for i, v := range row {
			out[l][i] = cmplx.Abs(v)
		}
	}
	return out
}
