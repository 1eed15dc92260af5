package scatter

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/mesh"
)

var smallExample = Medium{K: 1, Q: 50, A: 0.1, N: 9}

func finite(z complex128) bool {
	return !cmplx.IsNaN(z) && !cmplx.IsInf(z)
}

func unit(t *testing.T, x, y, z float64) geom.Vec3 {
	t.Helper()
	v, err := geom.Real(x, y, z).Unit()
	require.NoError(t, err)
	return v
}

func TestMedium_Validate(t *testing.T) {
	tests := []struct {
		name string
		m    Medium
		ok   bool
	}{
		{"small example", smallExample, true},
		{"q equals k squared", Medium{K: 1, Q: 1, A: 1, N: 4}, true},
		{"zero radius", Medium{K: 1, Q: 3, A: 0, N: 4}, false},
		{"negative k", Medium{K: -1, Q: 3, A: 1, N: 4}, false},
		{"zero order", Medium{K: 1, Q: 3, A: 1, N: 0}, false},
		{"NaN q", Medium{K: 1, Q: math.NaN(), A: 1, N: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMedium)
			}
		})
	}
}

func TestSolveDegree_BoundaryMatching(t *testing.T) {
	media := []Medium{
		smallExample,
		{K: 1, Q: 3, A: 1, N: 9},
		{K: 2, Q: 0.5, A: 0.7, N: 6},
		{K: 1.5, Q: -4, A: 0.3, N: 5},
	}
	alpha := unit(t, 0.2, -0.5, 0.8)

	for _, m := range media {
		t.Run(m.String(), func(t *testing.T) {
			s, err := NewSolver(m)
			require.NoError(t, err)
			r := s.Radial()
			kappa := m.Kappa()
			for l := 0; l < m.N; l++ {
				in, ex, a0, err := s.SolveDegree(alpha, l)
				require.NoError(t, err)
				require.Len(t, ex, 2*l+1)
				for i := range a0 {
					// field: j A - y B = a0 j
					t1, t2, rhs := r.J[l]*in[i], r.Y[l]*ex[i], a0[i]*r.J[l]
					scale := math.Max(1e-300, math.Max(cmplx.Abs(t1), math.Max(cmplx.Abs(t2), cmplx.Abs(rhs))))
					assert.InDelta(t, 0, cmplx.Abs(t1-t2-rhs)/scale, 1e-10, "field l=%d i=%d", l, i)

					// derivative: kappa j' A - y' B = a0 j'
					d1, d2, drhs := kappa*r.JP[l]*in[i], r.YP[l]*ex[i], a0[i]*r.JP[l]
					scale = math.Max(1e-300, math.Max(cmplx.Abs(d1), math.Max(cmplx.Abs(d2), cmplx.Abs(drhs))))
					assert.InDelta(t, 0, cmplx.Abs(d1-d2-drhs)/scale, 1e-10, "derivative l=%d i=%d", l, i)
				}
			}
		})
	}
}

func TestSolve_MatchesSolveDegree(t *testing.T) {
	s, err := NewSolver(smallExample)
	require.NoError(t, err)
	alpha := geom.Real(0, 0, 1)
	c, err := s.Solve(alpha)
	require.NoError(t, err)
	require.NoError(t, c.Table.Validate())

	for l := 0; l < smallExample.N; l++ {
		_, ex, _, err := s.SolveDegree(alpha, l)
		require.NoError(t, err)
		for i, v := range ex {
			assert.Equal(t, v, c.Table.Row(l)[i])
		}
	}
}

func TestAmplitude_Linear(t *testing.T) {
	s, err := NewSolver(Medium{K: 1, Q: 3, A: 1, N: 7})
	require.NoError(t, err)
	c, err := s.Solve(unit(t, 1, 1, 1))
	require.NoError(t, err)

	betas := []geom.Vec3{
		geom.Real(1, 0, 0),
		unit(t, -0.3, 0.4, 0.2),
		mesh.Oblique(5, mesh.DefaultPsiMagnitude).Thetap,
	}
	for _, beta := range betas {
		a1, err := Amplitude(beta, c)
		require.NoError(t, err)
		a2, err := Amplitude(beta, c.Scaled(2))
		require.NoError(t, err)
		a3, err := Amplitude(beta, c.Scaled(-1.5i))
		require.NoError(t, err)

		tol := 1e-12 * math.Max(1, cmplx.Abs(a1))
		assert.InDelta(t, 0, cmplx.Abs(a2-2*a1), tol)
		assert.InDelta(t, 0, cmplx.Abs(a3-(-1.5i)*a1), 2*tol)
	}

	// scaling never touches the original table
	before := c.Table.Clone()
	_ = c.Scaled(3)
	assert.Equal(t, before.Dense(), c.Table.Dense())
}

func TestSmallExample_Finite(t *testing.T) {
	s, err := NewSolver(smallExample)
	require.NoError(t, err)

	alpha := geom.Real(0, 0, 1)
	x := geom.Real(1, 0, 0)
	c, err := s.Solve(alpha)
	require.NoError(t, err)

	beta := x.Scale(complex(1/x.Norm(), 0))
	amp, err := Amplitude(beta, c)
	require.NoError(t, err)
	assert.True(t, finite(amp), "amplitude %v", amp)

	u, err := s.TotalField(x, c)
	require.NoError(t, err)
	assert.True(t, finite(u), "total field %v", u)
	assert.NotEqual(t, s.Incident(alpha, x), u)
}

func TestTotalField_DecouplesAsQVanishes(t *testing.T) {
	alpha := geom.Real(0, 0, 1)
	x := geom.Real(1, 0, 0)

	prev := math.Inf(1)
	for _, q := range []float64{1e-1, 1e-3, 1e-5} {
		s, err := NewSolver(Medium{K: 1, Q: q, A: 0.1, N: 9})
		require.NoError(t, err)
		c, err := s.Solve(alpha)
		require.NoError(t, err)
		u, err := s.TotalField(x, c)
		require.NoError(t, err)

		diff := cmplx.Abs(u - s.Incident(alpha, x))
		assert.Less(t, diff, prev, "q=%g", q)
		prev = diff
	}

	s, err := NewSolver(Medium{K: 1, Q: 0, A: 0.1, N: 9})
	require.NoError(t, err)
	c, err := s.Solve(alpha)
	require.NoError(t, err)
	u, err := s.TotalField(x, c)
	require.NoError(t, err)
	assert.Equal(t, s.Incident(alpha, x), u)
}

func TestSolve_Degenerate(t *testing.T) {
	// kappa = 0 makes j_l(0) vanish for every l >= 1
	s, err := NewSolver(Medium{K: 1, Q: 1, A: 1, N: 4})
	require.NoError(t, err)

	_, err = s.Solve(geom.Real(0, 0, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateSystem))

	var dse *DegenerateSystemError
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, 1, dse.Degree)

	_, _, _, err = s.SolveDegree(geom.Real(0, 0, 1), 0)
	assert.NoError(t, err, "degree 0 stays regular")
}

func TestSolve_InvalidDirection(t *testing.T) {
	s, err := NewSolver(smallExample)
	require.NoError(t, err)
	_, err = s.Solve(geom.Real(1, 1, 0))
	assert.ErrorIs(t, err, geom.ErrInvalidDirection)

	_, err = s.Solve(geom.Vec3{})
	assert.Error(t, err)
}

func TestSolveAll_Deterministic(t *testing.T) {
	s, err := NewSolver(smallExample)
	require.NoError(t, err)
	sphere, err := mesh.Banded(3)
	require.NoError(t, err)
	dirs := sphere.Directions()

	got, err := s.SolveAll(context.Background(), dirs, 4)
	require.NoError(t, err)
	require.Len(t, got, len(dirs))
	for i, d := range dirs {
		want, err := s.Solve(d)
		require.NoError(t, err)
		assert.Equal(t, d, got[i].Alpha)
		assert.Equal(t, want.Table.Dense(), got[i].Table.Dense())
	}

	bad := append([]geom.Vec3{geom.Real(2, 0, 0)}, dirs...)
	_, err = s.SolveAll(context.Background(), bad, 2)
	assert.ErrorIs(t, err, geom.ErrInvalidDirection)
}

func TestSampler_MatchesTotalField(t *testing.T) {
	s, err := NewSolver(smallExample)
	require.NoError(t, err)
	sphere, err := mesh.Banded(3)
	require.NoError(t, err)
	shell, err := mesh.Annulus(sphere, 1.1*smallExample.A, 1.2, 2)
	require.NoError(t, err)

	coeffs, err := s.SolveAll(context.Background(), sphere.Directions(), 0)
	require.NoError(t, err)
	sp, err := NewSampler(context.Background(), s, shell.Points(), coeffs, 3)
	require.NoError(t, err)
	require.Equal(t, shell.Len(), sp.Len())
	require.Equal(t, sphere.Len(), sp.Directions())

	m := sp.Matrix()
	for _, i := range []int{0, 7, shell.Len() - 1} {
		for _, l := range []int{0, 5, sphere.Len() - 1} {
			want, err := s.TotalField(shell.At(i), coeffs[l])
			require.NoError(t, err)
			assert.InDelta(t, 0, cmplx.Abs(m[i][l]-want), 1e-12*math.Max(1, cmplx.Abs(want)))
			assert.Equal(t, m[i][l], sp.U(i)[l])
		}
	}

	_, err = NewSampler(context.Background(), s, nil, coeffs, 1)
	assert.ErrorIs(t, err, ErrMismatch)
	_, err = NewSampler(context.Background(), s, []geom.Vec3{{}}, coeffs, 1)
	assert.Error(t, err)
}

func TestSolveSummed(t *testing.T) {
	s, err := NewSolver(Medium{K: 1, Q: 3, A: 1, N: 9})
	require.NoError(t, err)
	alpha := geom.Real(0, 1, 0)

	coeffs, err := s.SolveSummed(alpha)
	require.NoError(t, err)
	require.Len(t, coeffs, 9)
	for l, c := range coeffs {
		assert.True(t, finite(c), "l=%d", l)
	}

	beta := unit(t, 1, 1, 1)
	a, err := AmplitudeSummed(beta, coeffs)
	require.NoError(t, err)
	assert.True(t, finite(a))

	u, err := s.TotalFieldSummed(geom.Real(1, 1, 1), alpha, coeffs)
	require.NoError(t, err)
	assert.True(t, finite(u))

	_, err = s.SolveSummed(mesh.Oblique(3, 1.5).Theta)
	assert.ErrorIs(t, err, geom.ErrInvalidDirection)

	free, err := NewSolver(Medium{K: 1, Q: 0, A: 1, N: 9})
	require.NoError(t, err)
	zero, err := free.SolveSummed(alpha)
	require.NoError(t, err)
	for _, c := range zero {
		assert.Equal(t, complex128(0), c)
	}
}
