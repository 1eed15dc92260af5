package inverse

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/parallel"
	"github.com/san-kum/invscat/internal/scatter"
)

// Objective is the mismatch between the synthesized field and exp(i theta.x)
// on the annulus:
//
//	J(nu) = dAnnulus * sum_i |exp(-i theta.x_i) sum_l nu_l u(x_i, alpha_l) dSphere - 1|^2
//
// The weights W_il = exp(-i theta.x_i) u(x_i, alpha_l) dSphere are computed
// once; every evaluation after that is a dense matrix-vector product.
type Objective struct {
	w         [][]complex128
	theta     geom.Vec3
	dSphere   float64
	dAnnulus  float64
	workers   int
	overflown bool
}

// NewObjective precomputes the weights for the probe direction theta.
func NewObjective(sp *scatter.Sampler, theta geom.Vec3, dSphere, dAnnulus float64, workers int) (*Objective, error) {
	if sp == nil || sp.Len() == 0 || sp.Directions() == 0 {
		return nil, ErrEmptyProblem
	}
	if err := geom.ValidateDirection(theta, scatter.DirectionTolerance); err != nil {
		return nil, fmt.Errorf("probe theta: %w", err)
	}

	o := &Objective{
		w:        make([][]complex128, sp.Len()),
		theta:    theta,
		dSphere:  dSphere,
		dAnnulus: dAnnulus,
		workers:  workers,
	}
	parallel.For(sp.Len(), 16, workers, func(start, end int) {
		for i := start; i < end; i++ {
			phase := cmplx.Exp(-1i*theta.Dot(sp.Point(i))) * complex(dSphere, 0)
			o.w[i] = cmplxs.ScaleTo(make([]complex128, sp.Directions()), phase, sp.U(i))
		}
	})
	for _, row := range o.w {
		if cmplxs.HasNaN(row) || hasInf(row) {
			o.overflown = true
			break
		}
	}
	return o, nil
}

func hasInf(s []complex128) bool {
	for _, v := range s {
		if cmplx.IsInf(v) {
			return true
		}
	}
	return false
}

// Dim is the number of complex unknowns (incident directions).
func (o *Objective) Dim() int { return len(o.w[0]) }

// Points is the number of annulus points.
func (o *Objective) Points() int { return len(o.w) }

// AnnulusElement is dAnnulus.
func (o *Objective) AnnulusElement() float64 { return o.dAnnulus }

// ZeroValue is J(0) = dAnnulus * Points(), the value no minimizer may end
// above.
func (o *Objective) ZeroValue() float64 { return o.dAnnulus * float64(len(o.w)) }

// Overflowed reports non-finite weights: the probe magnitude is too large
// for the annulus radius. J is meaningless in that case.
func (o *Objective) Overflowed() bool { return o.overflown }

// Weights returns a copy of W.
func (o *Objective) Weights() [][]complex128 {
	out := make([][]complex128, len(o.w))
	for i, row := range o.w {
		out[i] = append([]complex128(nil), row...)
	}
	return out
}

func (o *Objective) check(nu []complex128) {
	if len(nu) != o.Dim() {
		panic(fmt.Sprintf("%v: got %d, want %d", ErrDimension, len(nu), o.Dim()))
	}
}

// Residuals returns r_i = sum_l nu_l W_il - 1.
func (o *Objective) Residuals(nu []complex128) []complex128 {
	o.check(nu)
	r := make([]complex128, len(o.w))
	parallel.For(len(o.w), 64, o.workers, func(start, end int) {
		for i := start; i < end; i++ {
			var s complex128
			for l, w := range o.w[i] {
				s += nu[l] * w
			}
			r[i] = s - 1
		}
	})
	return r
}

// Value is J(nu). It is never negative and J(0) = dAnnulus * Points().
func (o *Objective) Value(nu []complex128) float64 {
	r := o.Residuals(nu)
	var sum float64
	for _, v := range r {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return o.dAnnulus * sum
}

// Gradient returns dJ/dRe(nu_l) + i dJ/dIm(nu_l) = 2 dAnnulus sum_i r_i conj(W_il).
func (o *Objective) Gradient(nu []complex128) []complex128 {
	r := o.Residuals(nu)
	g := make([]complex128, o.Dim())
	for i, row := range o.w {
		for l, w := range row {
			g[l] += r[i] * cmplx.Conj(w)
		}
	}
	cmplxs.ScaleReal(2*o.dAnnulus, g)
	return g
}

// Split lays a complex vector out as [Re nu..., Im nu...].
func Split(nu []complex128) []float64 {
	x := make([]float64, 2*len(nu))
	cmplxs.Real(x[:len(nu)], nu)
	cmplxs.Imag(x[len(nu):], nu)
	return x
}

// Join is the inverse of Split.
func Join(x []float64) []complex128 {
	n := len(x) / 2
	return cmplxs.Complex(make([]complex128, n), x[:n], x[n:])
}

// Func evaluates J on the split real layout.
func (o *Objective) Func(x []float64) float64 {
	return o.Value(Join(x))
}

// Grad writes the gradient of Func into dst.
func (o *Objective) Grad(dst, x []float64) {
	g := o.Gradient(Join(x))
	n := len(g)
	if len(dst) != 2*n {
		panic("inverse: gradient length mismatch")
	}
	cmplxs.Real(dst[:n], g)
	cmplxs.Imag(dst[n:], g)
}

// ResidualVector writes sqrt(dAnnulus) [Re r; Im r] into dst, whose squared
// norm is J. Used by the Levenberg-Marquardt method.
func (o *Objective) ResidualVector(dst, x []float64) {
	r := o.Residuals(Join(x))
	s := math.Sqrt(o.dAnnulus)
	n := len(r)
	for i, v := range r {
		dst[i] = s * real(v)
		dst[n+i] = s * imag(v)
	}
}

// DirectRcond is the singular-value cutoff of the direct solve, relative to
// the largest singular value.
const DirectRcond = 1e-12

// Direct is the minimum-norm minimizer of J over the singular values kept
// by DirectRcond.
type Direct struct {
	Nu   []complex128
	Rank int
	Cond float64
}

// LeastSquares minimizes J exactly. J is quadratic in nu, so the minimizer
// solves the real block system
//
//	[Re W  -Im W] [Re nu]   [1]
//	[Im W   Re W] [Im nu] = [0]
//
// in the least-squares sense, through a truncated SVD.
func (o *Objective) LeastSquares() (*Direct, error) {
	if o.overflown {
		return nil, fmt.Errorf("%w: %w", ErrDirectSolve, ErrOverflow)
	}
	np, nd := o.Points(), o.Dim()
	a := mat.NewDense(2*np, 2*nd, nil)
	b := mat.NewVecDense(2*np, nil)
	for i, row := range o.w {
		for l, w := range row {
			a.Set(i, l, real(w))
			a.Set(i, nd+l, -imag(w))
			a.Set(np+i, l, imag(w))
			a.Set(np+i, nd+l, real(w))
		}
		b.SetVec(i, 1)
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, fmt.Errorf("%w: SVD did not converge", ErrDirectSolve)
	}
	rank := svd.Rank(DirectRcond)
	if rank < 1 {
		return nil, fmt.Errorf("%w: the weights vanish", ErrDirectSolve)
	}
	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)
	return &Direct{Nu: Join(x.RawVector().Data), Rank: rank, Cond: svd.Cond()}, nil
}
