package inverse_test

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/inverse"
	"github.com/san-kum/invscat/internal/mesh"
	"github.com/san-kum/invscat/internal/scatter"
	"github.com/san-kum/invscat/internal/special"
)

type fixture struct {
	sphere *mesh.Sphere
	shell  *mesh.Shell
	probe  mesh.Probe
	coeffs []*scatter.Coefficients
	obj    *inverse.Objective
}

func newFixture(m scatter.Medium, mphi, radii int, magnitude float64) *fixture {
	ctx := context.Background()
	solver, err := scatter.NewSolver(m)
	Expect(err).NotTo(HaveOccurred())
	sphere, err := mesh.Banded(mphi)
	Expect(err).NotTo(HaveOccurred())
	shell, err := mesh.Annulus(sphere, 1.1*m.A, 1.2, radii)
	Expect(err).NotTo(HaveOccurred())
	coeffs, err := solver.SolveAll(ctx, sphere.Directions(), 2)
	Expect(err).NotTo(HaveOccurred())
	sampler, err := scatter.NewSampler(ctx, solver, shell.Points(), coeffs, 2)
	Expect(err).NotTo(HaveOccurred())

	probe := mesh.Oblique(magnitude, mesh.DefaultPsiMagnitude)
	obj, err := inverse.NewObjective(sampler, probe.Theta, sphere.Element(), shell.Element(), 2)
	Expect(err).NotTo(HaveOccurred())
	return &fixture{sphere: sphere, shell: shell, probe: probe, coeffs: coeffs, obj: obj}
}

func randomVector(rng *rand.Rand, n int, scale float64) []complex128 {
	nu := make([]complex128, n)
	for i := range nu {
		nu[i] = complex(scale*rng.NormFloat64(), scale*rng.NormFloat64())
	}
	return nu
}

var _ = Describe("Objective", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(scatter.Medium{K: 1, Q: 50, A: 0.1, N: 5}, 3, 2, 2)
	})

	It("has one unknown per direction and one residual per point", func() {
		Expect(f.obj.Dim()).To(Equal(f.sphere.Len()))
		Expect(f.obj.Points()).To(Equal(f.shell.Len()))
		Expect(f.obj.Overflowed()).To(BeFalse())
	})

	It("equals dAnnulus times the point count at zero", func() {
		zero := make([]complex128, f.obj.Dim())
		want := f.shell.Element() * float64(f.shell.Len())
		Expect(f.obj.Value(zero)).To(BeNumerically("~", want, 1e-12*want))
	})

	It("is never negative", func() {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 25; i++ {
			nu := randomVector(rng, f.obj.Dim(), math.Pow(10, float64(i%5-2)))
			Expect(f.obj.Value(nu)).To(BeNumerically(">=", 0))
		}
	})

	It("matches the squared norm of the residual vector", func() {
		rng := rand.New(rand.NewSource(3))
		x := inverse.Split(randomVector(rng, f.obj.Dim(), 0.1))
		dst := make([]float64, 2*f.obj.Points())
		f.obj.ResidualVector(dst, x)
		j := f.obj.Func(x)
		Expect(floats.Dot(dst, dst)).To(BeNumerically("~", j, 1e-10*math.Max(1, j)))
	})

	It("has an analytic gradient that agrees with central differences", func() {
		rng := rand.New(rand.NewSource(11))
		x := inverse.Split(randomVector(rng, f.obj.Dim(), 0.05))

		got := make([]float64, len(x))
		f.obj.Grad(got, x)
		want := fd.Gradient(nil, f.obj.Func, x, &fd.Settings{Formula: fd.Central})

		scale := math.Max(1, floats.Norm(want, math.Inf(1)))
		for i := range got {
			Expect(got[i]).To(BeNumerically("~", want[i], 1e-5*scale), "component %d", i)
		}
	})

	It("round-trips the split layout", func() {
		nu := []complex128{1 + 2i, -3, 0.5i}
		Expect(inverse.Join(inverse.Split(nu))).To(Equal(nu))
	})
})

var _ = Describe("Optimizer", func() {
	var (
		f     *fixture
		start []complex128
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(scatter.Medium{K: 1, Q: 50, A: 0.1, N: 5}, 3, 2, 2)
		var err error
		start, err = inverse.StartVector(inverse.StartHarmonic, 5, f.sphere.Directions())
		Expect(err).NotTo(HaveOccurred())
	})

	minimize := func(opts inverse.Options) *inverse.Result {
		opt, err := inverse.NewOptimizer(opts)
		Expect(err).NotTo(HaveOccurred())
		res, err := opt.Minimize(ctx, f.obj, start)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Nu).To(HaveLen(f.obj.Dim()))
		Expect(math.IsNaN(res.F)).To(BeFalse())
		return res
	}

	It("solves the quadratic objective directly", func() {
		opts := inverse.DefaultOptions()
		opts.Method = inverse.MethodLeastSquares
		res := minimize(opts)
		Expect(res.Converged).To(BeTrue())
		Expect(res.F).To(BeNumerically("<", res.F0))
		Expect(res.F).To(BeNumerically("~", f.obj.Value(res.Nu), 1e-12))

		g := inverse.Split(f.obj.Gradient(res.Nu))
		zero := inverse.Split(f.obj.Gradient(make([]complex128, f.obj.Dim())))
		Expect(floats.Norm(g, 2)).To(BeNumerically("<", 1e-6*floats.Norm(zero, 2)))
	})

	It("reaches no lower than the direct solve with BFGS", func() {
		var steps []inverse.Progress
		opts := inverse.DefaultOptions()
		opts.Progress = func(p inverse.Progress) { steps = append(steps, p) }
		res := minimize(opts)
		Expect(res.F).To(BeNumerically("<=", res.F0))
		Expect(res.History).NotTo(BeEmpty())
		Expect(steps).To(HaveLen(len(res.History)))

		opts = inverse.DefaultOptions()
		opts.Method = inverse.MethodLeastSquares
		best := minimize(opts)
		Expect(best.F).To(BeNumerically("<=", res.F*(1+1e-9)+1e-12))
	})

	DescribeTable("every method improves on the start",
		func(m inverse.Method) {
			opts := inverse.DefaultOptions()
			opts.Method = m
			opts.MaxIterations = 200
			res := minimize(opts)
			Expect(res.Method).To(Equal(m))
			Expect(res.F).To(BeNumerically("<=", res.F0))
			Expect(res.FZero).To(Equal(f.obj.ZeroValue()))
			Expect(res.F).To(BeNumerically("<=", res.FZero))
		},
		Entry("bfgs", inverse.MethodBFGS),
		Entry("bfgs with finite differences", inverse.MethodBFGSFD),
		Entry("lbfgs", inverse.MethodLBFGS),
		Entry("nelder-mead", inverse.MethodNelderMead),
		Entry("levenberg-marquardt", inverse.MethodLM),
		Entry("least squares", inverse.MethodLeastSquares),
	)

	It("reports the direct solve's rank and conditioning", func() {
		opts := inverse.DefaultOptions()
		opts.Method = inverse.MethodLeastSquares
		res := minimize(opts)
		Expect(res.Rank).To(BeNumerically(">", 0))
		Expect(res.Rank).To(BeNumerically("<=", 2*f.obj.Dim()))
		Expect(res.Cond).To(BeNumerically(">=", 1))
		Expect(res.GradNorm).To(BeNumerically("<=", opts.GradTol))
	})

	It("never calls a point above J(0) converged", func() {
		wide := newFixture(scatter.Medium{K: 1, Q: 50, A: 0.1, N: 9}, 3, 2, 100)
		for _, m := range []inverse.Method{inverse.MethodLeastSquares, inverse.MethodLM, inverse.MethodBFGS} {
			opts := inverse.DefaultOptions()
			opts.Method = m
			opts.MaxIterations = 50
			opt, err := inverse.NewOptimizer(opts)
			Expect(err).NotTo(HaveOccurred())
			harmonic, err := inverse.StartVector(inverse.StartHarmonic, 9, wide.sphere.Directions())
			Expect(err).NotTo(HaveOccurred())
			res, err := opt.Minimize(ctx, wide.obj, harmonic)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.F).To(BeNumerically("<=", wide.obj.ZeroValue()), "method %s", m)
			if res.Converged {
				Expect(res.GradNorm).To(BeNumerically("<=", opts.GradTol), "method %s", m)
			}
		}
	})

	It("does not report levenberg-marquardt converged at its iteration limit", func() {
		opts := inverse.DefaultOptions()
		opts.Method = inverse.MethodLM
		opts.MaxIterations = 1
		res := minimize(opts)
		Expect(res.Converged).To(BeFalse())
		Expect(res.Status).To(HavePrefix("IterationLimit"))

		opts.MaxIterations = 500
		res = minimize(opts)
		if res.Converged {
			Expect(res.GradNorm).To(BeNumerically("<=", opts.GradTol))
		}
	})

	It("refuses a direct solve on overflowed weights", func() {
		huge := newFixture(scatter.Medium{K: 1, Q: 50, A: 0.1, N: 3}, 2, 2, 1e16)
		Expect(huge.obj.Overflowed()).To(BeTrue())
		_, err := huge.obj.LeastSquares()
		Expect(err).To(MatchError(inverse.ErrOverflow))
		Expect(err).To(MatchError(inverse.ErrDirectSolve))
	})

	It("is deterministic from the fixed start", func() {
		a := minimize(inverse.DefaultOptions())
		b := minimize(inverse.DefaultOptions())
		Expect(a.Nu).To(Equal(b.Nu))
		Expect(a.F).To(Equal(b.F))
	})

	It("rejects unknown methods and starts", func() {
		_, err := inverse.NewOptimizer(inverse.Options{Method: "simulated-annealing"})
		Expect(err).To(MatchError(inverse.ErrUnknownMethod))
		_, err = inverse.NewOptimizer(inverse.Options{Start: "random"})
		Expect(err).To(MatchError(inverse.ErrUnknownMethod))
		Expect(inverse.Methods()).To(ContainElement("lstsq"))
	})

	It("rejects a start of the wrong length", func() {
		opt, err := inverse.NewOptimizer(inverse.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		_, err = opt.Minimize(ctx, f.obj, start[1:])
		Expect(err).To(MatchError(inverse.ErrDimension))
	})

	It("stops on a canceled context", func() {
		opt, err := inverse.NewOptimizer(inverse.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = opt.Minimize(canceled, f.obj, start)
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("StartVector", func() {
	dirs := []geom.Vec3{geom.Real(0, 0, 1), geom.Real(1, 0, 0), geom.Real(0, -1, 0)}

	It("builds the fixed starts", func() {
		zero, err := inverse.StartVector(inverse.StartZero, 4, dirs)
		Expect(err).NotTo(HaveOccurred())
		Expect(zero).To(Equal(make([]complex128, 3)))

		uniform, err := inverse.StartVector(inverse.StartUniform, 4, dirs)
		Expect(err).NotTo(HaveOccurred())
		Expect(uniform).To(ConsistOf(complex(1.0/3, 0), complex(1.0/3, 0), complex(1.0/3, 0)))

		harmonic, err := inverse.StartVector(inverse.StartHarmonic, 4, dirs)
		Expect(err).NotTo(HaveOccurred())
		for i, d := range dirs {
			tb, err := special.ComplexYAt(4, d)
			Expect(err).NotTo(HaveOccurred())
			Expect(harmonic[i]).To(Equal(tb.Sum() / 3))
		}
	})

	It("fails on a zero direction", func() {
		_, err := inverse.StartVector(inverse.StartHarmonic, 4, []geom.Vec3{{}})
		Expect(err).To(MatchError(geom.ErrZeroVector))
	})
})

var _ = Describe("Recovery", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(scatter.Medium{K: 1, Q: 3, A: 0.5, N: 5}, 3, 2, 2)
	})

	It("is linear in nu and finite", func() {
		ctx := context.Background()
		rng := rand.New(rand.NewSource(5))
		nu := randomVector(rng, len(f.coeffs), 1)

		f1, err := inverse.Recover(ctx, f.coeffs, nu, f.probe.Thetap, f.sphere.Element(), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmplx.IsNaN(f1) || cmplx.IsInf(f1)).To(BeFalse())

		twice := make([]complex128, len(nu))
		for i, v := range nu {
			twice[i] = 2 * v
		}
		f2, err := inverse.Recover(ctx, f.coeffs, twice, f.probe.Thetap, f.sphere.Element(), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmplx.Abs(f2 - 2*f1)).To(BeNumerically("<=", 1e-12*math.Max(1, cmplx.Abs(f1))))

		zero, err := inverse.Recover(ctx, f.coeffs, make([]complex128, len(nu)), f.probe.Thetap, f.sphere.Element(), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(zero).To(Equal(complex128(0)))
	})

	It("reports a non-finite transform as overflow", func() {
		nu := make([]complex128, len(f.coeffs))
		nu[0] = complex(math.Inf(1), 0)
		_, err := inverse.Recover(context.Background(), f.coeffs, nu, f.probe.Thetap, f.sphere.Element(), 2)
		Expect(err).To(MatchError(inverse.ErrOverflow))
	})

	It("rejects mismatched lengths", func() {
		_, err := inverse.Recover(context.Background(), f.coeffs, []complex128{1}, f.probe.Thetap, f.sphere.Element(), 1)
		Expect(err).To(MatchError(inverse.ErrDimension))
	})

	It("reports a finite error after optimizing", func() {
		opts := inverse.DefaultOptions()
		opts.Method = inverse.MethodLeastSquares
		opt, err := inverse.NewOptimizer(opts)
		Expect(err).NotTo(HaveOccurred())
		res, err := opt.Minimize(context.Background(), f.obj, make([]complex128, f.obj.Dim()))
		Expect(err).NotTo(HaveOccurred())

		got, err := inverse.Recover(context.Background(), f.coeffs, res.Nu, f.probe.Thetap, f.sphere.Element(), 0)
		Expect(err).NotTo(HaveOccurred())
		want := inverse.AnalyticFourier(3, 0.5, f.probe.Psi)
		rel := inverse.RelativeError(got, want)
		Expect(math.IsNaN(rel) || math.IsInf(rel, 0)).To(BeFalse())
	})
})

var _ = Describe("Reference transforms", func() {
	psi := geom.Real(0, 0, 1.5)

	It("agrees between the closed form and quadrature", func() {
		for _, a := range []float64{0.1, 0.5, 1, 2} {
			want := inverse.AnalyticFourier(3, a, psi)
			got, err := inverse.QuadratureFourier(3, a, psi, 32)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmplx.Abs(got-want)).To(BeNumerically("<", 1e-10*cmplx.Abs(want)), "a=%g", a)
		}
	})

	It("tends to q times the ball volume as psi vanishes", func() {
		limit := 4 * math.Pi * 3 / 3.0
		for _, t := range []float64{1e-2, 1e-4, 1e-8, 0} {
			got := inverse.AnalyticFourier(3, 1, geom.Real(0, 0, t))
			Expect(real(got)).To(BeNumerically("~", limit, 1e-3*limit), "|psi|=%g", t)
		}
	})

	It("reduces the grid sum to q times the ball volume at psi = 0", func() {
		sphere, err := mesh.Banded(4)
		Expect(err).NotTo(HaveOccurred())
		got, err := inverse.GridFourier(3, 1, geom.Vec3{}, sphere, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(real(got)).To(BeNumerically("~", 4*math.Pi, 1e-12))
		Expect(imag(got)).To(BeNumerically("~", 0, 1e-12))
	})

	It("dispatches on the reference mode", func() {
		sphere, err := mesh.Banded(3)
		Expect(err).NotTo(HaveOccurred())
		for _, mode := range []inverse.ReferenceMode{inverse.ReferenceAnalytic, inverse.ReferenceGrid, inverse.ReferenceQuadrature} {
			v, err := inverse.Reference(mode, 3, 1, psi, sphere, 3, 16)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmplx.IsNaN(v)).To(BeFalse())
		}
		_, err = inverse.Reference("symbolic", 3, 1, psi, sphere, 3, 16)
		Expect(err).To(MatchError(inverse.ErrUnknownMethod))
	})

	It("measures relative error", func() {
		Expect(inverse.RelativeError(1.1, 1)).To(BeNumerically("~", 0.1, 1e-12))
		Expect(inverse.RelativeError(2i, 2i)).To(BeZero())
	})
})
