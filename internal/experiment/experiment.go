package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/cmplx"
	"time"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/inverse"
	"github.com/san-kum/invscat/internal/mesh"
	"github.com/san-kum/invscat/internal/scatter"
)

var ErrNotSetup = errors.New("experiment: not set up")

// Options carries the collaborators of a run. Both fields may be nil.
type Options struct {
	Logger   *slog.Logger
	Progress func(inverse.Progress)
}

// Experiment is one reconstruction: every table it needs is built once by
// Setup and read-only afterwards.
type Experiment struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger

	solver    *scatter.Solver
	sphere    *mesh.Sphere
	annulus   *mesh.Shell
	probe     mesh.Probe
	coeffs    []*scatter.Coefficients
	sampler   *scatter.Sampler
	objective *inverse.Objective
	optimizer *inverse.Optimizer
	setupTime time.Duration
}

// Forward is the forward demo at the configured alpha and x.
type Forward struct {
	Beta       geom.Vec3
	Amplitude  complex128
	Incident   complex128
	TotalField complex128
	// Magnitudes is |A_lm(alpha)| (n x 2n+1) in the complex-angle model and
	// a single row of |A_l| in the real-angle one.
	Magnitudes [][]float64
}

type Result struct {
	Forward       *Forward
	Optimization  *inverse.Result
	Probe         mesh.Probe
	Recovered     complex128
	Reference     complex128
	RelativeError float64
	Directions    int
	Points        int
	Elapsed       time.Duration
	// Field is u(x_i, alpha_l) over the annulus points and incident
	// directions.
	Field [][]complex128
	// Coefficients is the per-degree norm sqrt(sum_m |A_lm|^2) for every
	// incident direction.
	Coefficients [][]float64
}

func New(cfg *config.Config, opts Options) *Experiment {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Experiment{cfg: cfg.Clone(), opts: opts, log: logger}
}

func (e *Experiment) Config() *config.Config { return e.cfg.Clone() }

func medium(c *config.Config) scatter.Medium {
	return scatter.Medium{K: c.K, Q: c.Q, A: c.A, N: c.N}
}

// Setup validates the configuration and precomputes the solver, meshes,
// probe pair, coefficient tables, sampled field and objective weights.
func (e *Experiment) Setup(ctx context.Context) error {
	t0 := time.Now()
	c := e.cfg
	if err := c.Validate(); err != nil {
		return err
	}

	solver, err := scatter.NewSolver(medium(c))
	if err != nil {
		return err
	}
	sphere, err := mesh.New(mesh.Kind(c.Mesh.Kind), c.Resolution())
	if err != nil {
		return err
	}
	annulus, err := mesh.Annulus(sphere, c.InnerRadius(), c.Annulus.B, c.Annulus.Radii)
	if err != nil {
		return err
	}
	probe, err := mesh.NewProbe(mesh.ProbeKind(c.Probe.Kind), c.Probe.Magnitude, c.Probe.T)
	if err != nil {
		return err
	}
	if err := probe.Validate(scatter.DirectionTolerance); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if g := probe.Growth(c.Annulus.B); g > mesh.MaxGrowth {
		e.log.Warn("probe magnitude outside the safe range",
			"growth", g, "max", mesh.MaxGrowth, "magnitude", c.Probe.Magnitude, "outer_radius", c.Annulus.B)
	}
	e.log.Debug("meshes ready", "directions", sphere.Len(), "points", annulus.Len(), "mesh", sphere.Kind())

	coeffs, err := solver.SolveAll(ctx, sphere.Directions(), c.Workers)
	if err != nil {
		return err
	}
	sampler, err := scatter.NewSampler(ctx, solver, annulus.Points(), coeffs, c.Workers)
	if err != nil {
		return err
	}
	obj, err := inverse.NewObjective(sampler, probe.Theta, sphere.Element(), annulus.Element(), c.Workers)
	if err != nil {
		return err
	}
	if obj.Overflowed() {
		return fmt.Errorf("%w: objective weights for probe %s with magnitude %g and outer radius %g",
			inverse.ErrOverflow, c.Probe.Kind, c.Probe.Magnitude, c.Annulus.B)
	}

	opt, err := inverse.NewOptimizer(inverse.Options{
		Method:        inverse.Method(c.Optimizer.Method),
		GradTol:       c.Optimizer.Tol,
		MaxIterations: c.Optimizer.MaxIterations,
		Start:         inverse.Start(c.Optimizer.Start),
		Progress:      e.opts.Progress,
		Logger:        e.log,
	})
	if err != nil {
		return err
	}

	e.solver = solver
	e.sphere = sphere
	e.annulus = annulus
	e.probe = probe
	e.coeffs = coeffs
	e.sampler = sampler
	e.objective = obj
	e.optimizer = opt
	e.setupTime = time.Since(t0)
	e.log.Info("setup done", "directions", sphere.Len(), "points", annulus.Len(), "elapsed", e.setupTime)
	return nil
}

// Run performs the forward demo, the minimization and the recovery.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.objective == nil {
		return nil, ErrNotSetup
	}
	t0 := time.Now()
	c := e.cfg

	fwd, err := runForward(e.solver, c)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}

	start, err := inverse.StartVector(inverse.Start(c.Optimizer.Start), c.N, e.sphere.Directions())
	if err != nil {
		return nil, err
	}
	opt, err := e.optimizer.Minimize(ctx, e.objective, start)
	if err != nil {
		return nil, err
	}
	if !opt.Converged {
		e.log.Warn("optimizer did not converge", "status", opt.Status, "f", opt.F)
	}

	recovered, err := inverse.Recover(ctx, e.coeffs, opt.Nu, e.probe.Thetap, e.sphere.Element(), c.Workers)
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}
	reference, err := inverse.Reference(inverse.ReferenceMode(c.Reference.Mode), c.Q, c.A, e.probe.Psi,
		e.sphere, c.Reference.Radii, c.Reference.Order)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	res := &Result{
		Forward:       fwd,
		Optimization:  opt,
		Probe:         e.probe,
		Recovered:     recovered,
		Reference:     reference,
		RelativeError: inverse.RelativeError(recovered, reference),
		Directions:    e.sphere.Len(),
		Points:        e.annulus.Len(),
		Field:         e.sampler.Matrix(),
		Coefficients:  degreeNorms(e.coeffs),
	}
	res.Elapsed = e.setupTime + time.Since(t0)
	e.log.Info("run done",
		"recovered", recovered,
		"reference", reference,
		"relative_error", res.RelativeError,
		"elapsed", res.Elapsed)
	return res, nil
}

// RunForward evaluates only the forward demo of c.
func RunForward(c *config.Config) (*Forward, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	solver, err := scatter.NewSolver(medium(c))
	if err != nil {
		return nil, err
	}
	return runForward(solver, c)
}

func runForward(s *scatter.Solver, c *config.Config) (*Forward, error) {
	alpha := geom.FromSlice(c.Alpha[:])
	x := geom.FromSlice(c.X[:])
	beta, err := x.Unit()
	if err != nil {
		return nil, err
	}

	fwd := &Forward{Beta: beta, Incident: s.Incident(alpha, x)}
	if c.Harmonics == config.HarmonicsReal {
		coeffs, err := s.SolveSummed(alpha)
		if err != nil {
			return nil, err
		}
		if fwd.Amplitude, err = scatter.AmplitudeSummed(beta, coeffs); err != nil {
			return nil, err
		}
		if fwd.TotalField, err = s.TotalFieldSummed(x, alpha, coeffs); err != nil {
			return nil, err
		}
		row := make([]float64, len(coeffs))
		for l, v := range coeffs {
			row[l] = cmplx.Abs(v)
		}
		fwd.Magnitudes = [][]float64{row}
		return fwd, nil
	}

	coeffs, err := s.Solve(alpha)
	if err != nil {
		return nil, err
	}
	if fwd.Amplitude, err = scatter.Amplitude(beta, coeffs); err != nil {
		return nil, err
	}
	if fwd.TotalField, err = s.TotalField(x, coeffs); err != nil {
		return nil, err
	}
	fwd.Magnitudes = coeffs.Magnitudes()
	return fwd, nil
}

func degreeNorms(coeffs []*scatter.Coefficients) [][]float64 {
	out := make([][]float64, len(coeffs))
	for i, c := range coeffs {
		mags := c.Magnitudes()
		row := make([]float64, len(mags))
		for l, m := range mags {
			var s float64
			for _, v := range m {
				s += v * v
			}
			row[l] = math.Sqrt(s)
		}
		out[i] = row
	}
	return out
}
