package inverse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/special"
)

type Method string

const (
	MethodBFGS         Method = "bfgs"
	MethodBFGSFD       Method = "bfgs-fd"
	MethodLBFGS        Method = "lbfgs"
	MethodNelderMead   Method = "nelder-mead"
	MethodLM           Method = "lm"
	MethodLeastSquares Method = "lstsq"
)

var methods = map[Method]string{
	MethodBFGS:         "quasi-Newton BFGS with the analytic gradient",
	MethodBFGSFD:       "BFGS with central finite-difference gradients",
	MethodLBFGS:        "limited-memory BFGS with the analytic gradient",
	MethodNelderMead:   "derivative-free Nelder-Mead simplex",
	MethodLM:           "Levenberg-Marquardt on the split residuals",
	MethodLeastSquares: "direct least-squares solve of the quadratic objective",
}

// Methods lists the registered method names.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line description of m.
func Describe(m Method) string { return methods[m] }

type Start string

const (
	StartHarmonic Start = "harmonic"
	StartUniform  Start = "uniform"
	StartZero     Start = "zero"
)

// DefaultGradTol is the gradient-norm tolerance of the quasi-Newton methods.
const DefaultGradTol = 1e-6

// Progress is reported once per major iteration.
type Progress struct {
	Iteration int
	F         float64
	GradNorm  float64
}

type Options struct {
	Method        Method
	GradTol       float64
	MaxIterations int
	Start         Start
	Progress      func(Progress)
	Logger        *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Method:        MethodBFGS,
		GradTol:       DefaultGradTol,
		MaxIterations: 1000,
		Start:         StartHarmonic,
	}
}

const (
	StatusDirect         = "DirectSolve"
	StatusIllConditioned = "IllConditioned"
	StatusFailure        = "Failure"
	// statusZero marks a result replaced by the zero vector.
	statusZero = "ZeroFallback"
)

// Result of a minimization. A run that stopped early is still a result:
// Converged is false and Nu is the best vector found. A method that ends
// above J(0) is replaced by the zero vector.
type Result struct {
	Nu []complex128
	F  float64
	// F0 is J at the start vector, FZero is J(0).
	F0        float64
	FZero     float64
	GradNorm  float64
	Converged bool
	// Rank and Cond describe the direct solve; zero for iterative methods.
	Rank            int
	Cond            float64
	Status          string
	Method          Method
	Iterations      int
	FuncEvaluations int
	Runtime         time.Duration
	History         []float64
}

type Optimizer struct {
	opts Options
	log  *slog.Logger
}

func NewOptimizer(opts Options) (*Optimizer, error) {
	if opts.Method == "" {
		opts.Method = MethodBFGS
	}
	if _, ok := methods[opts.Method]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
	}
	switch opts.Start {
	case "":
		opts.Start = StartHarmonic
	case StartHarmonic, StartUniform, StartZero:
	default:
		return nil, fmt.Errorf("%w: start %q", ErrUnknownMethod, opts.Start)
	}
	if opts.GradTol <= 0 {
		opts.GradTol = DefaultGradTol
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Optimizer{opts: opts, log: logger.With("component", "optimizer")}, nil
}

func (o *Optimizer) Options() Options { return o.opts }

// StartVector builds the deterministic initial guess for directions dirs.
// The harmonic start sets nu_l to a third of the sum of every valid
// harmonic at alpha_l, truncated at order n.
func StartVector(kind Start, n int, dirs []geom.Vec3) ([]complex128, error) {
	nu := make([]complex128, len(dirs))
	switch kind {
	case StartZero:
	case StartUniform:
		for i := range nu {
			nu[i] = complex(1.0/3, 0)
		}
	case StartHarmonic, "":
		for i, d := range dirs {
			t, err := special.ComplexYAt(n, d)
			if err != nil {
				return nil, fmt.Errorf("start direction %d: %w", i, err)
			}
			nu[i] = t.Sum() / 3
		}
	default:
		return nil, fmt.Errorf("%w: start %q", ErrUnknownMethod, kind)
	}
	return nu, nil
}

// Minimize runs the configured method from start. Errors are reserved for
// misuse, cancellation and a failed direct solve.
func (o *Optimizer) Minimize(ctx context.Context, obj *Objective, start []complex128) (*Result, error) {
	if obj == nil {
		return nil, ErrEmptyProblem
	}
	if len(start) != obj.Dim() {
		return nil, fmt.Errorf("%w: start has %d entries, objective %d", ErrDimension, len(start), obj.Dim())
	}

	t0 := time.Now()
	f0 := obj.Value(start)
	o.log.Debug("minimize", "method", o.opts.Method, "dim", obj.Dim(), "points", obj.Points(), "f0", f0)

	var (
		res *Result
		err error
	)
	switch o.opts.Method {
	case MethodLeastSquares:
		res, err = o.leastSquares(obj)
	case MethodLM:
		res, err = o.levenbergMarquardt(obj, start)
	default:
		res, err = o.gonum(ctx, obj, start)
	}
	if err != nil {
		return nil, err
	}

	res.F0 = f0
	res.Method = o.opts.Method
	o.settle(obj, res)
	res.Runtime = time.Since(t0)
	o.log.Info("minimize done",
		"method", res.Method,
		"status", res.Status,
		"converged", res.Converged,
		"f", res.F,
		"grad_norm", res.GradNorm,
		"iterations", res.Iterations,
		"runtime", res.Runtime)
	return res, nil
}

func (o *Optimizer) gonum(ctx context.Context, obj *Objective, start []complex128) (*Result, error) {
	problem := optimize.Problem{
		Func: obj.Func,
		Grad: obj.Grad,
	}

	var method optimize.Method
	switch o.opts.Method {
	case MethodBFGS:
		method = &optimize.BFGS{GradStopThreshold: o.opts.GradTol}
	case MethodBFGSFD:
		problem.Grad = func(grad, x []float64) {
			fd.Gradient(grad, obj.Func, x, &fd.Settings{
				Formula: fd.Central,
			})
		}
		method = &optimize.BFGS{GradStopThreshold: o.opts.GradTol}
	case MethodLBFGS:
		method = &optimize.LBFGS{GradStopThreshold: o.opts.GradTol}
	case MethodNelderMead:
		problem.Grad = nil
		method = &optimize.NelderMead{}
	}

	rec := &recorder{ctx: ctx, progress: o.opts.Progress}
	settings := &optimize.Settings{
		GradientThreshold: o.opts.GradTol,
		MajorIterations:   o.opts.MaxIterations,
		Recorder:          rec,
	}

	res, err := optimize.Minimize(problem, Split(start), settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if res == nil {
		return nil, fmt.Errorf("inverse: %s: %w", o.opts.Method, err)
	}
	if err != nil {
		o.log.Warn("minimizer stopped early", "method", o.opts.Method, "status", res.Status, "err", err)
	}

	return &Result{
		Nu:              Join(res.X),
		F:               res.F,
		Converged:       err == nil && !res.Status.Early(),
		Status:          res.Status.String(),
		Iterations:      res.MajorIterations,
		FuncEvaluations: res.FuncEvaluations,
		History:         rec.history,
	}, nil
}

// settle records J(0) and the final gradient norm. A result above J(0) is
// replaced by the zero vector and never counts as converged, and neither
// does one whose gradient norm exceeds GradTol.
func (o *Optimizer) settle(obj *Objective, res *Result) {
	res.FZero = obj.ZeroValue()
	if !(res.F <= res.FZero) {
		o.log.Warn("minimizer ended above J(0), keeping the zero vector",
			"method", o.opts.Method, "f", res.F, "j0", res.FZero, "status", res.Status)
		res.Nu = make([]complex128, obj.Dim())
		res.F = res.FZero
		res.Converged = false
		res.Status += "/" + statusZero
	}
	res.GradNorm = floats.Norm(Split(obj.Gradient(res.Nu)), 2)
	res.Converged = res.Converged && res.GradNorm <= o.opts.GradTol
}

func (o *Optimizer) leastSquares(obj *Objective) (*Result, error) {
	d, err := obj.LeastSquares()
	if err != nil {
		return nil, err
	}
	f := obj.Value(d.Nu)
	if o.opts.Progress != nil {
		o.opts.Progress(Progress{Iteration: 1, F: f})
	}
	status := StatusDirect
	if d.Rank < 2*obj.Dim() {
		status = StatusIllConditioned
		o.log.Warn("direct solve truncated singular values",
			"rank", d.Rank, "unknowns", 2*obj.Dim(), "cond", d.Cond)
	}
	gnorm := floats.Norm(Split(obj.Gradient(d.Nu)), 2)
	return &Result{
		Nu:              d.Nu,
		F:               f,
		Converged:       gnorm <= o.opts.GradTol && f <= obj.ZeroValue(),
		Status:          status,
		Rank:            d.Rank,
		Cond:            d.Cond,
		Iterations:      1,
		FuncEvaluations: 1,
		History:         []float64{f},
	}, nil
}

func (o *Optimizer) levenbergMarquardt(obj *Objective, start []complex128) (res *Result, err error) {
	evals := 0
	fnc := func(dst, x []float64) {
		evals++
		obj.ResidualVector(dst, x)
	}
	jac := lm.NumJac{Func: fnc}

	problem := lm.LMProblem{
		Dim:        2 * obj.Dim(),
		Size:       2 * obj.Points(),
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: Split(start),
		Tau:        1e-6,
		Eps1:       o.opts.GradTol,
		Eps2:       1e-12,
	}

	// lm panics on singular normal equations; keep the starting point then.
	defer func() {
		if r := recover(); r != nil {
			o.log.Warn("levenberg-marquardt panicked", "panic", r)
			f := obj.Value(start)
			res = &Result{
				Nu:              append([]complex128(nil), start...),
				F:               f,
				Status:          StatusFailure,
				FuncEvaluations: evals,
				History:         []float64{f},
			}
			err = nil
		}
	}()

	out, lmErr := lm.LM(problem, &lm.Settings{Iterations: o.opts.MaxIterations, ObjectiveTol: 1e-16})
	if lmErr != nil {
		return nil, fmt.Errorf("inverse: levenberg-marquardt: %w", lmErr)
	}
	nu := Join(out.X)
	f := obj.Value(nu)
	gnorm := floats.Norm(Split(obj.Gradient(nu)), 2)
	return &Result{
		Nu:              nu,
		F:               f,
		Converged:       !out.Status.Early() && out.Status != optimize.NotTerminated && gnorm <= o.opts.GradTol,
		Status:          out.Status.String(),
		FuncEvaluations: evals,
		History:         []float64{f},
	}, nil
}

type recorder struct {
	ctx      context.Context
	progress func(Progress)
	history  []float64
}

func (r *recorder) Init() error { return r.ctx.Err() }

func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op&optimize.MajorIteration != 0 {
		r.history = append(r.history, loc.F)
		if r.progress != nil {
			p := Progress{Iteration: stats.MajorIterations, F: loc.F}
			if loc.Gradient != nil {
				p.GradNorm = floats.Norm(loc.Gradient, 2)
			}
			r.progress(p)
		}
	}
	return r.ctx.Err()
}
