package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/experiment"
	"github.com/san-kum/invscat/internal/mesh"
)

var (
	ErrUnknownParam = errors.New("optim: unknown parameter")
	ErrNoCandidate  = errors.New("optim: no grid point produced a result")
)

// Param is one configuration value swept by a grid search.
type Param struct {
	Name   string
	Values []float64
	apply  func(c *config.Config, v float64)
}

var setters = map[string]func(c *config.Config, v float64){
	"magnitude": func(c *config.Config, v float64) { c.Probe.Magnitude = v },
	"t":         func(c *config.Config, v float64) { c.Probe.T = v },
	"q":         func(c *config.Config, v float64) { c.Q = v },
	"a":         func(c *config.Config, v float64) { c.A = v },
	"b":         func(c *config.Config, v float64) { c.Annulus.B = v },
	"ratio":     func(c *config.Config, v float64) { c.Annulus.Ratio = v },
	"n": func(c *config.Config, v float64) {
		c.N = int(v)
		c.Mesh.RootN = mesh.RootN(c.N)
	},
	"radii": func(c *config.Config, v float64) { c.Annulus.Radii = int(v) },
	"mphi":  func(c *config.Config, v float64) { c.Mesh.MPhi = int(v) },
	"rootn": func(c *config.Config, v float64) { c.Mesh.RootN = int(v) },
}

// ParamNames lists the parameters a grid search can sweep.
func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewParam(name string, values []float64) (Param, error) {
	apply, ok := setters[name]
	if !ok {
		return Param{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownParam, name, ParamNames())
	}
	if len(values) == 0 {
		return Param{}, fmt.Errorf("optim: parameter %q has no values", name)
	}
	return Param{Name: name, Values: values, apply: apply}, nil
}

// ParseParam reads "name=v1,v2,...".
func ParseParam(spec string) (Param, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok {
		return Param{}, fmt.Errorf("optim: parameter %q: want name=v1,v2", spec)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Param{}, fmt.Errorf("optim: parameter %q: %w", name, err)
		}
		values = append(values, v)
	}
	return NewParam(strings.TrimSpace(name), values)
}

// Candidate is one grid point. Err is set when the configuration was
// rejected or the run failed.
type Candidate struct {
	Values        map[string]float64
	RelativeError float64
	Objective     float64
	Converged     bool
	Err           error
}

type GridSearch struct {
	params []Param
}

func NewGridSearch(params ...Param) *GridSearch {
	return &GridSearch{params: params}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// Search runs base at every grid point, in lexicographic order of the
// parameters, and returns the point with the smallest relative error of
// the recovered transform together with every point visited.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, opts experiment.Options) (Candidate, []Candidate, error) {
	all := make([]Candidate, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, base, make(map[string]float64), opts, &all); err != nil {
		return Candidate{}, all, err
	}

	best := -1
	for i, c := range all {
		if c.Err != nil || math.IsNaN(c.RelativeError) {
			continue
		}
		if best < 0 || c.RelativeError < all[best].RelativeError {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, all, ErrNoCandidate
	}
	return all[best], all, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	cfg *config.Config,
	current map[string]float64,
	opts experiment.Options,
	all *[]Candidate,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.params) {
		*all = append(*all, evaluate(ctx, cfg, current, opts))
		return ctx.Err()
	}

	p := g.params[depth]
	for _, v := range p.Values {
		next := cfg.Clone()
		p.apply(next, v)
		values := make(map[string]float64, len(current)+1)
		for k, x := range current {
			values[k] = x
		}
		values[p.Name] = v

		if err := g.searchRecursive(ctx, depth+1, next, values, opts, all); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, cfg *config.Config, values map[string]float64, opts experiment.Options) Candidate {
	c := Candidate{Values: values, RelativeError: math.NaN(), Objective: math.NaN()}
	exp := experiment.New(cfg, opts)
	if err := exp.Setup(ctx); err != nil {
		c.Err = err
		return c
	}
	res, err := exp.Run(ctx)
	if err != nil {
		c.Err = err
		return c
	}
	c.RelativeError = res.RelativeError
	c.Objective = res.Optimization.F
	c.Converged = res.Optimization.Converged
	return c
}
