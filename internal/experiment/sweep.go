package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/mesh"
)

// SweepPoint is the outcome of one resolution of a sweep.
type SweepPoint struct {
	Resolution    int
	Directions    int
	Points        int
	Recovered     complex128
	Reference     complex128
	RelativeError float64
	Objective     float64
	Converged     bool
	Elapsed       time.Duration
}

// WithResolution returns a copy of base refined to r: the sphere mesh
// parameter and the number of annulus radii are both set to r.
func WithResolution(base *config.Config, r int) *config.Config {
	c := base.Clone()
	if mesh.Kind(c.Mesh.Kind) == mesh.KindLatLong {
		c.Mesh.RootN = r
	} else {
		c.Mesh.MPhi = r
	}
	c.Annulus.Radii = r
	return c
}

// Sweep reruns base once per resolution, in order.
func Sweep(ctx context.Context, base *config.Config, resolutions []int, opts Options) ([]SweepPoint, error) {
	out := make([]SweepPoint, 0, len(resolutions))
	for _, r := range resolutions {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		exp := New(WithResolution(base, r), opts)
		if err := exp.Setup(ctx); err != nil {
			return out, fmt.Errorf("resolution %d: %w", r, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return out, fmt.Errorf("resolution %d: %w", r, err)
		}
		out = append(out, SweepPoint{
			Resolution:    r,
			Directions:    res.Directions,
			Points:        res.Points,
			Recovered:     res.Recovered,
			Reference:     res.Reference,
			RelativeError: res.RelativeError,
			Objective:     res.Optimization.F,
			Converged:     res.Optimization.Converged,
			Elapsed:       res.Elapsed,
		})
	}
	return out, nil
}
