package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/invscat/internal/geom"
)

// Shell is a set of points dir*R for R in a list of radii, radius-major,
// together with the volume element of the region it samples.
type Shell struct {
	points  []geom.Vec3
	radii   []float64
	element float64
}

// Annulus samples a1 < |x| < b with numRadii radii in linspace(a1, b).
func Annulus(s *Sphere, a1, b float64, numRadii int) (*Shell, error) {
	if a1 <= 0 || b <= a1 {
		return nil, fmt.Errorf("%w: need 0 < a1 < b, got a1=%g b=%g", ErrAnnulus, a1, b)
	}
	radii, err := linspace(a1, b, numRadii)
	if err != nil {
		return nil, err
	}
	sh := newShell(s, radii)
	sh.element = (4 * math.Pi / 3) * (b*b*b - a1*a1*a1) / float64(len(sh.points))
	return sh, nil
}

// Ball samples the ball of radius a with radii in linspace(a/10, a).
func Ball(s *Sphere, a float64, numRadii int) (*Shell, error) {
	if a <= 0 {
		return nil, fmt.Errorf("%w: ball radius %g", ErrAnnulus, a)
	}
	radii, err := linspace(a/10, a, numRadii)
	if err != nil {
		return nil, err
	}
	sh := newShell(s, radii)
	sh.element = 4 * math.Pi * a * a * a / (3 * float64(len(sh.points)))
	return sh, nil
}

func newShell(s *Sphere, radii []float64) *Shell {
	points := make([]geom.Vec3, 0, len(radii)*s.Len())
	for _, r := range radii {
		for _, d := range s.dirs {
			points = append(points, d.Scale(complex(r, 0)))
		}
	}
	return &Shell{points: points, radii: radii}
}

func (sh *Shell) Len() int            { return len(sh.points) }
func (sh *Shell) At(i int) geom.Vec3  { return sh.points[i] }
func (sh *Shell) Element() float64    { return sh.element }
func (sh *Shell) Radii() []float64    { return append([]float64(nil), sh.radii...) }
func (sh *Shell) Points() []geom.Vec3 { return append([]geom.Vec3(nil), sh.points...) }

func linspace(lo, hi float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, fmt.Errorf("%w: numRadii=%d", ErrResolution, n)
	case n == 1:
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}
