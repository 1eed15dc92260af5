package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/invscat/internal/geom"
)

// Kind selects how the incident directions on S^2 are sampled.
type Kind string

const (
	KindBanded  Kind = "banded"
	KindLatLong Kind = "latlong"
)

// Sphere is an immutable set of real unit directions.
type Sphere struct {
	kind Kind
	dirs []geom.Vec3
}

// Banded samples mphi latitude bands at phi = (i+1)pi/(mphi+1), with
// int(mphi + |phi - pi/2| mphi) longitudes per band, then appends the two
// poles. Bands away from the equator get more longitudes.
func Banded(mphi int) (*Sphere, error) {
	if mphi < 1 {
		return nil, fmt.Errorf("%w: mphi=%d", ErrResolution, mphi)
	}
	cphi := math.Pi / float64(mphi+1)
	dirs := make([]geom.Vec3, 0, mphi*mphi*2+2)
	for i := 0; i < mphi; i++ {
		phi := float64(i+1) * cphi
		mtheta := int(float64(mphi) + math.Abs(phi-math.Pi/2)*float64(mphi))
		for j := 0; j < mtheta; j++ {
			theta := float64(j) * 2 * math.Pi / float64(mtheta)
			dirs = append(dirs, polar(theta, phi))
		}
	}
	dirs = append(dirs, geom.Real(0, 0, 1), geom.Real(0, 0, -1))
	return &Sphere{kind: KindBanded, dirs: dirs}, nil
}

// LatLong samples the rootn x rootn grid theta in linspace(0, 2pi),
// phi in linspace(0, pi), index i*rootn + j. The grid repeats the poles and
// the theta=0/2pi seam; that duplication is part of the quadrature weights.
func LatLong(rootn int) (*Sphere, error) {
	if rootn < 2 {
		return nil, fmt.Errorf("%w: rootn=%d", ErrResolution, rootn)
	}
	thetas := floats.Span(make([]float64, rootn), 0, 2*math.Pi)
	phis := floats.Span(make([]float64, rootn), 0, math.Pi)

	dirs := make([]geom.Vec3, rootn*rootn)
	for i, theta := range thetas {
		for j, phi := range phis {
			dirs[i*rootn+j] = polar(theta, phi)
		}
	}
	return &Sphere{kind: KindLatLong, dirs: dirs}, nil
}

// RootN is the lat/long resolution that holds at least n directions.
func RootN(n int) int {
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// New builds a sphere mesh of the given kind.
func New(kind Kind, resolution int) (*Sphere, error) {
	switch kind {
	case KindBanded, "":
		return Banded(resolution)
	case KindLatLong:
		return LatLong(resolution)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Sphere) Kind() Kind { return s.kind }
func (s *Sphere) Len() int   { return len(s.dirs) }

// At returns the i-th direction.
func (s *Sphere) At(i int) geom.Vec3 { return s.dirs[i] }

// Directions returns a copy of the directions.
func (s *Sphere) Directions() []geom.Vec3 {
	out := make([]geom.Vec3, len(s.dirs))
	copy(out, s.dirs)
	return out
}

// Element is the surface element 4pi/len of the sphere quadrature.
func (s *Sphere) Element() float64 {
	return 4 * math.Pi / float64(len(s.dirs))
}

func polar(theta, phi float64) geom.Vec3 {
	return geom.Real(math.Cos(theta)*math.Sin(phi), math.Sin(theta)*math.Sin(phi), math.Cos(phi))
}
