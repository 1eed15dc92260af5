package mesh

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/invscat/internal/geom"
)

type ProbeKind string

const (
	ProbeOblique ProbeKind = "oblique"
	ProbeAxial   ProbeKind = "axial"
)

// DefaultPsiMagnitude is the frequency |psi| the oblique probe pair targets.
const DefaultPsiMagnitude = 1.5

// MaxGrowth bounds the exponent |Im theta| b of the largest objective
// weight on an annulus of outer radius b. J squares the weights, so past
// roughly 350 it leaves the float64 range.
const MaxGrowth = 300

// Probe is a pair of complex directions theta, thetap on the unit quadric
// with psi = thetap - theta. Driving |thetap| to infinity realises the
// high-frequency limit of the reconstruction.
type Probe struct {
	Theta  geom.Vec3
	Thetap geom.Vec3
	Psi    geom.Vec3
}

// Oblique fixes psi = (0, 0, t) and takes
// thetap = (M, sqrt(1 - t^2/4 - M^2), t/2), theta = thetap - psi.
// The weights of the objective grow like exp(M|x|), so M*b must stay
// below MaxGrowth for the annulus radius b.
func Oblique(magnitude, t float64) Probe {
	t2 := cmplx.Sqrt(complex(1-t*t/4-magnitude*magnitude, 0))
	thetap := geom.Vec3{complex(magnitude, 0), t2, complex(t/2, 0)}
	psi := geom.Real(0, 0, t)
	return Probe{Theta: thetap.Sub(psi), Thetap: thetap, Psi: psi}
}

// Axial takes theta = (0, i sqrt(w^2-1), w), thetap = (0, i sqrt(w^2-1), -w)
// with w = -M/2, so psi = (0, 0, M). The objective overflows for large M:
// this pair is only usable for moderate magnitudes.
func Axial(magnitude float64) Probe {
	v := magnitude / 2
	w := -v
	b2 := cmplx.Sqrt(complex(w*w-1, 0)) * 1i
	theta := geom.Vec3{0, b2, complex(w, 0)}
	thetap := geom.Vec3{0, b2, complex(v, 0)}
	return Probe{Theta: theta, Thetap: thetap, Psi: thetap.Sub(theta)}
}

// NewProbe builds the pair of the requested kind.
func NewProbe(kind ProbeKind, magnitude, t float64) (Probe, error) {
	switch kind {
	case ProbeOblique, "":
		return Oblique(magnitude, t), nil
	case ProbeAxial:
		return Axial(magnitude), nil
	default:
		return Probe{}, fmt.Errorf("%w: probe %q", ErrUnknownKind, kind)
	}
}

// Growth is the exponent |Im theta| b of the largest weight exp(-i theta.x)
// over |x| <= b.
func (p Probe) Growth(b float64) float64 {
	var s float64
	for _, c := range p.Theta {
		s += imag(c) * imag(c)
	}
	return math.Sqrt(s) * b
}

// Validate checks both directions lie on the unit quadric.
func (p Probe) Validate(tol float64) error {
	if err := geom.ValidateDirection(p.Theta, tol); err != nil {
		return fmt.Errorf("theta: %w", err)
	}
	if err := geom.ValidateDirection(p.Thetap, tol); err != nil {
		return fmt.Errorf("thetap: %w", err)
	}
	return nil
}
