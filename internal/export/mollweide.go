package export

import (
	"fmt"
	"math"

	"github.com/san-kum/invscat/internal/geom"
)

const (
	mollweideIterations = 50
	mollweideTol        = 1e-12
)

// Mollweide projects longitude lon in [-pi, pi] and latitude lat in
// [-pi/2, pi/2] onto the ellipse x^2/8 + y^2/2 <= 1. The auxiliary angle t
// solves 2t + sin 2t = pi sin lat by Newton iteration.
func Mollweide(lon, lat float64) (x, y float64) {
	t := lat
	if math.Abs(math.Abs(lat)-math.Pi/2) > mollweideTol {
		target := math.Pi * math.Sin(lat)
		for i := 0; i < mollweideIterations; i++ {
			d := 2 + 2*math.Cos(2*t)
			if d == 0 {
				break
			}
			step := (2*t + math.Sin(2*t) - target) / d
			t -= step
			if math.Abs(step) < mollweideTol {
				break
			}
		}
	}
	return 2 * math.Sqrt2 / math.Pi * lon * math.Cos(t), math.Sqrt2 * math.Sin(t)
}

// LonLat returns the longitude and latitude of a real direction. The
// longitude is the azimuth wrapped to (-pi, pi].
func LonLat(v geom.Vec3) (lon, lat float64, err error) {
	if !v.IsReal() {
		return 0, 0, fmt.Errorf("%w: complex direction %v", ErrProjection, v)
	}
	u, err := v.Unit()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrProjection, err)
	}
	ang, err := geom.ToAngles(u)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrProjection, err)
	}
	lon = math.Remainder(real(ang.Theta), 2*math.Pi)
	if lon == -math.Pi {
		lon = math.Pi
	}
	return lon, math.Pi/2 - real(ang.Phi), nil
}
