package scatter

import (
	"fmt"
	"math"
)

// Medium describes the potential q on the ball of radius A, probed at
// free-space wavenumber K and expanded to truncation order N.
type Medium struct {
	K float64 `json:"k"`
	Q float64 `json:"q"`
	A float64 `json:"a"`
	N int     `json:"n"`
}

// Kappa is the interior wavenumber k^2 - q.
func (m Medium) Kappa() complex128 {
	return complex(m.K*m.K-m.Q, 0)
}

// Validate rejects non-finite or non-positive parameters. It does not
// reject q = k^2: that medium is well formed but its boundary systems are
// singular, which Solve reports per degree.
func (m Medium) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"k", m.K}, {"q", m.Q}, {"a", m.A}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s = %v", ErrMedium, f.name, f.v)
		}
	}
	if m.A <= 0 {
		return fmt.Errorf("%w: radius a = %v must be positive", ErrMedium, m.A)
	}
	if m.K <= 0 {
		return fmt.Errorf("%w: wavenumber k = %v must be positive", ErrMedium, m.K)
	}
	if m.N < 1 {
		return fmt.Errorf("%w: truncation order n = %d must be positive", ErrMedium, m.N)
	}
	return nil
}

func (m Medium) String() string {
	return fmt.Sprintf("k=%g q=%g a=%g n=%d", m.K, m.Q, m.A, m.N)
}
