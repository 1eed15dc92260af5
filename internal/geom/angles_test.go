package geom

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func closeVec(a, b Vec3, tol float64) bool {
	scale := math.Max(1, b.Norm())
	return a.Sub(b).Norm() <= tol*scale
}

func TestToAngles_RoundTripReal(t *testing.T) {
	tests := []struct {
		name string
		v    [3]float64
	}{
		{"x axis", [3]float64{1, 0, 0}},
		{"negative x", [3]float64{-1, 0, 0}},
		{"y axis", [3]float64{0, 1, 0}},
		{"negative y", [3]float64{0, -1, 0}},
		{"first octant", [3]float64{1, 1, 1}},
		{"mixed signs", [3]float64{-0.3, 0.8, -0.5}},
		{"third quadrant", [3]float64{-0.6, -0.7, 0.2}},
		{"fourth quadrant", [3]float64{0.4, -0.9, 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Real(tt.v[0], tt.v[1], tt.v[2]).Unit()
			if err != nil {
				t.Fatal(err)
			}
			ang, err := ToAngles(v)
			if err != nil {
				t.Fatalf("ToAngles: %v", err)
			}
			if imag(ang.Theta) != 0 || imag(ang.Phi) != 0 {
				t.Errorf("real direction produced complex angles %v", ang)
			}
			if got := FromAngles(ang); !closeVec(got, v, 1e-12) {
				t.Errorf("round trip: got %v, want %v", got, v)
			}
		})
	}
}

func TestToAngles_Poles(t *testing.T) {
	for _, z := range []float64{1, -1} {
		ang, err := ToAngles(Real(0, 0, z))
		if err != nil {
			t.Fatal(err)
		}
		if ang.Theta != complex(math.Pi/2, 0) {
			t.Errorf("pole z=%v: theta = %v, want pi/2", z, ang.Theta)
		}
		if !ang.IsPole() {
			t.Errorf("pole z=%v not reported as pole", z)
		}
		if got := cmplx.Cos(ang.Phi); cmplx.Abs(got-complex(z, 0)) > 1e-15 {
			t.Errorf("pole z=%v: cos(phi) = %v", z, got)
		}
	}
}

func TestToAngles_RoundTripComplex(t *testing.T) {
	for _, m := range []float64{2, 10, 100} {
		tz := 0.75
		v := Vec3{complex(m, 0), cmplx.Sqrt(complex(1-tz*tz-m*m, 0)), complex(tz, 0)}
		if err := ValidateDirection(v, 1e-9); err != nil {
			t.Fatalf("probe M=%v not on quadric: %v", m, err)
		}
		ang, err := ToAngles(v)
		if err != nil {
			t.Fatal(err)
		}
		if got := FromAngles(ang); !closeVec(got, v, 1e-10) {
			t.Errorf("M=%v: round trip got %v, want %v", m, got, v)
		}

		flipped := Vec3{-v[0], v[1], v[2]}
		ang, err = ToAngles(flipped)
		if err != nil {
			t.Fatal(err)
		}
		if got := FromAngles(ang); !closeVec(got, flipped, 1e-10) {
			t.Errorf("M=%v flipped: round trip got %v, want %v", m, got, flipped)
		}
	}
}

func TestToAngles_ZeroVector(t *testing.T) {
	if _, err := ToAngles(Vec3{}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("expected ErrZeroVector, got %v", err)
	}
}

func TestValidateDirection(t *testing.T) {
	if err := ValidateDirection(Real(0, 0, 1), 1e-12); err != nil {
		t.Errorf("unit z rejected: %v", err)
	}
	err := ValidateDirection(Real(1, 1, 0), 1e-6)
	if !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
	if err := ValidateDirection(Vec3{complex(math.NaN(), 0), 0, 1}, 1e-6); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("NaN direction accepted: %v", err)
	}
}

func TestVec3_DotIsBilinear(t *testing.T) {
	v := Vec3{1i, 0, 0}
	if got := v.Dot(v); got != -1 {
		t.Errorf("i*i should be -1 under the bilinear product, got %v", got)
	}
	if got := v.Norm(); got != 1 {
		t.Errorf("Norm = %v, want 1", got)
	}
}
