package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/inverse"
	"github.com/san-kum/invscat/internal/mesh"
)

const (
	DefaultN            = 9
	DefaultA            = 0.1
	DefaultQ            = 50.0
	DefaultK            = 1.0
	DefaultMPhi         = 3
	DefaultRatio        = 1.1
	DefaultB            = 1.2
	DefaultRadii        = 2
	DefaultMagnitude    = 2.0
	DefaultQuadOrder    = 64
	DefaultLogLevel     = "info"
	HarmonicsComplex    = "complex"
	HarmonicsReal       = "real"
	directionTolerance  = 1e-9
	defaultReferenceRad = 10
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	N         int             `yaml:"n"`
	A         float64         `yaml:"a"`
	Q         float64         `yaml:"q"`
	K         float64         `yaml:"k"`
	Alpha     [3]float64      `yaml:"alpha,flow"`
	X         [3]float64      `yaml:"x,flow"`
	Harmonics string          `yaml:"harmonics"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Annulus   AnnulusConfig   `yaml:"annulus"`
	Probe     ProbeConfig     `yaml:"probe"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Reference ReferenceConfig `yaml:"reference"`
	Workers   int             `yaml:"workers"`
	LogLevel  string          `yaml:"log_level"`
}

type MeshConfig struct {
	Kind  string `yaml:"kind"`
	MPhi  int    `yaml:"mphi"`
	RootN int    `yaml:"rootn"`
}

// AnnulusConfig places the annulus at Ratio*a < |x| < B.
type AnnulusConfig struct {
	Ratio float64 `yaml:"ratio"`
	B     float64 `yaml:"b"`
	Radii int     `yaml:"radii"`
}

type ProbeConfig struct {
	Kind      string  `yaml:"kind"`
	Magnitude float64 `yaml:"magnitude"`
	T         float64 `yaml:"t"`
}

type OptimizerConfig struct {
	Method        string  `yaml:"method"`
	Tol           float64 `yaml:"tol"`
	MaxIterations int     `yaml:"max_iterations"`
	Start         string  `yaml:"start"`
}

type ReferenceConfig struct {
	Mode  string `yaml:"mode"`
	Radii int    `yaml:"radii"`
	Order int    `yaml:"order"`
}

// DefaultConfig is the small example: a strong potential on a small ball,
// probed along z and observed at (1, 0, 0).
func DefaultConfig() *Config {
	return &Config{
		N:         DefaultN,
		A:         DefaultA,
		Q:         DefaultQ,
		K:         DefaultK,
		Alpha:     [3]float64{0, 0, 1},
		X:         [3]float64{1, 0, 0},
		Harmonics: HarmonicsComplex,
		Mesh: MeshConfig{
			Kind:  string(mesh.KindBanded),
			MPhi:  DefaultMPhi,
			RootN: mesh.RootN(DefaultN),
		},
		Annulus: AnnulusConfig{
			Ratio: DefaultRatio,
			B:     DefaultB,
			Radii: DefaultRadii,
		},
		Probe: ProbeConfig{
			Kind:      string(mesh.ProbeOblique),
			Magnitude: DefaultMagnitude,
			T:         mesh.DefaultPsiMagnitude,
		},
		Optimizer: OptimizerConfig{
			Method:        string(inverse.MethodBFGS),
			Tol:           inverse.DefaultGradTol,
			MaxIterations: inverse.DefaultOptions().MaxIterations,
			Start:         string(inverse.StartHarmonic),
		},
		Reference: ReferenceConfig{
			Mode:  string(inverse.ReferenceAnalytic),
			Radii: defaultReferenceRad,
			Order: DefaultQuadOrder,
		},
		LogLevel: DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Kappa is the interior wavenumber k^2 - q.
func (c *Config) Kappa() float64 { return c.K*c.K - c.Q }

// InnerRadius is the annulus inner radius ratio*a.
func (c *Config) InnerRadius() float64 { return c.Annulus.Ratio * c.A }

// Resolution is the parameter of the configured sphere mesh.
func (c *Config) Resolution() int {
	if mesh.Kind(c.Mesh.Kind) == mesh.KindLatLong {
		return c.Mesh.RootN
	}
	return c.Mesh.MPhi
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate rejects configurations the lab cannot run. Directions are
// checked, never normalized.
func (c *Config) Validate() error {
	if c.N < 1 {
		return invalid("truncation order n = %d must be positive", c.N)
	}
	for name, v := range map[string]float64{"a": c.A, "q": c.Q, "k": c.K, "probe.magnitude": c.Probe.Magnitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s = %v is not finite", name, v)
		}
	}
	if c.A <= 0 {
		return invalid("ball radius a = %v must be positive", c.A)
	}
	if c.K <= 0 {
		return invalid("wavenumber k = %v must be positive", c.K)
	}
	if c.Q == c.K*c.K {
		return invalid("q = %v equals k^2: the boundary systems are singular", c.Q)
	}
	if err := geom.ValidateDirection(geom.FromSlice(c.Alpha[:]), directionTolerance); err != nil {
		return fmt.Errorf("%w: alpha: %w", ErrInvalid, err)
	}
	if c.X == [3]float64{} {
		return invalid("observation point x must be non-zero")
	}
	if c.Harmonics != HarmonicsComplex && c.Harmonics != HarmonicsReal {
		return invalid("harmonics %q must be %q or %q", c.Harmonics, HarmonicsComplex, HarmonicsReal)
	}

	switch mesh.Kind(c.Mesh.Kind) {
	case mesh.KindBanded, mesh.KindLatLong:
	default:
		return invalid("mesh kind %q", c.Mesh.Kind)
	}
	if c.Resolution() < 1 {
		return invalid("mesh resolution %d must be positive", c.Resolution())
	}
	if c.Annulus.Ratio <= 1 {
		return invalid("annulus ratio %v must exceed 1 so the annulus lies outside the ball", c.Annulus.Ratio)
	}
	if c.Annulus.B <= c.InnerRadius() {
		return invalid("annulus outer radius b = %v must exceed %v", c.Annulus.B, c.InnerRadius())
	}
	if c.Annulus.Radii < 1 {
		return invalid("annulus radii %d must be positive", c.Annulus.Radii)
	}

	switch mesh.ProbeKind(c.Probe.Kind) {
	case mesh.ProbeOblique, mesh.ProbeAxial:
	default:
		return invalid("probe kind %q", c.Probe.Kind)
	}
	if c.Probe.Magnitude <= 0 {
		return invalid("probe magnitude %v must be positive", c.Probe.Magnitude)
	}

	if !slices.Contains(inverse.Methods(), c.Optimizer.Method) {
		return invalid("optimizer method %q (have %v)", c.Optimizer.Method, inverse.Methods())
	}
	switch inverse.Start(c.Optimizer.Start) {
	case inverse.StartHarmonic, inverse.StartUniform, inverse.StartZero:
	default:
		return invalid("optimizer start %q", c.Optimizer.Start)
	}
	if c.Optimizer.Tol <= 0 {
		return invalid("optimizer tolerance %v must be positive", c.Optimizer.Tol)
	}

	switch inverse.ReferenceMode(c.Reference.Mode) {
	case inverse.ReferenceAnalytic:
	case inverse.ReferenceGrid:
		if c.Reference.Radii < 1 {
			return invalid("grid reference needs radii >= 1, got %d", c.Reference.Radii)
		}
	case inverse.ReferenceQuadrature:
		if c.Reference.Order < 1 {
			return invalid("quadrature reference needs order >= 1, got %d", c.Reference.Order)
		}
	default:
		return invalid("reference mode %q", c.Reference.Mode)
	}
	return nil
}
