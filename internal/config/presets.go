package config

import (
	"sort"

	"github.com/san-kum/invscat/internal/inverse"
	"github.com/san-kum/invscat/internal/mesh"
)

func preset(edit func(c *Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// Presets are keyed by harmonic model, then by name.
var Presets = map[string]map[string]*Config{
	HarmonicsComplex: {
		"small": DefaultConfig(),
		"fine": preset(func(c *Config) {
			c.Mesh.MPhi = 6
			c.Annulus.Radii = 4
			c.Optimizer.Method = string(inverse.MethodLBFGS)
		}),
		"axial": preset(func(c *Config) {
			c.Probe.Kind = string(mesh.ProbeAxial)
			c.Probe.Magnitude = 20
		}),
		"direct": preset(func(c *Config) {
			c.Optimizer.Method = string(inverse.MethodLeastSquares)
			c.Reference.Mode = string(inverse.ReferenceQuadrature)
		}),
	},
	HarmonicsReal: {
		"ball": preset(func(c *Config) {
			c.A = 1
			c.Q = 3
			c.Alpha = [3]float64{0, 1, 0}
			c.X = [3]float64{1, 1, 1}
			c.Harmonics = HarmonicsReal
			c.Mesh.Kind = string(mesh.KindLatLong)
			c.Mesh.RootN = mesh.RootN(c.N)
			c.Annulus.Radii = 1
			c.Probe.Kind = string(mesh.ProbeAxial)
			c.Probe.Magnitude = 4
			c.Reference.Mode = string(inverse.ReferenceGrid)
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// FindPreset looks a preset up by name across all models.
func FindPreset(name string) *Config {
	for _, model := range ListModels() {
		if cfg := GetPreset(model, name); cfg != nil {
			return cfg
		}
	}
	return nil
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModels() []string {
	models := make([]string, 0, len(Presets))
	for m := range Presets {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
