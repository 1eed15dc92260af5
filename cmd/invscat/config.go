package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/mesh"
)

// resolveConfig layers defaults, a preset, a config file and finally the
// flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if presetName != "" {
		p := config.FindPreset(presetName)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v, %v)", presetName,
				config.ListPresets(config.HarmonicsComplex), config.ListPresets(config.HarmonicsReal))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("n") {
		cfg.N = order
		cfg.Mesh.RootN = mesh.RootN(order)
	}
	if f.Changed("a") {
		cfg.A = radius
	}
	if f.Changed("q") {
		cfg.Q = potential
	}
	if f.Changed("k") {
		cfg.K = wavenum
	}
	if f.Changed("harmonics") {
		cfg.Harmonics = harmonics
	}
	if f.Changed("mesh") {
		cfg.Mesh.Kind = meshKind
	}
	if f.Changed("mphi") {
		if mesh.Kind(cfg.Mesh.Kind) == mesh.KindLatLong {
			cfg.Mesh.RootN = mphi
		} else {
			cfg.Mesh.MPhi = mphi
		}
	}
	if f.Changed("radii") {
		cfg.Annulus.Radii = radii
	}
	if f.Changed("probe") {
		cfg.Probe.Kind = probeKind
	}
	if f.Changed("magnitude") {
		cfg.Probe.Magnitude = magnitude
	}
	if f.Changed("method") {
		cfg.Optimizer.Method = method
	}
	if f.Changed("tol") {
		cfg.Optimizer.Tol = tol
	}
	if f.Changed("max-iter") {
		cfg.Optimizer.MaxIterations = maxIter
	}
	if f.Changed("start") {
		cfg.Optimizer.Start = start
	}
	if f.Changed("reference") {
		cfg.Reference.Mode = refMode
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes text records at level to stderr, keeping stdout for
// results.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// setup resolves the configuration and its logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
