package main

import (
	"fmt"
	"math/cmplx"

	"github.com/spf13/cobra"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/experiment"
	"github.com/san-kum/invscat/internal/export"
	"github.com/san-kum/invscat/internal/mesh"
	"github.com/san-kum/invscat/internal/storage"
)

// plotSource returns the configuration and field matrix to draw: those of a
// saved run when an id is given, otherwise of a fresh run.
func plotSource(cmd *cobra.Command, args []string) (*config.Config, [][]complex128, *experiment.Result, error) {
	if len(args) == 1 {
		st := storage.New(dataDir)
		meta, err := st.Load(args[0])
		if err != nil {
			return nil, nil, nil, err
		}
		if meta.Config == nil {
			return nil, nil, nil, fmt.Errorf("run %s has no configuration", args[0])
		}
		field, err := st.LoadField(args[0])
		if err != nil {
			return nil, nil, nil, err
		}
		return meta.Config, field, nil, nil
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := signalContext()
	defer cancel()

	exp := experiment.New(cfg, experiment.Options{Logger: logger})
	if err := exp.Setup(ctx); err != nil {
		return nil, nil, nil, err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, res.Field, res, nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	path := outPath
	if path == "" {
		path = plotWhat + ".png"
	}

	switch plotWhat {
	case "field":
		_, field, _, err := plotSource(cmd, args)
		if err != nil {
			return err
		}
		g, err := export.MagnitudeGrid(field)
		if err != nil {
			return err
		}
		if err := export.SaveGrid(path, g, "|u(x, alpha)|", "incident direction", "annulus point"); err != nil {
			return err
		}

	case "coefficients":
		if len(args) == 1 {
			return fmt.Errorf("coefficient plots need a fresh run; drop the run id")
		}
		_, _, res, err := plotSource(cmd, args)
		if err != nil {
			return err
		}
		g, err := export.NewGrid(res.Coefficients)
		if err != nil {
			return err
		}
		if err := export.SaveGrid(path, g, "per-degree |A_l|", "degree", "incident direction"); err != nil {
			return err
		}

	case "mollweide":
		cfg, field, _, err := plotSource(cmd, args)
		if err != nil {
			return err
		}
		sphere, err := mesh.New(mesh.Kind(cfg.Mesh.Kind), cfg.Resolution())
		if err != nil {
			return err
		}
		if len(field) < sphere.Len() {
			return fmt.Errorf("field has %d rows, mesh %d directions", len(field), sphere.Len())
		}
		// The innermost annulus radius comes first.
		values := make([]float64, sphere.Len())
		for i := range values {
			values[i] = cmplx.Abs(field[i][0])
		}
		title := "|u| on the inner annulus sphere, first incident direction"
		if err := export.SaveMollweide(path, sphere.Directions(), values, title); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown plot %q (want field, coefficients or mollweide)", plotWhat)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
