package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/invscat/internal/automation"
	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/experiment"
	"github.com/san-kum/invscat/internal/inverse"
	"github.com/san-kum/invscat/internal/mesh"
	"github.com/san-kum/invscat/internal/optim"
	"github.com/san-kum/invscat/internal/storage"
	"github.com/san-kum/invscat/internal/viz"
)

const magnitudeRows = 3

func styles() viz.Styles { return viz.NewStyles(viz.GetTheme(themeName)) }

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runForward(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	fwd, err := experiment.RunForward(cfg)
	if err != nil {
		return err
	}

	fmt.Println(viz.RenderForward(styles(), cfg, fwd))
	caption := "|A_lm(alpha)| against m+n, one line per degree"
	if cfg.Harmonics == config.HarmonicsReal {
		caption = "|A_l(alpha)| against degree"
	}
	if plot := viz.PlotMagnitudes(fwd.Magnitudes, caption); plot != "" {
		fmt.Println(plot)
	}
	return nil
}

func runInvert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	exp := experiment.New(cfg, experiment.Options{Logger: logger})
	fmt.Printf("setting up %s run (n=%d, %s mesh)...\n", cfg.Optimizer.Method, cfg.N, cfg.Mesh.Kind)
	if err := exp.Setup(ctx); err != nil {
		return err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	s := styles()
	fmt.Println(viz.RenderReport(s, cfg, res))
	if plot := viz.PlotHistory(res.Optimization.History); plot != "" {
		fmt.Println(plot)
	}
	rows := res.Coefficients[:min(magnitudeRows, len(res.Coefficients))]
	if plot := viz.PlotMagnitudes(rows, "per-degree |A_l| for the first incident directions"); plot != "" {
		fmt.Println(plot)
	}

	if save {
		return saveRun(cfg, res)
	}
	return nil
}

func saveRun(cfg *config.Config, res *experiment.Result) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta, data := res.Record(cfg)
	runID, err := st.Save(meta, data)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	model := viz.NewProgressModel(cfg, viz.GetTheme(themeName), cancel)
	p := tea.NewProgram(model)

	go func() {
		exp := experiment.New(cfg, experiment.Options{
			Logger: logger,
			Progress: func(pr inverse.Progress) {
				p.Send(viz.ProgressMsg(pr))
			},
		})
		var res *experiment.Result
		err := exp.Setup(ctx)
		if err == nil {
			res, err = exp.Run(ctx)
		}
		p.Send(viz.DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	res, err := final.(viz.ProgressModel).Result()
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Println("run canceled")
		return nil
	}
	if save {
		return saveRun(cfg, res)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping resolutions %v...\n", resolutions)
	points, err := experiment.Sweep(ctx, cfg, resolutions, experiment.Options{Logger: logger})
	if len(points) > 0 {
		s := styles()
		fmt.Println(viz.RenderSweep(s, points))
		if plot := viz.PlotSweep(points); plot != "" {
			fmt.Println(plot)
		}
	}
	return err
}

func runFourier(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	probe, err := mesh.NewProbe(mesh.ProbeKind(cfg.Probe.Kind), cfg.Probe.Magnitude, cfg.Probe.T)
	if err != nil {
		return err
	}
	sphere, err := mesh.New(mesh.Kind(cfg.Mesh.Kind), cfg.Resolution())
	if err != nil {
		return err
	}

	fmt.Printf("psi = %v\n", probe.Psi)
	analytic := inverse.AnalyticFourier(cfg.Q, cfg.A, probe.Psi)
	for _, mode := range []inverse.ReferenceMode{inverse.ReferenceAnalytic, inverse.ReferenceGrid, inverse.ReferenceQuadrature} {
		v, err := inverse.Reference(mode, cfg.Q, cfg.A, probe.Psi, sphere, cfg.Reference.Radii, cfg.Reference.Order)
		if err != nil {
			return fmt.Errorf("%s: %w", mode, err)
		}
		fmt.Printf("  %-11s %.10g  (rel. to analytic %.3g)\n", mode, v, inverse.RelativeError(v, analytic))
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(scanParams) == 0 {
		return fmt.Errorf("scan needs at least one --param (have %v)", optim.ParamNames())
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	params := make([]optim.Param, len(scanParams))
	for i, spec := range scanParams {
		if params[i], err = optim.ParseParam(spec); err != nil {
			return err
		}
	}
	ctx, cancel := signalContext()
	defer cancel()

	g := optim.NewGridSearch(params...)
	fmt.Printf("scanning %d grid points...\n", g.Size())
	best, all, err := g.Search(ctx, cfg, experiment.Options{Logger: logger})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tREL.ERR\tJ\tCONVERGED\tERROR")
	for _, c := range all {
		msg := ""
		if c.Err != nil {
			msg = c.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%v\t%s\n", formatPoint(c.Values), c.RelativeError, c.Objective, c.Converged, msg)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Printf("best: %s (relative error %.4g)\n", formatPoint(best.Values), best.RelativeError)
	return nil
}

func formatPoint(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%g", k, values[k])
	}
	return strings.Join(parts, " ")
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running scenario %s (%d steps)...\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, experiment.Options{Logger: logger}, st)
	s := styles()
	for i, r := range results {
		fmt.Printf("step %d/%d: %s\n", i+1, len(sc.Steps), r.Name)
		fmt.Println(viz.RenderReport(s, r.Config, r.Result))
		if r.RunID != "" {
			fmt.Printf("run id: %s\n", r.RunID)
		}
	}
	return err
}
