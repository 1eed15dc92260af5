package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/inverse"
)

var (
	dataDir    string
	configFile string
	presetName string
	logLevel   string
	themeName  string
	workers    int
	// medium and meshes
	order     int
	radius    float64
	potential float64
	wavenum   float64
	harmonics string
	meshKind  string
	mphi      int
	radii     int
	probeKind string
	magnitude float64
	// optimizer
	method   string
	tol      float64
	maxIter  int
	start    string
	refMode  string
	save     bool
	outPath  string
	plotWhat string
	csvWhat  string
	// sweep and scan
	resolutions []int
	scanParams  []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "invscat",
		Short:        "inverse scattering lab for a spherically embedded potential",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".invscat", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "dark", "terminal theme")

	forwardCmd := &cobra.Command{
		Use:   "forward",
		Short: "scattering amplitude and total field at the configured point",
		RunE:  runForward,
	}
	addConfigFlags(forwardCmd)

	invertCmd := &cobra.Command{
		Use:   "invert",
		Short: "minimize J(nu) and recover the Fourier transform of q",
		RunE:  runInvert,
	}
	addConfigFlags(invertCmd)
	invertCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "invert with a live optimizer view",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "relative error against mesh resolution",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().IntSliceVar(&resolutions, "resolutions", []int{2, 3, 4, 5}, "mesh resolutions (mphi or rootn, and annulus radii)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "grid search over configuration parameters for the smallest error",
		RunE:  runScan,
	}
	addConfigFlags(scanCmd)
	scanCmd.Flags().StringArrayVar(&scanParams, "param", nil, "parameter grid name=v1,v2 (repeatable)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of reconstructions",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	fourierCmd := &cobra.Command{
		Use:   "fourier",
		Short: "reference transforms of q at the probe frequency",
		RunE:  runFourier,
	}
	addConfigFlags(fourierCmd)

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "write a heat map or Mollweide figure (png, svg, pdf by extension)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlot,
	}
	addConfigFlags(plotCmd)
	plotCmd.Flags().StringVar(&plotWhat, "what", "field", "field, coefficients or mollweide")
	plotCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <what>.png)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the metadata of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export nu, the optimizer history or the field matrix of a run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&csvWhat, "what", "nu", "nu, history or field")
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets, optionally for one harmonic model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.ListModels()
			if len(args) > 0 {
				models = args
			}
			for _, model := range models {
				presets := config.ListPresets(model)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", model)
					continue
				}
				fmt.Printf("presets for %s:\n", model)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list optimizer methods",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range inverse.Methods() {
				fmt.Printf("  %-12s %s\n", m, inverse.Describe(inverse.Method(m)))
			}
		},
	}

	rootCmd.AddCommand(forwardCmd, invertCmd, liveCmd, sweepCmd, scanCmd, batchCmd, fourierCmd, plotCmd,
		listCmd, showCmd, exportCSVCmd, presetsCmd, methodsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&presetName, "preset", "", "start from a preset")
	f.IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	f.IntVar(&order, "n", config.DefaultN, "truncation order")
	f.Float64Var(&radius, "a", config.DefaultA, "ball radius")
	f.Float64Var(&potential, "q", config.DefaultQ, "potential inside the ball")
	f.Float64Var(&wavenum, "k", config.DefaultK, "wavenumber")
	f.StringVar(&harmonics, "harmonics", config.HarmonicsComplex, "forward model: complex or real")
	f.StringVar(&meshKind, "mesh", "banded", "sphere mesh: banded or latlong")
	f.IntVar(&mphi, "mphi", config.DefaultMPhi, "mesh resolution (latitude bands, or rootn for latlong)")
	f.IntVar(&radii, "radii", config.DefaultRadii, "annulus radii")
	f.StringVar(&probeKind, "probe", "oblique", "probe pair: oblique or axial")
	f.Float64Var(&magnitude, "magnitude", config.DefaultMagnitude, "probe magnitude M")
	f.StringVar(&method, "method", string(inverse.MethodBFGS), "optimizer method")
	f.Float64Var(&tol, "tol", inverse.DefaultGradTol, "gradient tolerance")
	f.IntVar(&maxIter, "max-iter", inverse.DefaultOptions().MaxIterations, "iteration limit")
	f.StringVar(&start, "start", string(inverse.StartHarmonic), "start vector: harmonic, uniform or zero")
	f.StringVar(&refMode, "reference", string(inverse.ReferenceAnalytic), "reference transform: analytic, grid or quadrature")
}
