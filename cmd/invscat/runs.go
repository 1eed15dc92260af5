package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/invscat/internal/export"
	"github.com/san-kum/invscat/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tDIRS\tMETHOD\tCONVERGED\tJ\tREL.ERR")

	for _, run := range runs {
		n := 0
		if run.Config != nil {
			n = run.Config.N
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%v\t%.3g\t%.3g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			n,
			run.Directions,
			run.Method,
			run.Converged,
			float64(run.Objective),
			float64(run.RelativeError),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(os.Stdout, meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID := args[0]

	var matrix [][]complex128
	switch csvWhat {
	case "nu":
		nu, err := st.LoadNu(runID)
		if err != nil {
			return err
		}
		matrix = make([][]complex128, len(nu))
		for i, v := range nu {
			matrix[i] = []complex128{v}
		}
	case "history":
		history, err := st.LoadHistory(runID)
		if err != nil {
			return err
		}
		matrix = make([][]complex128, len(history))
		for i, v := range history {
			matrix[i] = []complex128{complex(v, 0)}
		}
	case "field":
		field, err := st.LoadField(runID)
		if err != nil {
			return err
		}
		matrix = field
	default:
		return fmt.Errorf("unknown export %q (want nu, history or field)", csvWhat)
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.WriteCSV(w, matrix); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "exported %s of %s to %s\n", csvWhat, runID, outPath)
	}
	return nil
}
