package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/invscat/internal/experiment"
)

const (
	plotWidth  = 72
	plotHeight = 12
	logFloor   = 1e-300
)

// finiteSeries replaces infinities by NaN, which asciigraph leaves as gaps,
// and reports whether anything is left to draw.
func finiteSeries(values []float64) ([]float64, bool) {
	out := make([]float64, len(values))
	ok := false
	for i, v := range values {
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		if !math.IsNaN(v) {
			ok = true
		}
		out[i] = v
	}
	return out, ok
}

func log10Series(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log10(math.Max(v, logFloor))
	}
	return out
}

// PlotMagnitudes draws one series per row of rows, typically |A_l| against
// degree for a few incident directions.
func PlotMagnitudes(rows [][]float64, caption string) string {
	series := make([][]float64, 0, len(rows))
	for _, r := range rows {
		if s, ok := finiteSeries(r); ok {
			series = append(series, s)
		}
	}
	if len(series) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(3),
		asciigraph.Caption(caption))
}

// PlotHistory draws log10 J(nu) per major iteration.
func PlotHistory(history []float64) string {
	s, ok := finiteSeries(log10Series(history))
	if !ok || len(s) < 2 {
		return ""
	}
	return asciigraph.Plot(s,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("log10 J(nu) per iteration"))
}

// PlotSweep draws log10 of the relative error against the sweep index.
func PlotSweep(points []experiment.SweepPoint) string {
	errs := make([]float64, len(points))
	for i, p := range points {
		errs[i] = p.RelativeError
	}
	s, ok := finiteSeries(log10Series(errs))
	if !ok || len(s) < 2 {
		return ""
	}
	return asciigraph.Plot(s,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("log10 relative error, resolution %d..%d",
			points[0].Resolution, points[len(points)-1].Resolution)))
}
