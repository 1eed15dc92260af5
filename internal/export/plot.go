package export

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/invscat/internal/geom"
)

const (
	paletteSize = 64
	outlineSize = 181
)

// Size of saved figures. The format follows the file extension (png, svg,
// pdf, ...).
var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

func heatPalette() palette.Palette { return palette.Heat(paletteSize, 1) }

// HeatMap builds a heat map plot of g with axis labels xlabel, ylabel.
func HeatMap(g *Grid, title, xlabel, ylabel string) (*plot.Plot, error) {
	c, r := g.Dims()
	if c < 2 || r < 2 {
		return nil, fmt.Errorf("%w: heat map needs at least 2x2, got %dx%d", ErrShape, r, c)
	}
	h := plotter.NewHeatMap(g, heatPalette())
	if h.Max == h.Min {
		h.Max = h.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(h)
	return p, nil
}

// SaveHeatMap writes |matrix| as a heat map, rows along y.
func SaveHeatMap(path string, matrix [][]complex128, title string) error {
	g, err := MagnitudeGrid(matrix)
	if err != nil {
		return err
	}
	return SaveGrid(path, g, title, "column", "row")
}

// SaveGrid writes a heat map of g.
func SaveGrid(path string, g *Grid, title, xlabel, ylabel string) error {
	p, err := HeatMap(g, title, xlabel, ylabel)
	if err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}

// MollweidePlot builds an equal-area scatter of values over real directions.
func MollweidePlot(dirs []geom.Vec3, values []float64, title string) (*plot.Plot, error) {
	if len(dirs) == 0 || len(dirs) != len(values) {
		return nil, fmt.Errorf("%w: %d directions, %d values", ErrShape, len(dirs), len(values))
	}

	pts := make(plotter.XYs, len(dirs))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, d := range dirs {
		lon, lat, err := LonLat(d)
		if err != nil {
			return nil, fmt.Errorf("direction %d: %w", i, err)
		}
		pts[i].X, pts[i].Y = Mollweide(lon, lat)
		if !math.IsNaN(values[i]) {
			lo = math.Min(lo, values[i])
			hi = math.Max(hi, values[i])
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	colors := heatPalette().Colors()
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  shade(colors, values[i], lo, hi),
			Radius: vg.Points(3),
			Shape:  draw.CircleGlyph{},
		}
	}

	outline := make(plotter.XYs, outlineSize)
	for i := range outline {
		t := 2 * math.Pi * float64(i) / float64(outlineSize-1)
		outline[i].X = 2 * math.Sqrt2 * math.Cos(t)
		outline[i].Y = math.Sqrt2 * math.Sin(t)
	}
	border, err := plotter.NewLine(outline)
	if err != nil {
		return nil, err
	}
	border.Color = color.Gray{Y: 128}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(border, scatter)
	return p, nil
}

// SaveMollweide writes a Mollweide projection of values over dirs.
func SaveMollweide(path string, dirs []geom.Vec3, values []float64, title string) error {
	p, err := MollweidePlot(dirs, values, title)
	if err != nil {
		return err
	}
	return p.Save(Width, Width/2, path)
}

// shade maps v in [lo, hi] onto colors. NaN is drawn black.
func shade(colors []color.Color, v, lo, hi float64) color.Color {
	if math.IsNaN(v) {
		return color.Black
	}
	if hi <= lo {
		return colors[len(colors)-1]
	}
	i := int((v - lo) / (hi - lo) * float64(len(colors)-1))
	return colors[max(0, min(i, len(colors)-1))]
}
