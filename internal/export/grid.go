package export

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	ErrShape      = errors.New("export: matrix must be rectangular and non-empty")
	ErrProjection = errors.New("export: direction cannot be projected")
)

// Grid is a rectangular matrix of values laid out for a heat map: column c
// of row r sits at (c, r). It implements plotter.GridXYZ.
type Grid struct {
	values   [][]float64
	min, max float64
}

// NewGrid wraps values, which must be rectangular. NaNs are kept but do not
// count towards the range.
func NewGrid(values [][]float64) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ErrShape
	}
	g := &Grid{values: values, min: math.Inf(1), max: math.Inf(-1)}
	for r, row := range values {
		if len(row) != len(values[0]) {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, r, len(row), len(values[0]))
		}
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			g.min = math.Min(g.min, v)
			g.max = math.Max(g.max, v)
		}
	}
	return g, nil
}

// MagnitudeGrid is the grid of |m[r][c]|.
func MagnitudeGrid(m [][]complex128) (*Grid, error) {
	values := make([][]float64, len(m))
	for r, row := range m {
		values[r] = make([]float64, len(row))
		for c, v := range row {
			values[r][c] = cmplx.Abs(v)
		}
	}
	return NewGrid(values)
}

func (g *Grid) Dims() (c, r int)    { return len(g.values[0]), len(g.values) }
func (g *Grid) Z(c, r int) float64  { return g.values[r][c] }
func (g *Grid) X(c int) float64     { return float64(c) }
func (g *Grid) Y(r int) float64     { return float64(r) }
func (g *Grid) Min() float64        { return g.min }
func (g *Grid) Max() float64        { return g.max }
func (g *Grid) Values() [][]float64 { return g.values }
