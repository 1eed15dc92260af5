package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/invscat/internal/geom"
	"github.com/san-kum/invscat/internal/mesh"
)

func TestMagnitudeGrid(t *testing.T) {
	g, err := MagnitudeGrid([][]complex128{
		{3 + 4i, 1},
		{0, -2i},
		{complex(math.NaN(), 0), 0.5},
	})
	require.NoError(t, err)

	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 3, r)
	assert.Equal(t, 5.0, g.Z(0, 0))
	assert.Equal(t, 2.0, g.Z(1, 1))
	assert.Equal(t, 0.0, g.Min())
	assert.Equal(t, 5.0, g.Max())
	assert.Equal(t, 1.0, g.X(1))
	assert.Equal(t, 2.0, g.Y(2))
}

func TestNewGrid_Shape(t *testing.T) {
	_, err := NewGrid(nil)
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewGrid([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestMollweide(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		x, y     float64
	}{
		{"origin", 0, 0, 0, 0},
		{"north pole", 1, math.Pi / 2, 0, math.Sqrt2},
		{"south pole", -2, -math.Pi / 2, 0, -math.Sqrt2},
		{"east edge", math.Pi, 0, 2 * math.Sqrt2, 0},
		{"west edge", -math.Pi, 0, -2 * math.Sqrt2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Mollweide(tt.lon, tt.lat)
			assert.InDelta(t, tt.x, x, 1e-12)
			assert.InDelta(t, tt.y, y, 1e-12)
		})
	}
}

func TestMollweide_AuxiliaryAngle(t *testing.T) {
	for _, lat := range []float64{-1.4, -0.7, 0.1, 0.5, 1.2, 1.55} {
		_, y := Mollweide(0, lat)
		th := math.Asin(y / math.Sqrt2)
		assert.InDelta(t, math.Pi*math.Sin(lat), 2*th+math.Sin(2*th), 1e-10, "lat %v", lat)
	}
}

func TestMollweide_InsideEllipse(t *testing.T) {
	s, err := mesh.Banded(6)
	require.NoError(t, err)
	for _, d := range s.Directions() {
		lon, lat, err := LonLat(d)
		require.NoError(t, err)
		x, y := Mollweide(lon, lat)
		assert.LessOrEqual(t, x*x/8+y*y/2, 1+1e-12)
	}
}

func TestLonLat(t *testing.T) {
	lon, lat, err := LonLat(geom.Real(0, 2, 0))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, lon, 1e-12)
	assert.InDelta(t, 0, lat, 1e-12)

	lon, _, err = LonLat(geom.Real(-1, -1e-9, 0))
	require.NoError(t, err)
	assert.Less(t, lon, -3.0)

	_, lat, err = LonLat(geom.Real(0, 0, -1))
	require.NoError(t, err)
	assert.InDelta(t, -math.Pi/2, lat, 1e-12)

	_, _, err = LonLat(geom.Vec3{1i, 0, 0})
	assert.ErrorIs(t, err, ErrProjection)
	_, _, err = LonLat(geom.Vec3{})
	assert.ErrorIs(t, err, ErrProjection)
}

func TestSavePlots(t *testing.T) {
	dir := t.TempDir()
	matrix := [][]complex128{{1, 2, 3}, {4i, 5, 6}}

	for _, name := range []string{"field.png", "field.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveHeatMap(path, matrix, "|u|"))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	s, err := mesh.Banded(3)
	require.NoError(t, err)
	values := make([]float64, s.Len())
	for i := range values {
		values[i] = float64(i)
	}
	path := filepath.Join(dir, "sphere.png")
	require.NoError(t, SaveMollweide(path, s.Directions(), values, "index"))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSavePlots_Errors(t *testing.T) {
	dir := t.TempDir()
	err := SaveHeatMap(filepath.Join(dir, "row.png"), [][]complex128{{1, 2}}, "")
	assert.ErrorIs(t, err, ErrShape)

	err = SaveMollweide(filepath.Join(dir, "m.png"), []geom.Vec3{geom.Real(1, 0, 0)}, nil, "")
	assert.ErrorIs(t, err, ErrShape)
}

func TestConstantGrid(t *testing.T) {
	g, err := NewGrid([][]float64{{2, 2}, {2, 2}})
	require.NoError(t, err)
	p, err := HeatMap(g, "flat", "", "")
	require.NoError(t, err)
	require.NoError(t, p.Save(Width, Height, filepath.Join(t.TempDir(), "flat.png")))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, [][]complex128{{3 + 4i}, {-1}}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"row", "col", "re", "im", "abs"}, records[0])
	assert.Equal(t, []string{"0", "0", "3", "4", "5"}, records[1])
	assert.Equal(t, []string{"1", "0", "-1", "0", "1"}, records[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"n": 9}))
	assert.JSONEq(t, `{"n": 9}`, buf.String())
}
