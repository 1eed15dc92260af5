package storage

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/invscat/internal/config"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	meta := &RunMetadata{
		Config:        config.DefaultConfig(),
		Directions:    15,
		Points:        30,
		Method:        "bfgs",
		Status:        "GradientThreshold",
		Converged:     true,
		Objective:     0.25,
		Recovered:     C(1.5 - 0.25i),
		RelativeError: Float(math.Inf(1)),
		Objective0:    Float(math.NaN()),
	}
	data := &RunData{
		Nu:      []complex128{1 + 2i, -0.5, 3e-17i},
		History: []float64{10, 2, 0.25},
		Field:   [][]complex128{{1, 2i}, {-3 + 1e-300i, 4}},
	}

	runID, err := st.Save(meta, data)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^invert_\d+_[0-9a-f]{8}$`), runID)
	assert.Equal(t, runID, meta.ID)

	loaded, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, meta.Method, loaded.Method)
	assert.Equal(t, meta.Recovered.Value(), loaded.Recovered.Value())
	assert.True(t, math.IsInf(float64(loaded.RelativeError), 1))
	assert.True(t, math.IsNaN(float64(loaded.Objective0)))
	assert.Equal(t, *meta.Config, *loaded.Config)

	nu, err := st.LoadNu(runID)
	require.NoError(t, err)
	assert.Equal(t, data.Nu, nu)

	history, err := st.LoadHistory(runID)
	require.NoError(t, err)
	assert.Equal(t, data.History, history)

	field, err := st.LoadField(runID)
	require.NoError(t, err)
	assert.Equal(t, data.Field, field)
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	first, err := st.Save(&RunMetadata{Method: "lstsq"}, nil)
	require.NoError(t, err)
	second, err := st.Save(&RunMetadata{Method: "bfgs"}, &RunData{Nu: []complex128{1}})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-run"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)
}

func TestStoreLoad_Missing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("invert_0_deadbeef")
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = st.LoadNu("invert_0_deadbeef")
	assert.Error(t, err)
}
