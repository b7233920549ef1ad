package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/store"
	"github.com/a-bouts/digital-navigator/wind"
)

var geo10 = grid.Geometry{Rows: 10, Cols: 10, CellSize: 1000}

func writeFixtures(t *testing.T, dir string, days int) {
	t.Helper()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0755))
	require.NoError(t, grid.SaveASCII(filepath.Join(data, land.ShallowsFile), grid.Filled(geo10, 1)))
	require.NoError(t, grid.SaveASCII(filepath.Join(data, land.IslandsFile), grid.Filled(geo10, 1)))
	require.NoError(t, os.WriteFile(filepath.Join(data, land.HorizontalFactorFile), []byte("0 1\n180 1\n"), 0644))

	a := wind.Archive{Dir: filepath.Join(dir, "wind")}
	require.NoError(t, os.MkdirAll(filepath.Join(a.Dir, "speed"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(a.Dir, "direction"), 0755))
	for d := 0; d < days; d++ {
		at := time.Date(1979, 1, 1+d, 0, 0, 0, 0, time.UTC)
		require.NoError(t, grid.SaveASCII(a.SpeedFile(at), grid.Filled(geo10, 10)))
		require.NoError(t, grid.SaveASCII(a.DirectionFile(at), grid.Filled(geo10, 0)))
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, 2)

	err := run([]string{
		"-start", "1979-01-01",
		"-days", "2",
		"-data", filepath.Join(dir, "data"),
		"-wind", filepath.Join(dir, "wind"),
		"-start-point", "500,9500",
		"-end-point", "9500,500",
		"-results", filepath.Join(dir, "results.txt"),
		"-routes", filepath.Join(dir, "routes"),
		"-db", filepath.Join(dir, "voyages.db"),
	})
	require.NoError(t, err)

	records, err := store.ReadResults(filepath.Join(dir, "results.txt"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].SubSteps)
	assert.InDelta(t, 0.0368, records[0].ElapsedDays, 1e-4)

	_, err = os.Stat(filepath.Join(dir, "routes", "r79010200.asc"))
	assert.NoError(t, err)

	db, err := store.OpenSQLite(filepath.Join(dir, "voyages.db"))
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.Results(10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRunMissingWind(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, 1)

	err := run([]string{
		"-start", "1979-01-01",
		"-days", "3",
		"-data", filepath.Join(dir, "data"),
		"-wind", filepath.Join(dir, "wind"),
		"-start-point", "500,9500",
		"-end-point", "9500,500",
		"-results", filepath.Join(dir, "results.txt"),
		"-routes", filepath.Join(dir, "routes"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wind.ErrMissing)

	records, err := store.ReadResults(filepath.Join(dir, "results.txt"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRunConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, 1)
	base := []string{
		"-data", filepath.Join(dir, "data"),
		"-wind", filepath.Join(dir, "wind"),
		"-results", filepath.Join(dir, "results.txt"),
		"-routes", filepath.Join(dir, "routes"),
		"-start", "1979-01-01",
	}

	tests := [][]string{
		{"-data", filepath.Join(dir, "missing")},
		{"-wind-format", "netcdf"},
		{"-start-point", "500,9500", "-end-point", "99500,500"},
		{"-start-point", "nowhere.shp"},
		{"-start-point", "500,9500", "-end-point", "9500,500", "-start", "01/01/1979"},
	}
	for _, extra := range tests {
		err := run(append(append([]string{}, base...), extra...))
		assert.Error(t, err, "%v", extra)
	}
}

func TestLoadPassage(t *testing.T) {
	p, err := loadPassage("1,2", "3,4")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Start.X)
	assert.Equal(t, 4.0, p.End.Y)

	_, err = loadPassage("1,2", "3")
	assert.Error(t, err)
}
