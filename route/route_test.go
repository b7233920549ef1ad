package route

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/polar"
	"github.com/a-bouts/digital-navigator/wind"
)

var geo10 = grid.Geometry{Rows: 10, Cols: 10, CellSize: 1000}

// steadyWind blows the same everywhere, until End when set.
type steadyWind struct {
	speed, direction float64
	geo              grid.Geometry
	end              time.Time
}

func (w steadyWind) Sample(ctx context.Context, t time.Time) (*wind.Sample, error) {
	if !w.end.IsZero() && !t.Before(w.end) {
		return nil, &wind.MissingError{Time: t, Err: wind.ErrMissing}
	}
	return &wind.Sample{
		Time:      t,
		Speed:     grid.Filled(w.geo, w.speed),
		Direction: grid.Filled(w.geo, w.direction),
	}, nil
}

func row(geo grid.Geometry, vs ...float64) *grid.Grid {
	g, _ := grid.FromRows(geo, [][]float64{vs})
	return g
}

func TestBuildCost(t *testing.T) {
	geo := grid.Geometry{Rows: 1, Cols: 3, CellSize: 1}
	cost, err := BuildCost(row(geo, 4, 0, 4), row(geo, 2, 1, math.NaN()), row(geo, 1, 1, 1))
	require.NoError(t, err)

	v, ok := cost.At(0, 0)
	require.True(t, ok)
	assert.Equal(t, 0.5, v)
	_, ok = cost.At(0, 1)
	assert.False(t, ok)
	_, ok = cost.At(0, 2)
	assert.False(t, ok)

	_, err = BuildCost(grid.Filled(geo10, 1), row(geo, 1, 1, 1), row(geo, 1, 1, 1))
	assert.True(t, errors.Is(err, grid.ErrGeometryMismatch))
}

func TestPathDistanceUniform(t *testing.T) {
	cost := grid.Filled(geo10, 0.25)
	dir := grid.Filled(geo10, 0)
	src := grid.Mask(geo10, geo10.Index(0, 0))

	dist, err := PathDistance(src, cost, dir, polar.Isotropic())
	require.NoError(t, err)

	tests := []struct {
		row, col int
		want     float64
	}{
		{0, 0, 0},
		{0, 9, 2250},
		{9, 0, 2250},
		{9, 9, 9 * 1000 * math.Sqrt2 * 0.25},
		{5, 9, 5*1000*math.Sqrt2*0.25 + 4*1000*0.25},
	}
	for _, tt := range tests {
		v, ok := dist.Cost.At(tt.row, tt.col)
		require.True(t, ok)
		assert.InDelta(t, tt.want, v, 1e-9, "cell %d,%d", tt.row, tt.col)
	}

	assert.Equal(t, BackLinkSource, dist.BackLink[geo10.Index(0, 0)])
	// predecessor of (0,1) is to the west
	assert.Equal(t, int8(7), dist.BackLink[geo10.Index(0, 1)])
	// predecessor of (1,1) is to the north west
	assert.Equal(t, int8(8), dist.BackLink[geo10.Index(1, 1)])
}

func TestPathDistanceAnisotropic(t *testing.T) {
	geo := grid.Geometry{Rows: 3, Cols: 3, CellSize: 1}
	hf, err := polar.NewHorizontalFactor([]float64{0, 180}, []float64{1, 3})
	require.NoError(t, err)

	// wind blowing toward the east
	dist, err := PathDistance(grid.Mask(geo, geo.Index(1, 1)), grid.Filled(geo, 1), grid.Filled(geo, 90), hf)
	require.NoError(t, err)

	v, _ := dist.Cost.At(1, 2)
	assert.InDelta(t, 1.0, v, 1e-12)
	v, _ = dist.Cost.At(1, 0)
	assert.InDelta(t, 3.0, v, 1e-12)
	v, _ = dist.Cost.At(0, 1)
	assert.InDelta(t, 2.0, v, 1e-12)
}

func TestPathDistanceHalfAndHalf(t *testing.T) {
	geo := grid.Geometry{Rows: 1, Cols: 2, CellSize: 10}
	dist, err := PathDistance(grid.Mask(geo, 0), row(geo, 1, 3), row(geo, 0, 0), polar.Isotropic())
	require.NoError(t, err)

	v, _ := dist.Cost.At(0, 1)
	assert.InDelta(t, 20.0, v, 1e-12)
}

func TestPathDistanceImpassable(t *testing.T) {
	geo := grid.Geometry{Rows: 1, Cols: 3, CellSize: 1}
	hf, err := polar.NewHorizontalFactor([]float64{0, 90, 180}, []float64{1, 1, math.Inf(1)})
	require.NoError(t, err)

	dist, err := PathDistance(grid.Mask(geo, 1), grid.Filled(geo, 1), grid.Filled(geo, 90), hf)
	require.NoError(t, err)

	_, ok := dist.Cost.At(0, 0)
	assert.False(t, ok)
	assert.Equal(t, BackLinkUnreachable, dist.BackLink[0])
	v, _ := dist.Cost.At(0, 2)
	assert.Equal(t, 1.0, v)
}

func TestPathDistanceWall(t *testing.T) {
	cost := grid.Filled(geo10, 1)
	for r := 0; r < 10; r++ {
		cost.Set(r, 5, math.NaN())
	}
	dist, err := PathDistance(grid.Mask(geo10, 0), cost, grid.Filled(geo10, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, 50, dist.Cost.Count())
	for r := 0; r < 10; r++ {
		assert.Equal(t, BackLinkUnreachable, dist.BackLink[geo10.Index(r, 5)])
		assert.Equal(t, BackLinkUnreachable, dist.BackLink[geo10.Index(r, 7)])
	}
}

func TestPathDistanceTies(t *testing.T) {
	geo := grid.Geometry{Rows: 1, Cols: 3, CellSize: 1}
	src := grid.Mask(geo, 0, 2)

	dist, err := PathDistance(src, grid.Filled(geo, 1), grid.Filled(geo, 0), nil)
	require.NoError(t, err)
	// both sources reach the middle at the same cost, the first seeded one wins
	assert.Equal(t, int8(7), dist.BackLink[1])

	again, err := PathDistance(src, grid.Filled(geo, 1), grid.Filled(geo, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, dist.BackLink, again.BackLink)
	for i := 0; i < geo.Len(); i++ {
		assert.Equal(t, dist.Cost.Value(i), again.Cost.Value(i), "cell %d", i)
	}
}

func TestPathDistanceUntil(t *testing.T) {
	geo := grid.Geometry{Rows: 1, Cols: 5, CellSize: 1}
	cost := grid.Filled(geo, 1)
	dir := grid.Filled(geo, 0)

	dist, err := PathDistance(grid.Mask(geo, 0), cost, dir, nil, Until(grid.Mask(geo, 2)))
	require.NoError(t, err)
	assert.Equal(t, 3, dist.Cost.Count())
	assert.Equal(t, BackLinkUnreachable, dist.BackLink[3])

	_, err = PathDistance(grid.Mask(geo, 0), cost, dir, nil, Until(grid.Mask(geo10, 2)))
	assert.True(t, errors.Is(err, grid.ErrGeometryMismatch))
}

func TestCostPath(t *testing.T) {
	dist, err := PathDistance(grid.Mask(geo10, 0), grid.Filled(geo10, 0.25), grid.Filled(geo10, 0), nil)
	require.NoError(t, err)

	dest := grid.Mask(geo10, geo10.Index(9, 9))
	path, err := CostPath(dist, dest)
	require.NoError(t, err)
	require.Len(t, path.Cells, 10)
	assert.Equal(t, geo10.Index(9, 9), path.Cells[0])
	assert.Equal(t, 0, path.Cells[9])

	for k := 1; k < len(path.Cells); k++ {
		assert.LessOrEqual(t, path.Cost.Value(path.Cells[k]), path.Cost.Value(path.Cells[k-1]))
		r, c := geo10.Cell(path.Cells[k])
		assert.Equal(t, r, c)
	}

	clipped := path.Clip(1000)
	max, ok := clipped.Max()
	require.True(t, ok)
	assert.InDelta(t, 2*1000*math.Sqrt2*0.25, max, 1e-9)
	assert.Equal(t, 3, clipped.Count())
}

func TestCostPathUnreachable(t *testing.T) {
	cost := grid.Filled(geo10, 1)
	for r := 0; r < 10; r++ {
		cost.Set(r, 5, math.NaN())
	}
	dist, err := PathDistance(grid.Mask(geo10, 0), cost, grid.Filled(geo10, 0), nil)
	require.NoError(t, err)

	path, err := CostPath(dist, grid.Mask(geo10, geo10.Index(9, 9)))
	require.NoError(t, err)
	assert.True(t, path.Empty())
	assert.Equal(t, 0, path.Cost.Count())
}

func newStepper(t *testing.T, shallows *grid.Grid, w wind.Provider, dest int) *Stepper {
	t.Helper()
	layers, err := land.New(shallows, grid.Filled(geo10, 1), polar.Isotropic())
	require.NoError(t, err)
	return &Stepper{
		Ship:        polar.DefaultShip(),
		Land:        layers,
		Wind:        w,
		Destination: grid.Mask(geo10, dest),
	}
}

func TestStepReachesDestination(t *testing.T) {
	st := newStepper(t, grid.Filled(geo10, 1), steadyWind{speed: 10, geo: geo10}, geo10.Index(9, 9))
	s := NewState(grid.Mask(geo10, 0))
	require.False(t, s.Reached(st.Destination))

	report, err := st.Step(context.Background(), s, time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, FrontierAdvanced, report.Phase)
	assert.False(t, report.NoProgress)
	assert.True(t, s.Reached(st.Destination))
	assert.Equal(t, 1, s.SubSteps)
	assert.InDelta(t, 9*1000*math.Sqrt2/4, s.Elapsed, 1e-6)
	assert.Equal(t, 10.0, s.MaxWind)
	assert.Equal(t, 10.0, s.MinWind)
	assert.Equal(t, []int{geo10.Index(9, 9)}, s.Frontier.Occupied())
	assert.Equal(t, 10, s.Visited().Count())
}

func TestStepClipsToBudget(t *testing.T) {
	st := newStepper(t, grid.Filled(geo10, 1), steadyWind{speed: 10, geo: geo10}, geo10.Index(9, 9))
	st.Budget = 1000
	s := NewState(grid.Mask(geo10, 0))

	report, err := st.Step(context.Background(), s, time.Time{})
	require.NoError(t, err)

	assert.InDelta(t, 2*1000*math.Sqrt2/4, report.Advance, 1e-9)
	assert.Equal(t, []int{geo10.Index(2, 2)}, s.Frontier.Occupied())
	assert.False(t, s.Reached(st.Destination))

	max, _ := report.Segment.Max()
	assert.LessOrEqual(t, max, 1000.0)
}

func TestStepNoProgress(t *testing.T) {
	shallows := grid.Filled(geo10, 1)
	for r := 0; r < 10; r++ {
		shallows.Set(r, 5, math.NaN())
	}
	st := newStepper(t, shallows, steadyWind{speed: 10, geo: geo10}, geo10.Index(9, 9))
	start := grid.Mask(geo10, 0)
	s := NewState(start)

	report, err := st.Step(context.Background(), s, time.Time{})
	require.NoError(t, err)

	assert.True(t, report.NoProgress)
	assert.Equal(t, 1, s.SubSteps)
	assert.Equal(t, 0.0, s.Elapsed)
	assert.Equal(t, start.Occupied(), s.Frontier.Occupied())
}

func TestStepMissingWind(t *testing.T) {
	at := time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)
	st := newStepper(t, grid.Filled(geo10, 1), steadyWind{speed: 10, geo: geo10, end: at}, geo10.Index(9, 9))
	s := NewState(grid.Mask(geo10, 0))

	report, err := st.Step(context.Background(), s, at)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wind.ErrMissing))
	assert.Equal(t, AwaitingWind, report.Phase)
	assert.Equal(t, 0, s.SubSteps)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "path-solved", PathSolved.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
