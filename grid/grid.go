// Package grid holds the raster type shared by every stage of a voyage simulation.
//
// All rasters used together in one run share a Geometry. Operations never resample:
// combining grids of different geometry fails with ErrGeometryMismatch.
package grid

import (
	"math"
)

// DefaultNoData is the sentinel written for empty cells when a grid has no other.
const DefaultNoData = -9999.0

// Geometry describes the shape and georeference of a grid. Row 0 is the northern row,
// (XLL, YLL) is the lower left corner of the lower left cell.
type Geometry struct {
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	CellSize float64 `json:"cellSize"`
	XLL      float64 `json:"xll"`
	YLL      float64 `json:"yll"`
}

func (g Geometry) Len() int {
	return g.Rows * g.Cols
}

func (g Geometry) Index(row, col int) int {
	return row*g.Cols + col
}

func (g Geometry) Cell(i int) (int, int) {
	return i / g.Cols, i % g.Cols
}

func (g Geometry) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Equal compares shape exactly and georeference within a millionth of a cell.
func (g Geometry) Equal(o Geometry) bool {
	if g.Rows != o.Rows || g.Cols != o.Cols {
		return false
	}
	eps := 1e-6 * math.Max(math.Abs(g.CellSize), 1)
	return math.Abs(g.CellSize-o.CellSize) <= eps &&
		math.Abs(g.XLL-o.XLL) <= eps &&
		math.Abs(g.YLL-o.YLL) <= eps
}

// Center returns the map coordinates of the center of a cell.
func (g Geometry) Center(row, col int) (float64, float64) {
	x := g.XLL + (float64(col)+0.5)*g.CellSize
	y := g.YLL + (float64(g.Rows-row)-0.5)*g.CellSize
	return x, y
}

// Locate returns the cell containing the map coordinates x, y.
func (g Geometry) Locate(x, y float64) (int, int, bool) {
	col := int(math.Floor((x - g.XLL) / g.CellSize))
	row := g.Rows - 1 - int(math.Floor((y-g.YLL)/g.CellSize))
	if !g.InBounds(row, col) {
		return 0, 0, false
	}
	return row, col, true
}

// Grid is a raster of float64 values. Cells without data hold NaN internally;
// NoData is only the sentinel used when the grid is read or written.
type Grid struct {
	Geometry
	NoData float64
	data   []float64
}

// New returns a grid where every cell is no-data.
func New(geo Geometry) *Grid {
	g := &Grid{Geometry: geo, NoData: DefaultNoData, data: make([]float64, geo.Len())}
	for i := range g.data {
		g.data[i] = math.NaN()
	}
	return g
}

// Filled returns a grid where every cell holds v.
func Filled(geo Geometry, v float64) *Grid {
	g := &Grid{Geometry: geo, NoData: DefaultNoData, data: make([]float64, geo.Len())}
	for i := range g.data {
		g.data[i] = v
	}
	return g
}

// FromRows builds a grid from row-major values; NaN marks no-data.
func FromRows(geo Geometry, rows [][]float64) (*Grid, error) {
	if len(rows) != geo.Rows {
		return nil, configErrorf("from rows", "%d rows for a %dx%d geometry", len(rows), geo.Rows, geo.Cols)
	}
	g := New(geo)
	for r, row := range rows {
		if len(row) != geo.Cols {
			return nil, configErrorf("from rows", "row %d has %d cells, want %d", r, len(row), geo.Cols)
		}
		copy(g.data[r*geo.Cols:], row)
	}
	return g, nil
}

func (g *Grid) At(row, col int) (float64, bool) {
	v := g.data[g.Index(row, col)]
	return v, !math.IsNaN(v)
}

func (g *Grid) Set(row, col int, v float64) {
	g.data[g.Index(row, col)] = v
}

// Value returns the raw value at a flat index, NaN when the cell has no data.
func (g *Grid) Value(i int) float64 {
	return g.data[i]
}

func (g *Grid) SetValue(i int, v float64) {
	g.data[i] = v
}

func (g *Grid) IsNoData(i int) bool {
	return math.IsNaN(g.data[i])
}

func (g *Grid) Clone() *Grid {
	c := &Grid{Geometry: g.Geometry, NoData: g.NoData, data: make([]float64, len(g.data))}
	copy(c.data, g.data)
	return c
}

// Count returns the number of cells holding data.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Indices returns, in row-major order, the data cells for which keep is true.
func (g *Grid) Indices(keep func(v float64) bool) []int {
	var res []int
	for i, v := range g.data {
		if !math.IsNaN(v) && keep(v) {
			res = append(res, i)
		}
	}
	return res
}

// Min returns the smallest data value; ok is false when the grid holds no data.
func (g *Grid) Min() (float64, bool) {
	min, ok := math.Inf(1), false
	for _, v := range g.data {
		if !math.IsNaN(v) && v < min {
			min, ok = v, true
		}
	}
	return min, ok
}

// Max returns the largest data value; ok is false when the grid holds no data.
func (g *Grid) Max() (float64, bool) {
	max, ok := math.Inf(-1), false
	for _, v := range g.data {
		if !math.IsNaN(v) && v > max {
			max, ok = v, true
		}
	}
	return max, ok
}
