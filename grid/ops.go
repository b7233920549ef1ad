package grid

import "math"

// Map applies f to every data cell. A NaN result turns the cell into no-data.
func (g *Grid) Map(f func(v float64) float64) *Grid {
	res := New(g.Geometry)
	res.NoData = g.NoData
	for i, v := range g.data {
		if !math.IsNaN(v) {
			res.data[i] = f(v)
		}
	}
	return res
}

// Combine applies f cell by cell. Cells that are no-data in any input stay no-data.
func Combine(f func(vs ...float64) float64, grids ...*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, configErrorf("combine", "no grids")
	}
	if err := CheckSame(grids[0].Geometry, grids[1:]...); err != nil {
		return nil, err
	}
	res := New(grids[0].Geometry)
	vs := make([]float64, len(grids))
	for i := range res.data {
		valid := true
		for j, g := range grids {
			vs[j] = g.data[i]
			if math.IsNaN(vs[j]) {
				valid = false
				break
			}
		}
		if valid {
			res.data[i] = f(vs...)
		}
	}
	return res, nil
}

// Select takes a where pred holds a non-zero value and b where it holds zero.
// No-data in pred, or in the chosen operand, gives no-data. A nil operand means no-data.
func Select(pred, a, b *Grid) (*Grid, error) {
	for _, g := range []*Grid{a, b} {
		if g != nil {
			if err := CheckSame(pred.Geometry, g); err != nil {
				return nil, err
			}
		}
	}
	res := New(pred.Geometry)
	for i, p := range pred.data {
		if math.IsNaN(p) {
			continue
		}
		src := b
		if p != 0 {
			src = a
		}
		if src != nil {
			res.data[i] = src.data[i]
		}
	}
	return res, nil
}

// Where returns a mask: 1 on data cells for which keep is true, 0 everywhere else.
func (g *Grid) Where(keep func(v float64) bool) *Grid {
	res := Filled(g.Geometry, 0)
	for i, v := range g.data {
		if !math.IsNaN(v) && keep(v) {
			res.data[i] = 1
		}
	}
	return res
}

// Keep returns the values of g on the cells where mask is 1, no-data elsewhere.
func (g *Grid) Keep(mask *Grid) (*Grid, error) {
	if err := CheckSame(g.Geometry, mask); err != nil {
		return nil, err
	}
	res := New(g.Geometry)
	res.NoData = g.NoData
	for i, m := range mask.data {
		if m == 1 {
			res.data[i] = g.data[i]
		}
	}
	return res, nil
}

// MergeLatest overlays two grids: overlay data wins, base data shows through elsewhere.
// Neither input is modified.
func MergeLatest(base, overlay *Grid) (*Grid, error) {
	if err := CheckSame(base.Geometry, overlay); err != nil {
		return nil, err
	}
	res := base.Clone()
	for i, v := range overlay.data {
		if !math.IsNaN(v) {
			res.data[i] = v
		}
	}
	return res, nil
}

// Mask builds a 0/1 mask with 1 on the given flat indices.
func Mask(geo Geometry, indices ...int) *Grid {
	m := Filled(geo, 0)
	for _, i := range indices {
		m.data[i] = 1
	}
	return m
}

// Occupied returns the flat indices of the cells of a mask holding 1.
func (g *Grid) Occupied() []int {
	return g.Indices(func(v float64) bool { return v == 1 })
}
