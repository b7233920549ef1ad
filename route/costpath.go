package route

import (
	"math"

	"github.com/a-bouts/digital-navigator/grid"
)

// Path is a least-cost route back from the destination cells.
type Path struct {
	// Cost holds the accumulated cost on the path cells, no data elsewhere.
	Cost *grid.Grid
	// Cells lists the path cells, walking back from each destination cell to a source in
	// turn. Each walk stops at the first cell already listed.
	Cells []int
}

func (p *Path) Empty() bool {
	return len(p.Cells) == 0
}

// CostPath follows the back-links from every reachable destination cell. An unreachable
// destination gives an empty path.
func CostPath(dist *Distance, destination *grid.Grid) (*Path, error) {
	if err := grid.CheckSame(dist.Cost.Geometry, destination); err != nil {
		return nil, err
	}
	geo := dist.Cost.Geometry
	p := &Path{Cost: grid.New(geo)}

	for _, i := range destination.Occupied() {
		for !dist.Cost.IsNoData(i) && p.Cost.IsNoData(i) {
			p.Cost.SetValue(i, dist.Cost.Value(i))
			p.Cells = append(p.Cells, i)

			b := dist.BackLink[i]
			if b <= BackLinkSource {
				break
			}
			mv := moves[b-1]
			row, col := geo.Cell(i)
			i = geo.Index(row+mv.dr, col+mv.dc)
		}
	}
	return p, nil
}

// Clip keeps the path cells reached within budget.
func (p *Path) Clip(budget float64) *grid.Grid {
	return p.Cost.Map(func(v float64) float64 {
		if v > budget {
			return math.NaN()
		}
		return v
	})
}
