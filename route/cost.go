package route

import (
	"math"

	"github.com/a-bouts/digital-navigator/grid"
)

// BuildCost returns the travel cost in seconds per metre: the inverse of the ship speed
// weighted by the shallows and islands penalties. Cells without data in any input, or
// where the ship cannot move, have no data.
func BuildCost(speed, shallows, islands *grid.Grid) (*grid.Grid, error) {
	return grid.Combine(func(vs ...float64) float64 {
		if vs[0] <= 0 {
			return math.NaN()
		}
		return 1 / vs[0] * vs[1] * vs[2]
	}, speed, shallows, islands)
}
