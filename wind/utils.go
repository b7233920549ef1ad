package wind

import (
	"math"

	"github.com/a-bouts/digital-navigator/grid"
)

// Direction returns the bearing the wind blows toward, clockwise from north in [0, 360).
func Direction(u, v float64) float64 {
	d := math.Atan2(u, v) * 180 / math.Pi
	if d < 0 {
		d += 360
	}
	return d
}

func Speed(u, v float64) float64 {
	return math.Sqrt(u*u + v*v)
}

// FromComponents converts u and v component grids into speed and direction grids.
func FromComponents(u, v *grid.Grid) (*grid.Grid, *grid.Grid, error) {
	speed, err := grid.Combine(func(c ...float64) float64 { return Speed(c[0], c[1]) }, u, v)
	if err != nil {
		return nil, nil, err
	}
	direction, err := grid.Combine(func(c ...float64) float64 { return Direction(c[0], c[1]) }, u, v)
	if err != nil {
		return nil, nil, err
	}
	return speed, direction, nil
}
