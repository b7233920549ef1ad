// Package polar turns wind into ship speed and weighs travel against the wind direction.
package polar

import (
	"errors"
	"fmt"

	"github.com/a-bouts/digital-navigator/grid"
)

// Knot in metres per second.
const Knot = 0.51444444444

// Ship holds the speed law of a vessel. Speeds and thresholds are in m/s and are
// compared against the wind speed already multiplied by SpeedRatio.
type Ship struct {
	SpeedRatio     float64 `json:"speedRatio"`
	TopSpeed       float64 `json:"topSpeed"`
	StormThreshold float64 `json:"stormThreshold"`
	StormSpeed     float64 `json:"stormSpeed"`
}

// NewShip derives the thresholds from wind speeds in knots: the ship tops out when the
// wind reaches topWind, and crawls at stormSpeed once it reaches stormWind.
func NewShip(ratio, topWind, stormWind, stormSpeed float64) Ship {
	return Ship{
		SpeedRatio:     ratio,
		TopSpeed:       topWind * Knot * ratio,
		StormThreshold: stormWind * Knot * ratio,
		StormSpeed:     stormSpeed * Knot,
	}
}

// DefaultShip tops out at 25 kn of wind (mid Beaufort 6) and reduces sail to half a knot
// from 40 kn (high Beaufort 8).
func DefaultShip() Ship {
	return NewShip(0.4, 25, 40, 0.5)
}

func (s Ship) Validate() error {
	if s.SpeedRatio <= 0 {
		return grid.Invalid("ship", fmt.Errorf("speed ratio %g must be positive", s.SpeedRatio))
	}
	if s.StormSpeed <= 0 {
		return grid.Invalid("ship", fmt.Errorf("storm speed %g must be positive", s.StormSpeed))
	}
	if s.StormThreshold <= s.TopSpeed {
		return grid.Invalid("ship", errors.New("storm threshold must be above top speed"))
	}
	return nil
}

// Speed returns the ship speed for a wind speed ws.
func (s Ship) Speed(ws float64) float64 {
	v := ws * s.SpeedRatio
	switch {
	case v <= s.TopSpeed:
		return v
	case v <= s.StormThreshold:
		// y=kx+b through (top, top) and (storm threshold, storm speed)
		k := (s.StormSpeed - s.TopSpeed) / (s.StormThreshold - s.TopSpeed)
		b := s.TopSpeed - k*s.TopSpeed
		return k*v + b
	default:
		return s.StormSpeed
	}
}

// SpeedGrid maps a wind speed grid to a ship speed grid, keeping no-data cells.
func (s Ship) SpeedGrid(ws *grid.Grid) *grid.Grid {
	return ws.Map(s.Speed)
}
