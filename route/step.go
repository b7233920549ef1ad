package route

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/polar"
	"github.com/a-bouts/digital-navigator/wind"
)

// DefaultBudget is the travel time of one sub-step, in seconds.
const DefaultBudget = 21600.0

// Phase is the last stage a sub-step went through.
type Phase int

const (
	AwaitingWind Phase = iota
	CostBuilt
	PathSolved
	SegmentClipped
	FrontierAdvanced
)

func (p Phase) String() string {
	switch p {
	case AwaitingWind:
		return "awaiting-wind"
	case CostBuilt:
		return "cost-built"
	case PathSolved:
		return "path-solved"
	case SegmentClipped:
		return "segment-clipped"
	case FrontierAdvanced:
		return "frontier-advanced"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the progress of a voyage within a day.
type State struct {
	// Frontier marks the cells the ship sails from.
	Frontier *grid.Grid
	// Mosaic holds the accumulated cost of every path cell sailed so far, measured from the
	// frontier of the sub-step that reached it.
	Mosaic *grid.Grid
	// Elapsed is the sailing time in seconds.
	Elapsed  float64
	SubSteps int
	MaxWind  float64
	MinWind  float64

	windSeen bool
}

// NewState starts a voyage from the start mask: the mosaic holds 0 on the start cells.
func NewState(start *grid.Grid) *State {
	mosaic := grid.New(start.Geometry)
	for _, i := range start.Occupied() {
		mosaic.SetValue(i, 0)
	}
	return &State{Frontier: start.Clone(), Mosaic: mosaic}
}

// Reached tells whether the mosaic covers any destination cell.
func (s *State) Reached(destination *grid.Grid) bool {
	for _, i := range destination.Occupied() {
		if !s.Mosaic.IsNoData(i) {
			return true
		}
	}
	return false
}

// Visited marks the sailed cells with 1.
func (s *State) Visited() *grid.Grid {
	return s.Mosaic.Map(func(float64) float64 { return 1 })
}

func (s *State) observeWind(min, max float64) {
	if !s.windSeen {
		s.MinWind, s.MaxWind, s.windSeen = min, max, true
		return
	}
	if min < s.MinWind {
		s.MinWind = min
	}
	if max > s.MaxWind {
		s.MaxWind = max
	}
}

// StepReport describes one sub-step.
type StepReport struct {
	Phase   Phase
	At      time.Time
	Segment *grid.Grid
	// Advance is the cost of the furthest cell of the segment, in seconds.
	Advance float64
	// SegmentMinWind and SegmentMaxWind are the wind extremes under the segment.
	SegmentMinWind float64
	SegmentMaxWind float64
	// NoProgress is set when the ship could not move: the frontier and the elapsed time
	// are left unchanged.
	NoProgress bool
}

// Stepper advances a voyage by one sub-step. It holds no per-voyage state and can be shared.
type Stepper struct {
	Ship        polar.Ship
	Land        *land.Layers
	Wind        wind.Provider
	Destination *grid.Grid
	// Budget is the travel time of a sub-step in seconds, DefaultBudget when zero.
	Budget float64
}

func (st *Stepper) budget() float64 {
	if st.Budget > 0 {
		return st.Budget
	}
	return DefaultBudget
}

// Step sails from the frontier of s with the wind at time at. A missing wind sample and
// mismatching grids are returned as errors; s is left untouched then.
func (st *Stepper) Step(ctx context.Context, s *State, at time.Time) (StepReport, error) {
	report := StepReport{Phase: AwaitingWind, At: at}

	sample, err := st.Wind.Sample(ctx, at)
	if err != nil {
		return report, err
	}

	cost, err := BuildCost(st.Ship.SpeedGrid(sample.Speed), st.Land.Shallows, st.Land.Islands)
	if err != nil {
		return report, err
	}
	report.Phase = CostBuilt

	dist, err := PathDistance(s.Frontier, cost, sample.Direction, st.Land.HF, Until(st.Destination))
	if err != nil {
		return report, err
	}
	path, err := CostPath(dist, st.Destination)
	if err != nil {
		return report, err
	}
	report.Phase = PathSolved

	segment := path.Clip(st.budget())
	report.Segment = segment
	report.Phase = SegmentClipped

	max, ok := segment.Max()
	if !ok || max <= 0 {
		s.SubSteps++
		report.NoProgress = true
		log.Debugf("No progress at %s (%d path cells)", wind.Stamp(at), len(path.Cells))
		return report, nil
	}

	frontier := segment.Where(func(v float64) bool { return v == max })
	windUnder, err := sample.Speed.Keep(segment.Where(func(float64) bool { return true }))
	if err != nil {
		return report, err
	}
	mosaic, err := grid.MergeLatest(s.Mosaic, segment)
	if err != nil {
		return report, err
	}

	if min, ok := windUnder.Min(); ok {
		report.SegmentMinWind = min
		report.SegmentMaxWind, _ = windUnder.Max()
		s.observeWind(report.SegmentMinWind, report.SegmentMaxWind)
	}

	s.SubSteps++
	s.Frontier = frontier
	s.Mosaic = mosaic
	s.Elapsed += max
	report.Advance = max
	report.Phase = FrontierAdvanced
	return report, nil
}
