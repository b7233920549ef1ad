// Package voyage simulates the voyages of a range of start days.
package voyage

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/passage"
	"github.com/a-bouts/digital-navigator/polar"
	"github.com/a-bouts/digital-navigator/route"
	"github.com/a-bouts/digital-navigator/wind"
)

const (
	DefaultMaxSubSteps = 2000
	DefaultSubStep     = wind.Step
)

// ErrStalled is returned when a day uses all its sub-steps without reaching the destination.
var ErrStalled = errors.New("voyage: destination not reached")

type Config struct {
	Ship polar.Ship
	// SubStep is both the wind time step and the travel budget of one sub-step.
	SubStep     time.Duration
	MaxSubSteps int
	Workers     int
}

// DayState is the progress of the voyage starting on one day.
type DayState struct {
	Start time.Time
	// At is the time of the next wind sample.
	At time.Time
	*route.State
}

// Simulator runs voyages from a start cell to a destination cell. It is safe to run several
// days at once: everything it holds is read-only.
type Simulator struct {
	Config
	stepper *route.Stepper
	start   *grid.Grid
}

func NewSimulator(cfg Config, layers *land.Layers, winds wind.Provider, p passage.Passage) (*Simulator, error) {
	if err := cfg.Ship.Validate(); err != nil {
		return nil, err
	}
	if cfg.SubStep <= 0 {
		cfg.SubStep = DefaultSubStep
	}
	if cfg.MaxSubSteps <= 0 {
		cfg.MaxSubSteps = DefaultMaxSubSteps
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	start, end, err := p.Masks(layers.Geometry())
	if err != nil {
		return nil, err
	}
	if !layers.Connected(start, end) {
		log.Warnf("No sea route from %s to %s, every day will stall", p.Start, p.End)
	}

	return &Simulator{
		Config: cfg,
		stepper: &route.Stepper{
			Ship:        cfg.Ship,
			Land:        layers,
			Wind:        winds,
			Destination: end,
			Budget:      cfg.SubStep.Seconds(),
		},
		start: start,
	}, nil
}

// NewDay starts the voyage of the day at start, 00:00 UTC.
func (s *Simulator) NewDay(start time.Time) *DayState {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return &DayState{Start: start, At: start, State: route.NewState(s.start)}
}

// Day sails the voyage starting at start until the destination is reached. It returns the
// record of the day and the cells sailed.
func (s *Simulator) Day(ctx context.Context, start time.Time) (Record, *grid.Grid, error) {
	day := s.NewDay(start)
	logger := log.WithFields(log.Fields{
		"day": wind.Stamp(day.Start),
	})

	for !day.Reached(s.stepper.Destination) {
		if err := ctx.Err(); err != nil {
			return Record{}, nil, err
		}
		if day.SubSteps >= s.MaxSubSteps {
			logger.Warnf("Destination not reached after %d sub-steps", day.SubSteps)
			return day.record(), nil, fmt.Errorf("%s after %d sub-steps: %w", wind.Stamp(day.Start), day.SubSteps, ErrStalled)
		}

		report, err := s.stepper.Step(ctx, day.State, day.At)
		if err != nil {
			logger.WithError(err).Errorf("Sub-step %d failed at %s", day.SubSteps+1, report.Phase)
			return Record{}, nil, err
		}
		if report.NoProgress {
			logger.Debugf("Sub-step %d at %s : no progress", day.SubSteps, wind.Stamp(day.At))
		} else {
			logger.Debugf("Sub-step %d at %s : %.4f days, segment wind %.2f-%.2f, wind %.2f-%.2f",
				day.SubSteps, wind.Stamp(day.At), day.Elapsed/86400, report.SegmentMinWind, report.SegmentMaxWind, day.MinWind, day.MaxWind)
		}
		day.At = day.At.Add(s.SubStep)
	}

	r := day.record()
	logger.Infof("Reached in %.3f days (%d sub-steps)", r.ElapsedDays, r.SubSteps)
	return r, day.Visited(), nil
}

func (d *DayState) record() Record {
	return Record{
		Start:       d.Start,
		ElapsedDays: d.Elapsed / 86400,
		SubSteps:    d.SubSteps,
		MaxWind:     d.MaxWind,
		MinWind:     d.MinWind,
	}
}
