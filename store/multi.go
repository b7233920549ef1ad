package store

import (
	"time"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/voyage"
)

// Multi writes to every sink in turn, stopping at the first error.
type Multi []voyage.Sink

func (m Multi) WriteRoute(start time.Time, visited *grid.Grid) error {
	for _, s := range m {
		if err := s.WriteRoute(start, visited); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) AppendResult(r voyage.Record) error {
	for _, s := range m {
		if err := s.AppendResult(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) BeginRun(run voyage.Run) error {
	for _, s := range m {
		if o, ok := s.(voyage.RunObserver); ok {
			if err := o.BeginRun(run); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m Multi) EndRun(run voyage.Run, summary voyage.Summary) error {
	for _, s := range m {
		if o, ok := s.(voyage.RunObserver); ok {
			if err := o.EndRun(run, summary); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m Multi) AppendStalled(runID string, st voyage.Stalled) error {
	for _, s := range m {
		if o, ok := s.(voyage.StallObserver); ok {
			if err := o.AppendStalled(runID, st); err != nil {
				return err
			}
		}
	}
	return nil
}
