package voyage

import (
	"strconv"
	"strings"
	"time"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/wind"
)

// Record is the outcome of one simulated day.
type Record struct {
	Start       time.Time `json:"start"`
	ElapsedDays float64   `json:"elapsedDays"`
	SubSteps    int       `json:"subSteps"`
	MaxWind     float64   `json:"maxWind"`
	MinWind     float64   `json:"minWind"`
}

func (r Record) Stamp() string {
	return wind.Stamp(r.Start)
}

// String formats the record as a result line: stamp;days;substeps;maxwind;minwind.
func (r Record) String() string {
	return strings.Join([]string{
		r.Stamp(),
		strconv.FormatFloat(r.ElapsedDays, 'f', -1, 64),
		strconv.Itoa(r.SubSteps),
		strconv.FormatFloat(r.MaxWind, 'f', -1, 64),
		strconv.FormatFloat(r.MinWind, 'f', -1, 64),
	}, ";")
}

// Stalled describes a day that never reached the destination.
type Stalled struct {
	Start       time.Time `json:"start"`
	ElapsedDays float64   `json:"elapsedDays"`
	SubSteps    int       `json:"subSteps"`
}

// Run identifies a simulation run.
type Run struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
	First   time.Time `json:"first"`
	Days    int       `json:"days"`
}

// Summary is the outcome of a run. Records and Stalled are in start date order.
type Summary struct {
	RunID   string        `json:"runId"`
	Records []Record      `json:"records"`
	Stalled []Stalled     `json:"stalled"`
	Took    time.Duration `json:"took"`
}

// Sink persists the output of each completed day.
type Sink interface {
	// WriteRoute stores the cells sailed on the day starting at start, marked with 1.
	WriteRoute(start time.Time, visited *grid.Grid) error
	AppendResult(r Record) error
}

// RunObserver is implemented by sinks that keep track of runs.
type RunObserver interface {
	BeginRun(run Run) error
	EndRun(run Run, summary Summary) error
}

// StallObserver is implemented by sinks that keep the days that stalled.
type StallObserver interface {
	AppendStalled(runID string, s Stalled) error
}
