package wind

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/a-bouts/digital-navigator/grid"
)

// StampLayout formats sample times as YYMMDDHH.
const StampLayout = "06010215"

// Step is the resolution of the wind series.
const Step = 6 * time.Hour

// ErrMissing is returned when the series has no sample for a required time.
var ErrMissing = errors.New("wind: missing sample")

// Sample is the wind at one time: speed in m/s and the bearing it blows toward in degrees.
type Sample struct {
	Time      time.Time
	Speed     *grid.Grid
	Direction *grid.Grid
}

// Provider returns the wind sample for a time. A gap in the series is a MissingError.
type Provider interface {
	Sample(ctx context.Context, t time.Time) (*Sample, error)
}

// Source decodes samples from storage. Load returns an error satisfying os.IsNotExist
// when the time has no sample.
type Source interface {
	Load(t time.Time) (*Sample, error)
	Stamps() ([]string, error)
}

type MissingError struct {
	Time time.Time
	Err  error
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("no wind for %s: %v", e.Time.Format(time.RFC3339), e.Err)
}

func (e *MissingError) Unwrap() error {
	return e.Err
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissing
}

func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

func ParseStamp(s string) (time.Time, error) {
	return time.ParseInLocation(StampLayout, s, time.UTC)
}
