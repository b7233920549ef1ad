package grid

import (
	"errors"
	"fmt"
)

// ErrGeometryMismatch is returned when grids combined together do not share a geometry.
var ErrGeometryMismatch = errors.New("grid: geometry mismatch")

// ConfigError reports an input that makes the whole run invalid. It is never retried.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Op + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(op string, format string, args ...interface{}) error {
	return &ConfigError{Op: op, Err: fmt.Errorf(format, args...)}
}

// Invalid wraps err as a ConfigError for op.
func Invalid(op string, err error) error {
	return &ConfigError{Op: op, Err: err}
}

// CheckSame fails with a ConfigError wrapping ErrGeometryMismatch unless every grid
// shares the geometry of ref.
func CheckSame(ref Geometry, grids ...*Grid) error {
	for _, g := range grids {
		if !ref.Equal(g.Geometry) {
			return &ConfigError{
				Op:  "check geometry",
				Err: fmt.Errorf("%w: %dx%d@%g (%g,%g) vs %dx%d@%g (%g,%g)", ErrGeometryMismatch,
					ref.Rows, ref.Cols, ref.CellSize, ref.XLL, ref.YLL,
					g.Rows, g.Cols, g.CellSize, g.XLL, g.YLL),
			}
		}
	}
	return nil
}
