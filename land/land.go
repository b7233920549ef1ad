package land

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/polar"
)

const (
	ShallowsFile         = "shallows_cost.asc"
	IslandsFile          = "islands_cost.asc"
	HorizontalFactorFile = "horizontal_factor_table.txt"
)

// ErrMissingLayer is returned when a static layer is absent at startup.
var ErrMissingLayer = errors.New("land: missing static layer")

// Layers holds the static inputs shared read-only by every day of a run: two
// multiplicative penalty layers (no-data over land) and the horizontal factor table.
type Layers struct {
	Shallows *grid.Grid
	Islands  *grid.Grid
	HF       *polar.HorizontalFactor
}

// New checks that both penalty layers share a geometry.
func New(shallows, islands *grid.Grid, hf *polar.HorizontalFactor) (*Layers, error) {
	if shallows == nil || islands == nil || hf == nil {
		return nil, grid.Invalid("static layers", ErrMissingLayer)
	}
	if err := grid.CheckSame(shallows.Geometry, islands); err != nil {
		return nil, err
	}
	return &Layers{Shallows: shallows, Islands: islands, HF: hf}, nil
}

// Load reads the static layers from dir.
func Load(dir string) (*Layers, error) {
	shallows, err := loadGrid(filepath.Join(dir, ShallowsFile))
	if err != nil {
		return nil, err
	}
	islands, err := loadGrid(filepath.Join(dir, IslandsFile))
	if err != nil {
		return nil, err
	}

	file := filepath.Join(dir, HorizontalFactorFile)
	hf, err := polar.LoadHorizontalFactor(file)
	if err != nil {
		log.WithError(err).Errorf("Error reading horizontal factor table '%s'", file)
		return nil, layerError(file, err)
	}

	l, err := New(shallows, islands, hf)
	if err != nil {
		return nil, err
	}
	log.Debugf("Static layers %dx%d cells of %gm", l.Geometry().Rows, l.Geometry().Cols, l.Geometry().CellSize)
	return l, nil
}

func loadGrid(file string) (*grid.Grid, error) {
	g, err := grid.LoadASCII(file)
	if err != nil {
		log.WithError(err).Errorf("Error reading layer '%s'", file)
		return nil, layerError(file, err)
	}
	return g, nil
}

func layerError(file string, err error) error {
	if os.IsNotExist(err) {
		return grid.Invalid("load "+file, fmt.Errorf("%w: %v", ErrMissingLayer, err))
	}
	return grid.Invalid("load "+file, err)
}

// Geometry is the working geometry of the run.
func (l *Layers) Geometry() grid.Geometry {
	return l.Shallows.Geometry
}

// IsLand reports whether a cell is impassable.
func (l *Layers) IsLand(i int) bool {
	return l.Shallows.IsNoData(i) || l.Islands.IsNoData(i)
}
