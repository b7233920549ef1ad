package wind

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nilsmagnus/grib/griblib"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
)

// Grib reads 10 m wind components from <Dir>/<YYMMDDHH>.grb2 files whose grid already
// matches the working geometry, rows starting from the north. Cells for which IsLand
// holds are left without data.
type Grib struct {
	Dir      string
	Geometry grid.Geometry
	IsLand   func(i int) bool
}

func (g Grib) File(t time.Time) string {
	return filepath.Join(g.Dir, Stamp(t)+".grb2")
}

func (g Grib) Load(t time.Time) (*Sample, error) {
	file := g.File(t)
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	messages, err := griblib.ReadMessages(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	var u, v *grid.Grid
	for _, message := range messages {
		if message.Section0.Discipline != uint8(0) ||
			message.Section4.ProductDefinitionTemplate.ParameterCategory != uint8(2) ||
			message.Section4.ProductDefinitionTemplate.FirstSurface.Type != 103 ||
			message.Section4.ProductDefinitionTemplate.FirstSurface.Value != 10 {
			continue
		}
		grid0, ok := message.Section3.Definition.(*griblib.Grid0)
		if !ok {
			continue
		}
		if int(grid0.Ni) != g.Geometry.Cols || int(grid0.Nj) != g.Geometry.Rows {
			return nil, grid.Invalid("grib "+file, fmt.Errorf("%w: %dx%d, want %dx%d", grid.ErrGeometryMismatch,
				grid0.Nj, grid0.Ni, g.Geometry.Rows, g.Geometry.Cols))
		}
		switch message.Section4.ProductDefinitionTemplate.ParameterNumber {
		case 2:
			u = g.buildGrid(message.Section7.Data)
		case 3:
			v = g.buildGrid(message.Section7.Data)
		}
	}
	if u == nil || v == nil {
		return nil, fmt.Errorf("%s: no 10 m wind components", file)
	}

	speed, direction, err := FromComponents(u, v)
	if err != nil {
		return nil, err
	}
	return &Sample{Time: t, Speed: speed, Direction: direction}, nil
}

func (g Grib) buildGrid(data []float64) *grid.Grid {
	res := grid.New(g.Geometry)
	for i := 0; i < g.Geometry.Len() && i < len(data); i++ {
		if g.IsLand != nil && g.IsLand(i) || math.IsNaN(data[i]) {
			continue
		}
		res.SetValue(i, data[i])
	}
	return res
}

func (g Grib) Stamps() ([]string, error) {
	var stamps []string
	err := filepath.Walk(g.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.WithError(err).Errorf("Error walking file '%s'", path)
			return nil
		}
		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), ".grb2") {
			return nil
		}
		stamp := strings.TrimSuffix(info.Name(), ".grb2")
		if _, err := ParseStamp(stamp); err != nil {
			log.WithError(err).Errorf("Error parsing date '%s'", stamp)
			return nil
		}
		stamps = append(stamps, stamp)
		return nil
	})
	sort.Strings(stamps)
	return stamps, err
}
