package wind

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
)

// Archive reads speed and direction rasters already interpolated onto the working grid:
// <Dir>/speed/ws<YYMMDDHH>.asc and <Dir>/direction/wd<YYMMDDHH>.asc.
type Archive struct {
	Dir string
}

func (a Archive) SpeedFile(t time.Time) string {
	return filepath.Join(a.Dir, "speed", "ws"+Stamp(t)+".asc")
}

func (a Archive) DirectionFile(t time.Time) string {
	return filepath.Join(a.Dir, "direction", "wd"+Stamp(t)+".asc")
}

func (a Archive) Load(t time.Time) (*Sample, error) {
	speed, err := grid.LoadASCII(a.SpeedFile(t))
	if err != nil {
		return nil, err
	}
	direction, err := grid.LoadASCII(a.DirectionFile(t))
	if err != nil {
		return nil, err
	}
	return &Sample{Time: t, Speed: speed, Direction: direction}, nil
}

// Stamps lists the times having both a speed and a direction raster.
func (a Archive) Stamps() ([]string, error) {
	speeds, err := a.walk("speed", "ws")
	if err != nil {
		return nil, err
	}
	directions, err := a.walk("direction", "wd")
	if err != nil {
		return nil, err
	}

	var stamps []string
	for s := range speeds {
		if directions[s] {
			stamps = append(stamps, s)
		}
	}
	sort.Strings(stamps)
	return stamps, nil
}

func (a Archive) walk(sub, prefix string) (map[string]bool, error) {
	res := make(map[string]bool)
	err := filepath.Walk(filepath.Join(a.Dir, sub), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.WithError(err).Errorf("Error walking file '%s'", path)
			return nil
		}
		name := info.Name()
		if !info.Mode().IsRegular() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".asc") {
			return nil
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".asc")
		if _, err := ParseStamp(stamp); err != nil {
			log.WithError(err).Debugf("Skip wind file '%s'", name)
			return nil
		}
		res[stamp] = true
		return nil
	})
	return res, err
}
