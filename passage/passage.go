// Package passage places the start and end of a voyage on the working grid.
package passage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
)

// ErrNoPoint is returned when a shapefile holds no point geometry.
var ErrNoPoint = errors.New("passage: no point in shapefile")

// Point is a position in the map coordinates of the working grid.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Passage is a voyage from Start to End.
type Passage struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Masks rasterizes both ends of the passage. It fails with a ConfigError when either end
// lies outside the grid.
func (p Passage) Masks(geo grid.Geometry) (*grid.Grid, *grid.Grid, error) {
	start, err := Rasterize(p.Start, geo)
	if err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}
	end, err := Rasterize(p.End, geo)
	if err != nil {
		return nil, nil, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// Rasterize marks the cell containing point with 1, every other cell with 0.
func Rasterize(point Point, geo grid.Geometry) (*grid.Grid, error) {
	row, col, ok := geo.Locate(point.X, point.Y)
	if !ok {
		return nil, grid.Invalid("rasterize", fmt.Errorf("point %s outside the grid", point))
	}
	return grid.Mask(geo, geo.Index(row, col)), nil
}

// LoadPoint reads the first point of a point shapefile.
func LoadPoint(path string) (Point, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return Point{}, grid.Invalid("load point", err)
	}
	defer shape.Close()

	for shape.Next() {
		n, s := shape.Shape()
		switch p := s.(type) {
		case *shp.Point:
			log.Debugf("Point %d of %s : (%f,%f)", n, path, p.X, p.Y)
			return Point{X: p.X, Y: p.Y}, nil
		case *shp.PointZ:
			return Point{X: p.X, Y: p.Y}, nil
		case *shp.PointM:
			return Point{X: p.X, Y: p.Y}, nil
		}
	}
	if err := shape.Err(); err != nil {
		return Point{}, grid.Invalid("load point", err)
	}
	return Point{}, grid.Invalid("load point", fmt.Errorf("%s: %w", path, ErrNoPoint))
}

// ParsePoint reads "x,y" map coordinates.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return Point{X: x, Y: y}, nil
}

// Resolve accepts either a shapefile path or "x,y" coordinates.
func Resolve(s string) (Point, error) {
	if strings.HasSuffix(strings.ToLower(s), ".shp") {
		return LoadPoint(s)
	}
	return ParsePoint(s)
}
