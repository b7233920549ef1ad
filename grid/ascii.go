package grid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadASCII decodes an Esri ASCII grid.
func ReadASCII(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	sc.Split(bufio.ScanWords)

	var geo Geometry
	noData := DefaultNoData
	center := false
	var first string

	for header := true; header; {
		if !sc.Scan() {
			return nil, fmt.Errorf("read ascii grid: truncated header")
		}
		key := strings.ToLower(sc.Text())
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
			if !sc.Scan() {
				return nil, fmt.Errorf("read ascii grid: missing value for %s", key)
			}
			v, err := strconv.ParseFloat(sc.Text(), 64)
			if err != nil {
				return nil, fmt.Errorf("read ascii grid: %s: %w", key, err)
			}
			switch key {
			case "ncols":
				geo.Cols = int(v)
			case "nrows":
				geo.Rows = int(v)
			case "xllcorner":
				geo.XLL = v
			case "yllcorner":
				geo.YLL = v
			case "xllcenter":
				geo.XLL, center = v, true
			case "yllcenter":
				geo.YLL, center = v, true
			case "cellsize":
				geo.CellSize = v
			case "nodata_value":
				noData = v
			}
		default:
			first = sc.Text()
			header = false
		}
	}

	if geo.Rows <= 0 || geo.Cols <= 0 || geo.CellSize <= 0 {
		return nil, fmt.Errorf("read ascii grid: invalid header %dx%d@%g", geo.Rows, geo.Cols, geo.CellSize)
	}
	if center {
		geo.XLL -= geo.CellSize / 2
		geo.YLL -= geo.CellSize / 2
	}

	g := New(geo)
	g.NoData = noData
	for i := 0; i < geo.Len(); i++ {
		var tok string
		if i == 0 {
			tok = first
		} else {
			if !sc.Scan() {
				return nil, fmt.Errorf("read ascii grid: %d values, want %d", i, geo.Len())
			}
			tok = sc.Text()
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("read ascii grid: cell %d: %w", i, err)
		}
		if v != noData {
			g.data[i] = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ascii grid: %w", err)
	}
	return g, nil
}

// LoadASCII reads an Esri ASCII grid file.
func LoadASCII(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ReadASCII(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteASCII encodes g as an Esri ASCII grid.
func WriteASCII(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\nxllcorner %s\nyllcorner %s\ncellsize %s\nNODATA_value %s\n",
		g.Cols, g.Rows, formatFloat(g.XLL), formatFloat(g.YLL), formatFloat(g.CellSize), formatFloat(g.NoData))
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			v := g.data[g.Index(r, c)]
			if math.IsNaN(v) {
				v = g.NoData
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveASCII writes g to path, replacing any existing file.
func SaveASCII(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteASCII(f, g); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
