package polar

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/a-bouts/digital-navigator/grid"
)

// HorizontalFactor maps the angle between the travel direction and the wind direction
// (0 = running with the wind, 180 = heading straight into it) to a cost multiplier.
// Values between table entries are interpolated linearly. An infinite factor forbids
// the direction.
type HorizontalFactor struct {
	Angles  []float64 `json:"angles"`
	Factors []float64 `json:"factors"`
}

// Isotropic ignores the wind direction.
func Isotropic() *HorizontalFactor {
	return &HorizontalFactor{Angles: []float64{0, 180}, Factors: []float64{1, 1}}
}

// NewHorizontalFactor sorts the entries by angle and checks they cover 0 to 180 degrees.
func NewHorizontalFactor(angles, factors []float64) (*HorizontalFactor, error) {
	if len(angles) == 0 || len(angles) != len(factors) {
		return nil, grid.Invalid("horizontal factor", fmt.Errorf("%d angles for %d factors", len(angles), len(factors)))
	}
	idx := make([]int, len(angles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return angles[idx[i]] < angles[idx[j]] })

	hf := &HorizontalFactor{Angles: make([]float64, len(idx)), Factors: make([]float64, len(idx))}
	for i, k := range idx {
		hf.Angles[i] = angles[k]
		hf.Factors[i] = factors[k]
		if factors[k] < 0 || math.IsNaN(factors[k]) {
			return nil, grid.Invalid("horizontal factor", fmt.Errorf("factor %g at %g°", factors[k], angles[k]))
		}
	}
	if hf.Angles[0] > 0 || hf.Angles[len(idx)-1] < 180 {
		return nil, grid.Invalid("horizontal factor", fmt.Errorf("table covers %g° to %g°, want 0° to 180°", hf.Angles[0], hf.Angles[len(idx)-1]))
	}
	return hf, nil
}

// ReadHorizontalFactor parses a two column table, one "angle factor" pair per line,
// separated by blanks or commas. Lines starting with # are ignored.
func ReadHorizontalFactor(r io.Reader) (*HorizontalFactor, error) {
	var angles, factors []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == ';' })
		if len(fields) != 2 {
			return nil, fmt.Errorf("horizontal factor line %d: %q", line, text)
		}
		a, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("horizontal factor line %d: %w", line, err)
		}
		f, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("horizontal factor line %d: %w", line, err)
		}
		angles = append(angles, a)
		factors = append(factors, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewHorizontalFactor(angles, factors)
}

func LoadHorizontalFactor(path string) (*HorizontalFactor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadHorizontalFactor(f)
}

// RelativeAngle folds the difference between two bearings into [0, 180].
func RelativeAngle(travel, wind float64) float64 {
	d := math.Mod(math.Abs(travel-wind), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// At returns the factor for a relative angle in degrees.
func (hf *HorizontalFactor) At(angle float64) float64 {
	i0, i1, w := interpolationIndex(hf.Angles, angle)
	f0, f1 := hf.Factors[i0], hf.Factors[i1]
	switch {
	case w == 1:
		return f0
	case w == 0:
		return f1
	case math.IsInf(f0, 1) || math.IsInf(f1, 1):
		return math.Inf(1)
	}
	return f0*w + f1*(1-w)
}

// Factor returns the factor for travelling on bearing travel through wind blowing toward wind.
func (hf *HorizontalFactor) Factor(travel, wind float64) float64 {
	return hf.At(RelativeAngle(travel, wind))
}

// interpolationIndex returns the two entries surrounding value and the weight of the first.
func interpolationIndex(values []float64, value float64) (int, int, float64) {
	i := 0
	for values[i] < value {
		i++
		if i == len(values) {
			return i - 1, 0, 1
		}
	}

	if i > 0 {
		return i - 1, i, (values[i] - value) / (values[i] - values[i-1])
	}

	return 0, 0, 0
}
