package land

import "github.com/a-bouts/digital-navigator/grid"

var offsets = [8][2]int{{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}}

// Connected reports whether any destination cell lies in the same 8-connected body of
// water as a start cell. Wind can still make a connected destination unreachable in a
// given sub-step, never the reverse.
func (l *Layers) Connected(start, end *grid.Grid) bool {
	geo := l.Geometry()
	seen := make([]bool, geo.Len())
	var queue []int
	for _, i := range start.Occupied() {
		if !l.IsLand(i) {
			seen[i] = true
			queue = append(queue, i)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		if v, ok := end.At(geo.Cell(u)); ok && v == 1 {
			return true
		}
		r, c := geo.Cell(u)
		for _, d := range offsets {
			nr, nc := r+d[0], c+d[1]
			if !geo.InBounds(nr, nc) {
				continue
			}
			n := geo.Index(nr, nc)
			if !seen[n] && !l.IsLand(n) {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
