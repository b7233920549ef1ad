// Package route computes wind dependent least-cost routes on a grid and advances a
// voyage along them one sub-step at a time.
package route

import (
	"container/heap"
	"math"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/polar"
)

// Back-link values. Values 1 to 8 point to the predecessor: neighbour index + 1.
const (
	BackLinkSource      int8 = 0
	BackLinkUnreachable int8 = -1
)

type move struct {
	dr, dc   int
	bearing  float64
	diagonal bool
}

// moves lists the 8 neighbours clockwise from north.
var moves = [8]move{
	{-1, 0, 0, false},
	{-1, 1, 45, true},
	{0, 1, 90, false},
	{1, 1, 135, true},
	{1, 0, 180, false},
	{1, -1, 225, true},
	{0, -1, 270, false},
	{-1, -1, 315, true},
}

func opposite(m int) int {
	return (m + 4) % 8
}

// Distance is the result of PathDistance.
type Distance struct {
	// Cost holds the accumulated cost from the nearest source, no data where unreachable.
	Cost *grid.Grid
	// BackLink holds, per cell, the direction of the predecessor on the least-cost path.
	BackLink []int8
}

// Option configures PathDistance.
type Option func(*solver)

// Until stops the expansion once every reachable cell of the target mask is settled.
// Cells not settled by then are reported unreachable.
func Until(target *grid.Grid) Option {
	return func(s *solver) {
		s.target = target
	}
}

type solver struct {
	cost      *grid.Grid
	direction *grid.Grid
	hf        *polar.HorizontalFactor
	target    *grid.Grid

	*scratch
	backLink []int8
}

// PathDistance accumulates the anisotropic travel cost from every source cell (mask value 1)
// over an 8-connected grid.
//
// Moving from cell a to its neighbour b along bearing θ costs
//
//	d * (cost(a)*HF(θ, dir(a)) + cost(b)*HF(θ, dir(b))) / 2
//
// where d is the cell size, or the cell size times √2 on diagonals, and dir is the wind
// direction. Cells without cost or direction are never entered. Among equal cost routes the
// first one discovered wins, so the output only depends on the inputs.
func PathDistance(sources, cost, direction *grid.Grid, hf *polar.HorizontalFactor, opts ...Option) (*Distance, error) {
	if err := grid.CheckSame(cost.Geometry, sources, direction); err != nil {
		return nil, err
	}
	if hf == nil {
		hf = polar.Isotropic()
	}

	s := &solver{
		cost:      cost,
		direction: direction,
		hf:        hf,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.target != nil {
		if err := grid.CheckSame(cost.Geometry, s.target); err != nil {
			return nil, err
		}
	}

	n := cost.Len()
	s.scratch = scratchPool.get(n)
	defer scratchPool.put(s.scratch)

	s.backLink = make([]int8, n)
	for i := range s.backLink {
		s.backLink[i] = BackLinkUnreachable
	}

	s.init(sources)
	s.process()

	res := &Distance{Cost: grid.New(cost.Geometry), BackLink: s.backLink}
	for i, done := range s.done {
		if done {
			res.Cost.SetValue(i, s.dist[i])
		} else {
			s.backLink[i] = BackLinkUnreachable
		}
	}
	return res, nil
}

func (s *solver) passable(i int) bool {
	return !s.cost.IsNoData(i) && !s.direction.IsNoData(i)
}

func (s *solver) push(i int, d float64) {
	heap.Push(&s.pq, cellItem{index: i, dist: d, seq: s.seq})
	s.seq++
}

func (s *solver) init(sources *grid.Grid) {
	heap.Init(&s.pq)
	for _, i := range sources.Occupied() {
		if !s.passable(i) {
			continue
		}
		s.dist[i] = 0
		s.backLink[i] = BackLinkSource
		s.push(i, 0)
	}
}

// remaining counts the target cells that can still be settled.
func (s *solver) remaining() int {
	if s.target == nil {
		return -1
	}
	n := 0
	for _, i := range s.target.Occupied() {
		if s.passable(i) {
			n++
		}
	}
	return n
}

func (s *solver) process() {
	left := s.remaining()
	if left == 0 {
		// no target can be reached, expand everything
		left = -1
	}
	for s.pq.Len() > 0 {
		item := heap.Pop(&s.pq).(cellItem)
		u := item.index
		if s.done[u] {
			continue
		}
		s.done[u] = true

		if left > 0 && s.target.Value(u) == 1 {
			left--
			if left == 0 {
				return
			}
		}

		s.relax(u)
	}
}

func (s *solver) relax(u int) {
	geo := s.cost.Geometry
	row, col := geo.Cell(u)
	cu, du := s.cost.Value(u), s.direction.Value(u)

	for m, mv := range moves {
		r, c := row+mv.dr, col+mv.dc
		if !geo.InBounds(r, c) {
			continue
		}
		v := geo.Index(r, c)
		if s.done[v] || !s.passable(v) {
			continue
		}

		d := geo.CellSize
		if mv.diagonal {
			d *= math.Sqrt2
		}
		w := d * (cu*s.hf.Factor(mv.bearing, du) + s.cost.Value(v)*s.hf.Factor(mv.bearing, s.direction.Value(v))) / 2
		if math.IsInf(w, 1) || math.IsNaN(w) {
			continue
		}

		newDist := s.dist[u] + w
		if newDist >= s.dist[v] {
			continue
		}

		s.dist[v] = newDist
		s.backLink[v] = int8(opposite(m) + 1)
		s.push(v, newDist)
	}
}

type cellItem struct {
	index int
	dist  float64
	seq   uint64
}

// cellPQ orders by cost, then by insertion.
type cellPQ []cellItem

func (pq cellPQ) Len() int { return len(pq) }

func (pq cellPQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].seq < pq[j].seq
}

func (pq cellPQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *cellPQ) Push(x interface{}) { *pq = append(*pq, x.(cellItem)) }

func (pq *cellPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
