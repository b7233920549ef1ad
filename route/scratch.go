package route

import (
	"math"
	"sync"
)

// scratch holds the per-solve working buffers, sized for one grid.
type scratch struct {
	dist []float64
	done []bool
	pq   cellPQ
	seq  uint64
}

type scratchProviderPool struct {
	pool *sync.Pool
}

var scratchPool = scratchProviderPool{
	pool: &sync.Pool{
		New: func() interface{} {
			return new(scratch)
		},
	},
}

func (p scratchProviderPool) get(n int) *scratch {
	s := p.pool.Get().(*scratch)
	s.clear(n)
	return s
}

func (p scratchProviderPool) put(s *scratch) {
	p.pool.Put(s)
}

func (s *scratch) clear(n int) {
	if cap(s.dist) < n {
		s.dist = make([]float64, n)
		s.done = make([]bool, n)
	}
	s.dist = s.dist[:n]
	s.done = s.done[:n]
	for i := range s.dist {
		s.dist[i] = math.Inf(1)
		s.done[i] = false
	}
	s.pq = s.pq[:0]
	s.seq = 0
}
