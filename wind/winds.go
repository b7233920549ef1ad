package wind

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jasonlvhit/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
)

// DefaultCacheSize is the number of decoded samples kept in memory.
const DefaultCacheSize = 32

// Index serves samples from a Source, checks them against the working geometry and
// keeps the most recently decoded ones. It is safe for concurrent use.
type Index struct {
	source    Source
	geo       grid.Geometry
	cacheSize int

	lock    sync.RWMutex
	samples map[string]*Sample
	order   []string
	known   map[string]bool

	scheduler *gocron.Scheduler
	stopped   chan bool
}

func NewIndex(source Source, geo grid.Geometry, cacheSize int) *Index {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Index{
		source:    source,
		geo:       geo,
		cacheSize: cacheSize,
		samples:   make(map[string]*Sample),
		known:     make(map[string]bool),
	}
}

func (w *Index) Sample(ctx context.Context, t time.Time) (*Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stamp := Stamp(t)

	w.lock.RLock()
	s, found := w.samples[stamp]
	w.lock.RUnlock()
	if found {
		return s, nil
	}

	s, err := w.source.Load(t)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingError{Time: t, Err: err}
		}
		return nil, err
	}
	if err := grid.CheckSame(w.geo, s.Speed, s.Direction); err != nil {
		return nil, err
	}
	s.Time = t

	w.lock.Lock()
	defer w.lock.Unlock()
	if _, found := w.samples[stamp]; !found {
		w.samples[stamp] = s
		w.order = append(w.order, stamp)
		w.known[stamp] = true
		for len(w.order) > w.cacheSize {
			delete(w.samples, w.order[0])
			w.order = w.order[1:]
		}
	}
	log.Debugf("Init wind %s", stamp)
	return s, nil
}

// Stamps lists the sample times known to exist, sorted.
func (w *Index) Stamps() []string {
	w.lock.RLock()
	defer w.lock.RUnlock()

	keys := make([]string, 0, len(w.known))
	for k := range w.known {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge rescans the source: cached samples whose files are gone are dropped and newly
// delivered stamps become known.
func (w *Index) Merge() error {
	stamps, err := w.source.Stamps()
	if err != nil {
		log.WithError(err).Error("Error walking wind files")
		return err
	}
	present := make(map[string]bool, len(stamps))
	for _, s := range stamps {
		present[s] = true
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	var kept []string
	for _, k := range w.order {
		if present[k] {
			kept = append(kept, k)
		} else {
			log.Println("Remove from winds", k)
			delete(w.samples, k)
		}
	}
	w.order = kept

	added := 0
	for k := range present {
		if !w.known[k] {
			added++
		}
	}
	w.known = present
	if added > 0 {
		log.Debugf("Merge winds: %d new stamps, %d known", added, len(present))
	}
	return nil
}

// Watch merges the source every interval seconds until Stop is called.
func (w *Index) Watch(interval uint64) {
	if err := w.Merge(); err != nil {
		log.WithError(err).Warn("Initial wind scan failed")
	}

	s := gocron.NewScheduler()
	job := s.Every(interval).Seconds()
	job.Do(w.Merge)

	w.lock.Lock()
	w.scheduler = s
	w.stopped = s.Start()
	w.lock.Unlock()
}

// Stop ends the periodic merges started by Watch.
func (w *Index) Stop() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.scheduler != nil {
		w.stopped <- true
		w.scheduler.Clear()
		w.scheduler = nil
		w.stopped = nil
	}
}
