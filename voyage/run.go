package voyage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
)

type dayResult struct {
	done    bool
	record  Record
	visited *grid.Grid
	err     error
}

// flusher hands the finished days to the sink in start date order.
type flusher struct {
	lock    sync.Mutex
	sink    Sink
	runID   string
	results []dayResult
	next    int
	summary *Summary
}

// complete stores the result of day i and flushes every finished day that directly
// follows the last flushed one. It stops at the first fatal error. A sink error is returned
// with the index of the day it failed on.
func (f *flusher) complete(i int, res dayResult) (int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	res.done = true
	f.results[i] = res

	for f.next < len(f.results) && f.results[f.next].done {
		r := f.results[f.next]
		if r.err != nil && !errors.Is(r.err, ErrStalled) {
			return f.next, nil
		}
		if err := f.flush(r); err != nil {
			// never retried
			f.results[f.next].err = err
			return f.next, err
		}
		f.results[f.next].visited = nil
		f.next++
	}
	return f.next, nil
}

// abort tracks the earliest failed day. Days before it run to completion, days after it
// are canceled.
type abort struct {
	lock    sync.Mutex
	failed  int
	err     error
	cancels map[int]context.CancelFunc
}

func newAbort() *abort {
	return &abort{failed: -1, cancels: make(map[int]context.CancelFunc)}
}

// begin returns the context of day i, or false when an earlier day already failed.
func (a *abort) begin(parent context.Context, i int) (context.Context, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.failed >= 0 && i > a.failed {
		return nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	a.cancels[i] = cancel
	return ctx, true
}

func (a *abort) end(i int) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if cancel, found := a.cancels[i]; found {
		cancel()
		delete(a.cancels, i)
	}
}

// fail records err for day i unless an earlier day failed, and cancels the later days.
func (a *abort) fail(i int, err error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.failed >= 0 && i >= a.failed {
		return
	}
	a.failed, a.err = i, err
	for j, cancel := range a.cancels {
		if j > i {
			cancel()
		}
	}
}

func (a *abort) stopped() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.failed >= 0
}

func (a *abort) cause() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.err
}

func (f *flusher) flush(r dayResult) error {
	if r.err != nil {
		s := Stalled{Start: r.record.Start, ElapsedDays: r.record.ElapsedDays, SubSteps: r.record.SubSteps}
		if so, ok := f.sink.(StallObserver); ok {
			if err := so.AppendStalled(f.runID, s); err != nil {
				return err
			}
		}
		f.summary.Stalled = append(f.summary.Stalled, s)
		return nil
	}

	if err := f.sink.AppendResult(r.record); err != nil {
		return err
	}
	if err := f.sink.WriteRoute(r.record.Start, r.visited); err != nil {
		return err
	}
	f.summary.Records = append(f.summary.Records, r.record)
	return nil
}

// Run simulates days consecutive days from first. Days run on Workers goroutines and are
// written to sink in date order. A stalled day is skipped; any other error stops the run,
// keeping what was written before the failing day.
func (s *Simulator) Run(ctx context.Context, first time.Time, days int, sink Sink) (Summary, error) {
	if days < 0 {
		return Summary{}, grid.Invalid("run", fmt.Errorf("%d days", days))
	}
	started := time.Now()
	run := Run{ID: uuid.NewString(), Started: started.UTC(), First: first, Days: days}
	summary := Summary{RunID: run.ID}

	runLogger := log.WithFields(log.Fields{
		"run": run.ID,
	})
	runLogger.Infof("Simulate %d days from %s with %d workers", days, first.Format("2006-01-02"), s.Workers)

	ro, observed := sink.(RunObserver)
	if observed {
		if err := ro.BeginRun(run); err != nil {
			return summary, err
		}
	}

	f := &flusher{sink: sink, runID: run.ID, results: make([]dayResult, days), summary: &summary}
	a := newAbort()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				dayCtx, ok := a.begin(ctx, i)
				if !ok {
					continue
				}
				start := first.AddDate(0, 0, i)
				record, visited, err := s.Day(dayCtx, start)
				a.end(i)
				if errors.Is(err, ErrStalled) {
					runLogger.WithError(err).Warn("Day stalled")
				} else if err != nil {
					a.fail(i, err)
				}
				if at, ferr := f.complete(i, dayResult{record: record, visited: visited, err: err}); ferr != nil {
					a.fail(at, ferr)
				}
			}
		}()
	}

	for i := 0; i < days; i++ {
		if ctx.Err() != nil || a.stopped() {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	summary.Took = time.Since(started)

	err := a.cause()
	if err == nil {
		err = ctx.Err()
	}

	if observed {
		if eerr := ro.EndRun(run, summary); eerr != nil && err == nil {
			err = eerr
		}
	}

	if err != nil {
		runLogger.WithError(err).Errorf("Run aborted after %d days", len(summary.Records)+len(summary.Stalled))
		return summary, err
	}
	runLogger.Infof("Run took %s: %d days reached, %d stalled", summary.Took, len(summary.Records), len(summary.Stalled))
	return summary, nil
}
