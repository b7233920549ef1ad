// Package store persists the records and routes of voyage runs.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/voyage"
	"github.com/a-bouts/digital-navigator/wind"
)

// Files appends records to a text log, one line per day, and writes each route as an Esri
// ASCII grid named r<stamp>.asc.
type Files struct {
	Results string
	Routes  string
}

func NewFiles(results, routes string) (*Files, error) {
	if err := os.MkdirAll(routes, 0755); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(results); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &Files{Results: results, Routes: routes}, nil
}

// AppendResult opens the log, appends the line and closes it again, so that a crash never
// loses a written day.
func (f *Files) AppendResult(r voyage.Record) error {
	out, err := os.OpenFile(f.Results, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, r.String()); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (f *Files) RoutePath(start time.Time) string {
	return filepath.Join(f.Routes, "r"+wind.Stamp(start)+".asc")
}

func (f *Files) WriteRoute(start time.Time, visited *grid.Grid) error {
	path := f.RoutePath(start)
	log.Debugf("Write route %s", path)
	return grid.SaveASCII(path, visited)
}

// ReadResults parses a results log.
func ReadResults(path string) ([]voyage.Record, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var res []voyage.Record
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		r, err := ParseRecord(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		res = append(res, r)
	}
	return res, sc.Err()
}

// ParseRecord reads a line written by AppendResult.
func ParseRecord(line string) (voyage.Record, error) {
	fields := strings.Split(line, ";")
	if len(fields) != 5 {
		return voyage.Record{}, fmt.Errorf("result %q: %d fields, want 5", line, len(fields))
	}
	start, err := wind.ParseStamp(fields[0])
	if err != nil {
		return voyage.Record{}, err
	}
	r := voyage.Record{Start: start}
	if r.ElapsedDays, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return voyage.Record{}, err
	}
	if r.SubSteps, err = strconv.Atoi(fields[2]); err != nil {
		return voyage.Record{}, err
	}
	if r.MaxWind, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return voyage.Record{}, err
	}
	if r.MinWind, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return voyage.Record{}, err
	}
	return r, nil
}
