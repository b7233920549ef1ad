package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-bouts/digital-navigator/api/model"
	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/passage"
	"github.com/a-bouts/digital-navigator/polar"
	"github.com/a-bouts/digital-navigator/voyage"
	"github.com/a-bouts/digital-navigator/wind"
)

var (
	geo10 = grid.Geometry{Rows: 10, Cols: 10, CellSize: 1000}
	last  = time.Date(1979, 1, 3, 0, 0, 0, 0, time.UTC)
)

// fakeWinds blows 10 m/s toward the north until last.
type fakeWinds struct {
	merged int
}

func (f *fakeWinds) Sample(ctx context.Context, t time.Time) (*wind.Sample, error) {
	if t.After(last) {
		return nil, &wind.MissingError{Time: t, Err: wind.ErrMissing}
	}
	return &wind.Sample{Time: t, Speed: grid.Filled(geo10, 10), Direction: grid.Filled(geo10, 0)}, nil
}

func (f *fakeWinds) Stamps() []string {
	return []string{"79010100", "79010106"}
}

func (f *fakeWinds) Merge() error {
	f.merged++
	return nil
}

type memorySink struct {
	lock    sync.Mutex
	records []voyage.Record
}

func (m *memorySink) WriteRoute(time.Time, *grid.Grid) error { return nil }

func (m *memorySink) AppendResult(r voyage.Record) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memorySink) Results(limit int) ([]voyage.Record, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if limit > 0 && limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func newServer(t *testing.T) (http.Handler, *memorySink, *fakeWinds) {
	t.Helper()
	layers, err := land.New(grid.Filled(geo10, 1), grid.Filled(geo10, 1), polar.Isotropic())
	require.NoError(t, err)

	sink := &memorySink{}
	winds := &fakeWinds{}
	v := Voyages{
		Layers:  layers,
		Winds:   winds,
		Config:  voyage.Config{Ship: polar.DefaultShip()},
		Passage: passage.Passage{Start: passage.Point{X: 500, Y: 9500}, End: passage.Point{X: 9500, Y: 500}},
		Sink:    sink,
		Results: sink,
	}
	return Wrap(InitServer(false, v, nil)), sink, winds
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h, _, _ := newServer(t)
	rec := do(h, http.MethodGet, "/voyage/-/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Ok"}`, rec.Body.String())
}

func TestSimulate(t *testing.T) {
	h, sink, _ := newServer(t)

	rec := do(h, http.MethodPost, "/voyage/api/v1/simulate", `{"start":"1979-01-01","days":2,"workers":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		RunID   string          `json:"runId"`
		Records []voyage.Record `json:"records"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Error)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Records[0].SubSteps)
	assert.Len(t, sink.records, 2)

	rec = do(h, http.MethodGet, "/voyage/api/v1/results?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []voyage.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	assert.Len(t, records, 1)
}

func TestSimulateMissingWind(t *testing.T) {
	h, sink, _ := newServer(t)

	rec := do(h, http.MethodPost, "/voyage/api/v1/simulate", `{"start":"1979-01-02","days":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no wind")
	assert.Len(t, sink.records, 2)
}

func TestSimulateBadRequests(t *testing.T) {
	h, _, _ := newServer(t)

	for _, body := range []string{
		`{`,
		`{"days":2}`,
		`{"start":"01/01/1979"}`,
		`{"start":"1979-01-01","days":100000}`,
		`{"start":"1979-01-01","passage":{"start":{"x":500,"y":9500},"end":{"x":-10,"y":0}}}`,
	} {
		rec := do(h, http.MethodPost, "/voyage/api/v1/simulate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestWind(t *testing.T) {
	h, _, winds := newServer(t)

	rec := do(h, http.MethodGet, "/voyage/api/v1/wind/79010106/2/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var w model.Wind
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&w))
	assert.Equal(t, 10.0, w.Speed)
	assert.Equal(t, 0.0, w.Direction)
	assert.InDelta(t, 19.438, w.Knots, 1e-3)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/voyage/api/v1/wind/79020100/2/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/voyage/api/v1/wind/7901/2/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/voyage/api/v1/wind/79010100/20/3", "").Code)

	rec = do(h, http.MethodGet, "/voyage/api/v1/winds", "")
	assert.JSONEq(t, `["79010100","79010106"]`, rec.Body.String())

	rec = do(h, http.MethodPost, "/voyage/api/v1/winds/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, winds.merged)
}

func TestGetIp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", &bytes.Buffer{})
	req.Header.Set("X-FORWARDED-FOR", "10.0.0.1, 10.0.0.2")
	ip, err := getIp(req)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", ip)

	req.Header.Set("X-REAL-IP", "192.168.1.1")
	ip, err = getIp(req)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", ip)
}

func TestRecovery(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
