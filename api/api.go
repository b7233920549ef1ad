package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/api/model"
	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/passage"
	"github.com/a-bouts/digital-navigator/polar"
	"github.com/a-bouts/digital-navigator/report"
	"github.com/a-bouts/digital-navigator/voyage"
	"github.com/a-bouts/digital-navigator/wind"
	"github.com/a-bouts/digital-navigator/xmpp"
)

// MaxDays bounds the days of one simulate request.
const MaxDays = 3660

// Winds is the wind series served to the simulator.
type Winds interface {
	wind.Provider
	Stamps() []string
	Merge() error
}

// Results lists stored records.
type Results interface {
	Results(limit int) ([]voyage.Record, error)
}

// Voyages holds what the server simulates with.
type Voyages struct {
	Layers  *land.Layers
	Winds   Winds
	Config  voyage.Config
	Passage passage.Passage
	Sink    voyage.Sink
	// Results is optional.
	Results Results
}

type server struct {
	cpuprofile bool
	v          Voyages
	x          *xmpp.Xmpp

	// one run at a time, the sinks append to shared files
	running sync.Mutex
}

func InitServer(cpuprofile bool, v Voyages, x *xmpp.Xmpp) *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	s := &server{cpuprofile: cpuprofile,
		v: v,
		x: x,
	}

	router.HandleFunc("/voyage/-/healthz", s.healthz).Methods(http.MethodGet)

	apiV1 := router.PathPrefix("/voyage/api/v1").Subrouter()
	apiV1.HandleFunc("/simulate", s.simulate).Methods(http.MethodPost)
	apiV1.HandleFunc("/results", s.results).Methods(http.MethodGet)
	apiV1.HandleFunc("/winds", s.stamps).Methods(http.MethodGet)
	apiV1.HandleFunc("/winds/refresh", s.refresh).Methods(http.MethodPost)
	apiV1.HandleFunc("/wind/{stamp}/{row}/{col}", s.wind).Methods(http.MethodGet)

	return router
}

// Wrap adds access logs and panic recovery.
func Wrap(h http.Handler) http.Handler {
	logger := log.StandardLogger()
	return handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(logger.WriterLevel(log.DebugLevel), h))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status string `json:"status"`
	}

	json.NewEncoder(w).Encode(health{Status: "Ok"})
}

type simulateResult struct {
	voyage.Summary
	Error string `json:"error,omitempty"`
}

func (s *server) simulate(w http.ResponseWriter, req *http.Request) {
	if s.cpuprofile {
		defer profile.Start().Stop()
	}

	fields := log.Fields{
		"action": "simulate",
	}
	if ip, err := getIp(req); err == nil {
		fields["IP"] = ip
	}
	requestLogger := log.WithFields(fields)

	var m model.Simulate
	if err := json.NewDecoder(req.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if m.Start.IsZero() {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing start"})
		return
	}
	if m.Days <= 0 {
		m.Days = 1
	}
	if m.Days > MaxDays {
		writeJSON(w, http.StatusBadRequest, apiError{Error: fmt.Sprintf("at most %d days", MaxDays)})
		return
	}

	cfg := s.v.Config
	if m.Workers > 0 {
		cfg.Workers = m.Workers
	}
	if m.MaxSubSteps > 0 {
		cfg.MaxSubSteps = m.MaxSubSteps
	}
	p := s.v.Passage
	if m.Passage != nil {
		p = *m.Passage
	}

	sim, err := voyage.NewSimulator(cfg, s.v.Layers, s.v.Winds, p)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	requestLogger.Infof("Simulate %d days from '%s'", m.Days, m.Start.Format(model.DateLayout))

	s.running.Lock()
	summary, err := sim.Run(req.Context(), m.Start.Time, m.Days, s.v.Sink)
	s.running.Unlock()

	requestLogger.Infof("Simulate took %s", summary.Took.String())

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, wind.ErrMissing) {
			status = http.StatusUnprocessableEntity
		}
		var cfgErr *grid.ConfigError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, simulateResult{Summary: summary, Error: err.Error()})
		return
	}

	if s.x != nil && s.x.Enabled() {
		go s.x.Send(report.Text(summary))
	}
	writeJSON(w, http.StatusOK, simulateResult{Summary: summary})
}

func (s *server) results(w http.ResponseWriter, r *http.Request) {
	if s.v.Results == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no result store"})
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		if limit, err = strconv.Atoi(l); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
	}
	records, err := s.v.Results.Results(limit)
	if err != nil {
		log.WithError(err).Error("Error reading results")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	if records == nil {
		records = []voyage.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *server) stamps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.v.Winds.Stamps())
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	if err := s.v.Winds.Merge(); err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.v.Winds.Stamps())
}

func (s *server) wind(w http.ResponseWriter, r *http.Request) {
	stamp := mux.Vars(r)["stamp"]

	t, err := wind.ParseStamp(stamp)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	row, err := strconv.Atoi(mux.Vars(r)["row"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	col, err := strconv.Atoi(mux.Vars(r)["col"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !s.v.Layers.Geometry().InBounds(row, col) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sample, err := s.v.Winds.Sample(r.Context(), t)
	if errors.Is(err, wind.ErrMissing) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}

	speed, ok := sample.Speed.At(row, col)
	direction, _ := sample.Direction.At(row, col)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	res := model.Wind{Stamp: stamp, Row: row, Col: col, Speed: speed, Direction: direction, Knots: speed / polar.Knot}
	log.Infof("Wind %s (%d,%d) : %.1f° %.1f kt", stamp, row, col, res.Direction, res.Knots)

	writeJSON(w, http.StatusOK, res)
}

func getIp(r *http.Request) (string, error) {
	//Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}

	//Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP := net.ParseIP(strings.TrimSpace(ip))
		if netIP != nil {
			return strings.TrimSpace(ip), nil
		}
	}

	//Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}
	return "", fmt.Errorf("No valid ip found")
}
