package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/a-bouts/digital-navigator/grid"
	"github.com/a-bouts/digital-navigator/voyage"
)

const (
	StatusReached = "reached"
	StatusStalled = "stalled"
)

// SQLite keeps runs and their days in a database. Days are attached to the run opened by
// the last BeginRun.
type SQLite struct {
	db *sql.DB

	lock sync.Mutex
	run  string
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT NOT NULL,
			first_day TEXT NOT NULL,
			days INTEGER NOT NULL,
			reached INTEGER,
			stalled INTEGER,
			took_ms INTEGER
		);

		CREATE TABLE IF NOT EXISTS voyages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			stamp TEXT NOT NULL,
			start TEXT NOT NULL,
			status TEXT NOT NULL,
			elapsed_days REAL NOT NULL,
			substeps INTEGER NOT NULL,
			max_wind REAL,
			min_wind REAL,
			cells INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_voyages_run ON voyages(run_id);
		CREATE INDEX IF NOT EXISTS idx_voyages_stamp ON voyages(stamp);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) currentRun() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.run
}

func (s *SQLite) BeginRun(run voyage.Run) error {
	_, err := s.db.Exec(`INSERT INTO runs (id, started, first_day, days) VALUES (?, ?, ?, ?)`,
		run.ID, run.Started.Format(time.RFC3339), run.First.Format("2006-01-02"), run.Days)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	s.lock.Lock()
	s.run = run.ID
	s.lock.Unlock()
	return nil
}

func (s *SQLite) EndRun(run voyage.Run, summary voyage.Summary) error {
	_, err := s.db.Exec(`UPDATE runs SET reached = ?, stalled = ?, took_ms = ? WHERE id = ?`,
		len(summary.Records), len(summary.Stalled), summary.Took.Milliseconds(), run.ID)
	if err != nil {
		return fmt.Errorf("closing run: %w", err)
	}
	return nil
}

func (s *SQLite) AppendResult(r voyage.Record) error {
	_, err := s.db.Exec(`INSERT INTO voyages (run_id, stamp, start, status, elapsed_days, substeps, max_wind, min_wind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.currentRun(), r.Stamp(), r.Start.Format(time.RFC3339), StatusReached, r.ElapsedDays, r.SubSteps, r.MaxWind, r.MinWind)
	if err != nil {
		return fmt.Errorf("inserting voyage: %w", err)
	}
	return nil
}

// WriteRoute records how many cells the route of the day covers.
func (s *SQLite) WriteRoute(start time.Time, visited *grid.Grid) error {
	_, err := s.db.Exec(`UPDATE voyages SET cells = ? WHERE run_id = ? AND start = ?`,
		visited.Count(), s.currentRun(), start.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("updating voyage: %w", err)
	}
	return nil
}

func (s *SQLite) AppendStalled(runID string, st voyage.Stalled) error {
	_, err := s.db.Exec(`INSERT INTO voyages (run_id, stamp, start, status, elapsed_days, substeps)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, voyage.Record{Start: st.Start}.Stamp(), st.Start.Format(time.RFC3339), StatusStalled, st.ElapsedDays, st.SubSteps)
	if err != nil {
		return fmt.Errorf("inserting stalled voyage: %w", err)
	}
	return nil
}

// Results returns the latest reached days, most recent run first, at most limit of them.
func (s *SQLite) Results(limit int) ([]voyage.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT start, elapsed_days, substeps, max_wind, min_wind FROM voyages
		WHERE status = ? ORDER BY id DESC LIMIT ?`, StatusReached, limit)
	if err != nil {
		return nil, fmt.Errorf("querying voyages: %w", err)
	}
	defer rows.Close()

	var res []voyage.Record
	for rows.Next() {
		var (
			r     voyage.Record
			start string
		)
		if err := rows.Scan(&start, &r.ElapsedDays, &r.SubSteps, &r.MaxWind, &r.MinWind); err != nil {
			return nil, fmt.Errorf("scanning voyage: %w", err)
		}
		if r.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// Stalled counts the stalled days of a run.
func (s *SQLite) Stalled(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM voyages WHERE run_id = ? AND status = ?`, runID, StatusStalled).Scan(&n)
	return n, err
}
