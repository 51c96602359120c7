// Package store persists acceptance decisions to SQLite for post-run
// analysis. Writes go through a single writer goroutine so the run's
// hot path never blocks on the database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/remd-sim/remd-sim/remd/trace"
)

const (
	kindSwap     = "swap"
	kindExchange = "exchange"
)

// Store is an append-only acceptance log backed by SQLite. Each Open
// registers a new run keyed by a UUID; decisions recorded through this
// Store are attributed to that run.
type Store struct {
	db    *sql.DB
	runID string

	ch     chan record
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

type record struct {
	kind     string
	swap     trace.SwapRecord
	exchange trace.ExchangeRecord
}

// Open opens (creating if needed) the database at path and registers a
// new run for recording.
func Open(path string) (*Store, error) {
	s, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s.runID = uuid.NewString()
	s.ch = make(chan record, 1024)
	if _, err := s.db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		s.runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}
	s.wg.Add(1)
	go s.writer()
	return s, nil
}

// OpenReadOnly opens the database for queries only. No run is
// registered and Record* calls fail.
func OpenReadOnly(path string) (*Store, error) {
	s, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s.closed.Store(true)
	return s, nil
}

func openDB(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS decisions (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	step         INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	rank_a       INTEGER NOT NULL,
	rank_b       INTEGER NOT NULL,
	site_i       INTEGER,
	site_j       INTEGER,
	delta_energy REAL NOT NULL,
	probability  REAL NOT NULL,
	uniform      REAL NOT NULL,
	accepted     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS decisions_run_kind ON decisions (run_id, kind);
`

// RunID returns the UUID assigned to this store's run.
func (s *Store) RunID() string { return s.runID }

// RecordSwap enqueues an atom-swap decision. Returns an error only if
// the store is already closed.
func (s *Store) RecordSwap(r trace.SwapRecord) error {
	return s.enqueue(record{kind: kindSwap, swap: r})
}

// RecordExchange enqueues a replica-exchange decision.
func (s *Store) RecordExchange(r trace.ExchangeRecord) error {
	return s.enqueue(record{kind: kindExchange, exchange: r})
}

// SaveTrace records every decision from a completed run trace.
func (s *Store) SaveTrace(rt *trace.RunTrace) error {
	if rt == nil {
		return nil
	}
	for _, r := range rt.Swaps {
		if err := s.RecordSwap(r); err != nil {
			return err
		}
	}
	for _, r := range rt.Exchanges {
		if err := s.RecordExchange(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) enqueue(r record) error {
	if s.closed.Load() {
		return fmt.Errorf("store closed")
	}
	s.ch <- r
	return nil
}

func (s *Store) writer() {
	defer s.wg.Done()
	for r := range s.ch {
		var err error
		switch r.kind {
		case kindSwap:
			_, err = s.db.Exec(
				`INSERT INTO decisions (run_id, step, kind, rank_a, rank_b, site_i, site_j, delta_energy, probability, uniform, accepted)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.runID, r.swap.Step, kindSwap, r.swap.Rank, r.swap.Rank,
				r.swap.SiteI, r.swap.SiteJ, r.swap.DeltaEnergy, r.swap.Probability,
				r.swap.Uniform, boolInt(r.swap.Accepted))
		case kindExchange:
			_, err = s.db.Exec(
				`INSERT INTO decisions (run_id, step, kind, rank_a, rank_b, site_i, site_j, delta_energy, probability, uniform, accepted)
				 VALUES (?, ?, ?, ?, ?, NULL, NULL, ?, ?, ?, ?)`,
				s.runID, r.exchange.Step, kindExchange, r.exchange.LowRank, r.exchange.HighRank,
				r.exchange.DeltaEnergy, r.exchange.Probability, r.exchange.Uniform,
				boolInt(r.exchange.Accepted))
		}
		if err != nil {
			// Keep draining so Close never deadlocks.
			logrus.Warnf("store: insert failed: %v", err)
		}
	}
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.ch != nil {
			close(s.ch)
		}
	})
	s.wg.Wait()
	return s.db.Close()
}

// RunSummary aggregates one run's persisted decisions.
type RunSummary struct {
	RunID              string
	SwapAttempts       int
	SwapAccepts        int
	ExchangeAttempts   int
	ExchangeAccepts    int
	MeanSwapDeltaE     float64
	MeanExchangeProb   float64
	ExchangesByLowRank map[int]int
}

// SummarizeRun queries aggregates for the given run ID. Works on any
// Store opened against the same database, not just the recording one.
func (s *Store) SummarizeRun(runID string) (*RunSummary, error) {
	summary := &RunSummary{RunID: runID, ExchangesByLowRank: make(map[int]int)}

	row := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(accepted), 0), COALESCE(AVG(delta_energy), 0)
		 FROM decisions WHERE run_id = ? AND kind = ?`, runID, kindSwap)
	if err := row.Scan(&summary.SwapAttempts, &summary.SwapAccepts, &summary.MeanSwapDeltaE); err != nil {
		return nil, err
	}

	row = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(accepted), 0), COALESCE(AVG(probability), 0)
		 FROM decisions WHERE run_id = ? AND kind = ?`, runID, kindExchange)
	if err := row.Scan(&summary.ExchangeAttempts, &summary.ExchangeAccepts, &summary.MeanExchangeProb); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT rank_a, COUNT(*) FROM decisions
		 WHERE run_id = ? AND kind = ? GROUP BY rank_a`, runID, kindExchange)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rank, n int
		if err := rows.Scan(&rank, &n); err != nil {
			return nil, err
		}
		summary.ExchangesByLowRank[rank] = n
	}
	return summary, rows.Err()
}

// ListRuns returns every registered run ID, newest first.
func (s *Store) ListRuns() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
