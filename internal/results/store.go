package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store archives experiment runs in SQLite so past runs can be listed and
// reloaded without trawling JSON files.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if necessary initializes) the archive at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		consensus INTEGER NOT NULL,
		agreed_principle TEXT,
		rounds_held INTEGER NOT NULL,
		incomplete INTEGER NOT NULL,
		record TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS run_participants (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		participant TEXT NOT NULL,
		final_balance REAL NOT NULL,
		failed INTEGER NOT NULL,
		PRIMARY KEY (run_id, participant)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives one record. Saving the same run twice is an error.
func (s *Store) Save(record *ExperimentRecord) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	var (
		consensus  int
		agreed     sql.NullString
		roundsHeld int
	)
	if record.Phase2 != nil {
		roundsHeld = record.Phase2.RoundsHeld
		if record.Phase2.Consensus {
			consensus = 1
			agreed = sql.NullString{String: record.Phase2.Agreed.String(), Valid: true}
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, started_at, finished_at, consensus, agreed_principle, rounds_held, incomplete, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID, record.StartedAt, record.FinishedAt,
		consensus, agreed, roundsHeld, boolToInt(record.Incomplete), string(blob))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	failed := make(map[string]bool, len(record.Phase1))
	for _, p1 := range record.Phase1 {
		failed[p1.Participant] = p1.Failed
	}
	for name, balance := range record.FinalBalances {
		_, err = tx.Exec(
			`INSERT INTO run_participants (run_id, participant, final_balance, failed) VALUES (?, ?, ?, ?)`,
			record.RunID, name, balance, boolToInt(failed[name]))
		if err != nil {
			return fmt.Errorf("failed to insert participant row: %w", err)
		}
	}
	return tx.Commit()
}

// RunSummary is one archived run's headline data.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	Consensus  bool
	Agreed     string
	RoundsHeld int
	Incomplete bool
}

// ListRuns returns archived runs, most recent first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT run_id, started_at, consensus, COALESCE(agreed_principle, ''), rounds_held, incomplete
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r                     RunSummary
			consensus, incomplete int
		)
		if err := rows.Scan(&r.RunID, &r.StartedAt, &consensus, &r.Agreed, &r.RoundsHeld, &incomplete); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Consensus = consensus == 1
		r.Incomplete = incomplete == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRun reloads a full archived record.
func (s *Store) LoadRun(runID string) (*ExperimentRecord, error) {
	var blob string
	err := s.db.QueryRow(`SELECT record FROM runs WHERE run_id = ?`, runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	var record ExperimentRecord
	if err := json.Unmarshal([]byte(blob), &record); err != nil {
		return nil, fmt.Errorf("failed to decode archived record: %w", err)
	}
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
