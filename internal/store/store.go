// Package store provides SQLite persistence for Talkatoo runs.
//
// A run is one playthrough. The store keeps, per run, the keys of the moons
// collected so far in collection order; names come from the catalog.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/talkatoo/internal/moon"
)

// DBFile is the database file name inside the data dir.
const DBFile = "talkatoo.db"

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Run is one playthrough.
type Run struct {
	ID        string
	Started   time.Time
	Ended     time.Time // zero while the run is current
	Collected int
}

// Current reports whether the run has not been ended.
func (r Run) Current() bool {
	return r.Ended.IsZero()
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS collected (
		run_id TEXT NOT NULL REFERENCES runs(id),
		kingdom TEXT NOT NULL,
		moon_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		collected_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, kingdom, moon_id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_collected_position ON collected(run_id, position);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// CurrentRun returns the most recent run that has not ended, starting one
// if there is none.
func (s *Store) CurrentRun() (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.currentRun()
	if errors.Is(err, sql.ErrNoRows) {
		return s.startRun()
	}
	return run, err
}

// StartRun ends the current run, if any, and starts a fresh one.
// Thread-safe: acquires write lock.
func (s *Store) StartRun() (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startRun()
}

// startRun does the work of StartRun. Caller must hold s.mu.
func (s *Store) startRun() (Run, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE runs SET ended_at = ? WHERE ended_at IS NULL", now); err != nil {
		return Run{}, fmt.Errorf("end current run: %w", err)
	}

	run := Run{ID: uuid.NewString(), Started: now}
	if _, err := tx.Exec("INSERT INTO runs (id, started_at) VALUES (?, ?)", run.ID, run.Started); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// currentRun loads the open run. Caller must hold s.mu.
func (s *Store) currentRun() (Run, error) {
	row := s.db.QueryRow(`
		SELECT r.id, r.started_at, r.ended_at,
			(SELECT COUNT(*) FROM collected c WHERE c.run_id = r.id)
		FROM runs r
		WHERE r.ended_at IS NULL
		ORDER BY r.started_at DESC
		LIMIT 1
	`)
	return scanRun(row)
}

// SaveCollected appends a moon to the run's collection. Moons already
// stored for the run are ignored; it reports whether a row was inserted.
// Thread-safe: acquires write lock.
func (s *Store) SaveCollected(runID string, key moon.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		INSERT OR IGNORE INTO collected (run_id, kingdom, moon_id, position, collected_at)
		VALUES (?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM collected WHERE run_id = ?),
			?)
	`, runID, key.Kingdom.String(), key.ID, runID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("save collected %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteCollected removes one moon from the run's collection.
// Thread-safe: acquires write lock.
func (s *Store) DeleteCollected(runID string, key moon.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM collected WHERE run_id = ? AND kingdom = ? AND moon_id = ?",
		runID, key.Kingdom.String(), key.ID)
	if err != nil {
		return fmt.Errorf("delete collected %s: %w", key, err)
	}
	return nil
}

// ClearCollected removes every moon of the run.
// Thread-safe: acquires write lock.
func (s *Store) ClearCollected(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM collected WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("clear collected: %w", err)
	}
	return nil
}

// LoadCollected returns the run's moons in collection order.
// Thread-safe: acquires read lock.
func (s *Store) LoadCollected(runID string) ([]moon.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT kingdom, moon_id FROM collected
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query collected: %w", err)
	}
	defer rows.Close()

	var keys []moon.Key
	for rows.Next() {
		var kingdom string
		var key moon.Key
		if err := rows.Scan(&kingdom, &key.ID); err != nil {
			return nil, err
		}
		if key.Kingdom, err = moon.ParseKingdom(kingdom); err != nil {
			return nil, fmt.Errorf("row %d: %w", key.ID, err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CountByKingdom returns how many moons the run has in each kingdom.
// Thread-safe: acquires read lock.
func (s *Store) CountByKingdom(runID string) (map[moon.Kingdom]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT kingdom, COUNT(*) FROM collected
		WHERE run_id = ?
		GROUP BY kingdom
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count collected: %w", err)
	}
	defer rows.Close()

	counts := make(map[moon.Kingdom]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		k, err := moon.ParseKingdom(name)
		if err != nil {
			return nil, err
		}
		counts[k] = n
	}
	return counts, rows.Err()
}

// Runs lists every run, newest first, with its collected count.
// Thread-safe: acquires read lock.
func (s *Store) Runs() ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT r.id, r.started_at, r.ended_at,
			(SELECT COUNT(*) FROM collected c WHERE c.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var ended sql.NullTime
	if err := row.Scan(&run.ID, &run.Started, &ended, &run.Collected); err != nil {
		return Run{}, err
	}
	if ended.Valid {
		run.Ended = ended.Time
	}
	return run, nil
}
