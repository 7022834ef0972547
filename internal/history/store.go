// Package history persists a record of past scans in a local SQLite
// database: one row per run and one row per hit. The search term itself is
// never stored, only its digest; discovery terms are routinely sensitive.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dukaforge/datascout/pkg/types"
)

// dbFileName is the store's file name inside the data directory.
const dbFileName = "history.db"

// Run statuses.
const (
	StatusStarted       = "started"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusNothingToScan = "nothing-to-scan"
)

// Run kinds.
const (
	KindDB   = "db"
	KindLogs = "logs"
)

func init() {
	// The modernc driver registers as "sqlite", which sqlx does not know;
	// it uses ? placeholders like any sqlite driver.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Schema DDL, executed idempotently on every Open.
const (
	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    target TEXT NOT NULL,
    format TEXT NOT NULL,
    term_sha256 TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    databases INTEGER NOT NULL DEFAULT 0,
    columns INTEGER NOT NULL DEFAULT 0,
    matches INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL
);`

	createHits = `CREATE TABLE IF NOT EXISTS hits (
    run_id TEXT NOT NULL,
    database_name TEXT NOT NULL,
    table_name TEXT NOT NULL,
    column_name TEXT NOT NULL,
    match_count INTEGER NOT NULL,
    export_path TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id)
);`

	idxHitsRun = `CREATE INDEX IF NOT EXISTS idx_hits_run ON hits(run_id);`
)

// Run is one recorded scan.
type Run struct {
	RunID      string `db:"run_id"`
	Kind       string `db:"kind"`
	Target     string `db:"target"` // database name or log dir; empty means all
	Format     string `db:"format"`
	TermSHA256 string `db:"term_sha256"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Databases  int    `db:"databases"`
	Columns    int    `db:"columns"`
	Matches    int64  `db:"matches"`
	Skipped    int    `db:"skipped"`
	Status     string `db:"status"`
}

// HitRow is one recorded hit of a run.
type HitRow struct {
	RunID      string `db:"run_id"`
	Database   string `db:"database_name"`
	Table      string `db:"table_name"`
	Column     string `db:"column_name"`
	MatchCount int64  `db:"match_count"`
	ExportPath string `db:"export_path"`
}

// Store wraps the history database.
type Store struct {
	db *sqlx.DB
}

// Open creates the data directory and the history database if needed and
// returns a ready store.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	for _, ddl := range []string{createRuns, createHits, idxHitsRun} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("init history schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// NewRunID generates a UUID v7 run identifier, falling back to v4 if v7
// generation fails.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// HashTerm returns the hex SHA-256 of the search term, the only form of the
// term the store ever sees.
func HashTerm(term string) string {
	sum := sha256.Sum256([]byte(term))
	return hex.EncodeToString(sum[:])
}

// Now renders the current UTC time in the store's timestamp format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// StartRun records the beginning of a scan.
func (s *Store) StartRun(run Run) error {
	if run.Status == "" {
		run.Status = StatusStarted
	}
	_, err := s.db.NamedExec(`INSERT INTO runs
        (run_id, kind, target, format, term_sha256, started_at, finished_at,
         databases, columns, matches, skipped, status)
        VALUES (:run_id, :kind, :target, :format, :term_sha256, :started_at,
         :finished_at, :databases, :columns, :matches, :skipped, :status)`, run)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// AddHit records one matched unit of a run.
func (s *Store) AddHit(runID string, hit types.Hit) error {
	_, err := s.db.Exec(`INSERT INTO hits
        (run_id, database_name, table_name, column_name, match_count, export_path)
        VALUES (?, ?, ?, ?, ?, ?)`,
		runID, hit.Unit.Database, hit.Unit.Table, hit.Unit.Column, hit.Matches, hit.ExportPath)
	if err != nil {
		return fmt.Errorf("record hit: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a scan.
func (s *Store) FinishRun(runID, status string, databases, columns int, matches int64, skipped int) error {
	_, err := s.db.Exec(`UPDATE runs SET finished_at = ?, status = ?,
        databases = ?, columns = ?, matches = ?, skipped = ? WHERE run_id = ?`,
		Now(), status, databases, columns, matches, skipped, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recently started first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := s.db.Select(&runs, `SELECT run_id, kind, target, format, term_sha256,
        started_at, COALESCE(finished_at, '') AS finished_at,
        databases, columns, matches, skipped, status
        FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Hits returns the recorded hits of one run.
func (s *Store) Hits(runID string) ([]HitRow, error) {
	var hits []HitRow
	err := s.db.Select(&hits, `SELECT run_id, database_name, table_name,
        column_name, match_count, export_path FROM hits WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("list hits: %w", err)
	}
	return hits, nil
}
