package research

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound marks lookups of unknown run ids.
var ErrRunNotFound = errors.New("research run not found")

// HistoryStore handles persistence of research runs using SQLite. The
// collection is append-only: runs are never updated or deleted.
type HistoryStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewHistoryStore creates a new SQLite-backed run history at the given path.
func NewHistoryStore(path string) (*HistoryStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &HistoryStore{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *HistoryStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			theme_id   TEXT NOT NULL,
			theme_name TEXT NOT NULL,
			timestamp  TEXT NOT NULL,
			buckets    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_theme ON runs(theme_id);
	`)
	return err
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Append persists a completed run.
func (s *HistoryStore) Append(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucketsJSON, err := json.Marshal(run.Buckets)
	if err != nil {
		return fmt.Errorf("failed to encode buckets: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, theme_id, theme_name, timestamp, buckets)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.ThemeID, run.ThemeName, run.Timestamp.Format(time.RFC3339Nano), string(bucketsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Runs returns all runs, oldest first.
func (s *HistoryStore) Runs() ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, theme_id, theme_name, timestamp, buckets
		FROM runs ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Run returns one run by id, or ErrRunNotFound.
func (s *HistoryStore) Run(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, theme_id, theme_name, timestamp, buckets
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var ts, bucketsJSON string
	if err := row.Scan(&r.ID, &r.ThemeID, &r.ThemeName, &ts, &bucketsJSON); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	r.Timestamp = parsed

	if err := json.Unmarshal([]byte(bucketsJSON), &r.Buckets); err != nil {
		return nil, fmt.Errorf("failed to parse run buckets: %w", err)
	}
	return &r, nil
}
