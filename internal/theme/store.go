package theme

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store handles persistence of themes using SQLite. All read-modify-write
// sequences (notably the activation quota check) run under the store mutex
// so concurrent API callers cannot race the quota.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore creates a new SQLite-backed theme store at the given path.
func NewStore(path string) (*Store, error) {
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

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the themes table if it doesn't exist.
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS themes (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			keywords    TEXT NOT NULL DEFAULT '[]',
			status      TEXT NOT NULL DEFAULT 'draft',
			schedule    TEXT NOT NULL DEFAULT 'weekly'
		);

		CREATE INDEX IF NOT EXISTS idx_themes_status ON themes(status);
	`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTheme constructs and persists a draft theme. Names are not
// required to be unique.
func (s *Store) CreateTheme(name, description string, keywords []string, schedule string) (*Theme, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	t := &Theme{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Keywords:    keywords,
		Status:      StatusDraft,
		Schedule:    schedule,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insert(t); err != nil {
		return nil, err
	}
	return t, nil
}

// insert writes a theme row. Callers hold s.mu.
func (s *Store) insert(t *Theme) error {
	_, err := s.db.Exec(`
		INSERT INTO themes (id, name, description, keywords, status, schedule)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, toJSON(t.Keywords), t.Status, t.Schedule)
	if err != nil {
		return fmt.Errorf("failed to insert theme: %w", err)
	}
	return nil
}

// Themes returns all themes in insertion order.
func (s *Store) Themes() ([]Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, name, description, keywords, status, schedule
		FROM themes ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	themes := []Theme{}
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, *t)
	}
	return themes, rows.Err()
}

// Theme returns a theme by id, or ErrThemeNotFound.
func (s *Store) Theme(id string) (*Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTheme(id)
}

// getTheme looks up one row. Callers hold s.mu.
func (s *Store) getTheme(id string) (*Theme, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, keywords, status, schedule
		FROM themes WHERE id = ?
	`, id)
	t, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, ErrThemeNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTheme applies a partial field merge. Moving a non-active theme to
// active enforces the activation quota; the count and the write happen
// under the same lock so the check cannot be interleaved.
func (s *Store) UpdateTheme(id string, upd Update) (*Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTheme(id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && *upd.Status == StatusActive && t.Status != StatusActive {
		var active int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM themes WHERE status = ?`, StatusActive).Scan(&active); err != nil {
			return nil, err
		}
		if active >= MaxActiveThemes {
			return nil, ErrQuotaExceeded
		}
	}

	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Keywords != nil {
		t.Keywords = upd.Keywords
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Schedule != nil {
		t.Schedule = *upd.Schedule
	}

	_, err = s.db.Exec(`
		UPDATE themes SET name = ?, description = ?, keywords = ?, status = ?, schedule = ?
		WHERE id = ?
	`, t.Name, t.Description, toJSON(t.Keywords), t.Status, t.Schedule, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update theme: %w", err)
	}
	return t, nil
}

// SetStatus is UpdateTheme specialized to the status field. It inherits
// the quota check.
func (s *Store) SetStatus(id, status string) (*Theme, error) {
	return s.UpdateTheme(id, Update{Status: &status})
}

// DeleteTheme removes one theme. Returns false when the id is unknown.
func (s *Store) DeleteTheme(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM themes WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteThemes removes multiple themes and reports how many existed.
func (s *Store) DeleteThemes(ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		res, err := s.db.Exec(`DELETE FROM themes WHERE id = ?`, id)
		if err != nil {
			return deleted, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	return deleted, nil
}

// scanner interface for both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTheme(row scanner) (*Theme, error) {
	var t Theme
	var keywordsJSON string
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &keywordsJSON, &t.Status, &t.Schedule); err != nil {
		return nil, err
	}
	if err := fromJSON(keywordsJSON, &t.Keywords); err != nil {
		return nil, fmt.Errorf("failed to parse keywords: %w", err)
	}
	if t.Keywords == nil {
		t.Keywords = []string{}
	}
	return &t, nil
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func fromJSON(data string, v any) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
