// Package drafts keeps unsaved full-replace edits between CLI invocations.
//
// A draft is the base set as last fetched plus the operator's working set.
// Nothing in a draft reaches the server until it is submitted; submitting
// sends the whole working set and deletes the draft.
package drafts

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// KindSubgroups is a draft of one main group's subgroup set.
const KindSubgroups = "main_group_subgroups"

// ErrNotFound is returned when no draft exists for a key.
var ErrNotFound = errors.New("draft not found")

// Store handles SQLite draft storage
type Store struct {
	db *sql.DB
}

// Key identifies a draft: one per deployment, collection kind and parent.
type Key struct {
	BaseURL string `json:"base_url"`
	Kind    string `json:"kind"`
	Parent  string `json:"parent"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s/%s", k.BaseURL, k.Kind, k.Parent)
}

// Draft is a staged working set.
type Draft struct {
	Key
	Base      []string  `json:"base"`
	Working   []string  `json:"working"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is one journal entry for a draft: an edit or a submission outcome.
type Event struct {
	ID        string
	Key       Key
	Action    string
	Detail    string
	Timestamp time.Time
}

// NewStore opens (creating if needed) the draft database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	// Expand ~ in path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS drafts (
			base_url TEXT NOT NULL,
			kind TEXT NOT NULL,
			parent TEXT NOT NULL,
			base TEXT NOT NULL,
			working TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (base_url, kind, parent)
		);

		CREATE TABLE IF NOT EXISTS draft_events (
			id TEXT PRIMARY KEY,
			base_url TEXT NOT NULL,
			kind TEXT NOT NULL,
			parent TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_draft_events_key ON draft_events(base_url, kind, parent);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a draft. CreatedAt is kept from the first save.
func (s *Store) Save(d *Draft) error {
	baseJSON, err := json.Marshal(nonNil(d.Base))
	if err != nil {
		return err
	}
	workingJSON, err := json.Marshal(nonNil(d.Working))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO drafts (base_url, kind, parent, base, working, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (base_url, kind, parent) DO UPDATE SET
			base = excluded.base,
			working = excluded.working,
			updated_at = excluded.updated_at
	`, d.BaseURL, d.Kind, d.Parent, string(baseJSON), string(workingJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", d.Key, err)
	}
	return nil
}

// Get returns the draft for k or ErrNotFound.
func (s *Store) Get(k Key) (*Draft, error) {
	row := s.db.QueryRow(`
		SELECT base_url, kind, parent, base, working, created_at, updated_at
		FROM drafts WHERE base_url = ? AND kind = ? AND parent = ?
	`, k.BaseURL, k.Kind, k.Parent)

	d, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
		}
		return nil, err
	}
	return d, nil
}

// Delete removes the draft for k. Deleting a missing draft is not an error.
func (s *Store) Delete(k Key) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE base_url = ? AND kind = ? AND parent = ?`, k.BaseURL, k.Kind, k.Parent)
	return err
}

// List returns every draft for baseURL, most recently updated first.
func (s *Store) List(baseURL string) ([]*Draft, error) {
	rows, err := s.db.Query(`
		SELECT base_url, kind, parent, base, working, created_at, updated_at
		FROM drafts WHERE base_url = ?
		ORDER BY updated_at DESC, parent ASC
	`, baseURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Record appends a journal entry for k.
func (s *Store) Record(k Key, action, detail string) error {
	_, err := s.db.Exec(`
		INSERT INTO draft_events (id, base_url, kind, parent, action, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), k.BaseURL, k.Kind, k.Parent, action, detail, time.Now().UTC())
	return err
}

// Events returns the journal for k in the order it was written.
func (s *Store) Events(k Key) ([]*Event, error) {
	rows, err := s.db.Query(`
		SELECT id, base_url, kind, parent, action, detail, timestamp
		FROM draft_events
		WHERE base_url = ? AND kind = ? AND parent = ?
		ORDER BY timestamp ASC, rowid ASC
	`, k.BaseURL, k.Kind, k.Parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Key.BaseURL, &e.Key.Kind, &e.Key.Parent, &e.Action, &detail, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		events = append(events, &e)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (*Draft, error) {
	var d Draft
	var baseJSON, workingJSON string
	if err := row.Scan(&d.BaseURL, &d.Kind, &d.Parent, &baseJSON, &workingJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(baseJSON), &d.Base); err != nil {
		return nil, fmt.Errorf("corrupt draft %s: %w", d.Key, err)
	}
	if err := json.Unmarshal([]byte(workingJSON), &d.Working); err != nil {
		return nil, fmt.Errorf("corrupt draft %s: %w", d.Key, err)
	}
	return &d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
