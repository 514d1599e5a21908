package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kayz/promptcraft/internal/prompt"
	"github.com/kayz/promptcraft/internal/studio"
)

// Store persists libraries, templates, prompts and prompt versions using
// SQLite. It implements studio.Store; every method either fully applies or
// not at all, with multi-row operations wrapped in a transaction.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the SQLite database at the given path.
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

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS libraries (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS templates (
			id          TEXT PRIMARY KEY,
			library_id  TEXT NOT NULL,
			usecase     TEXT NOT NULL,
			prompt      TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			FOREIGN KEY (library_id) REFERENCES libraries(id)
		);

		CREATE TABLE IF NOT EXISTS prompts (
			id             TEXT PRIMARY KEY,
			library_id     TEXT NOT NULL DEFAULT '',
			name           TEXT NOT NULL,
			system_prompt  TEXT NOT NULL,
			config         TEXT NOT NULL,
			created_at     TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS prompt_versions (
			id          TEXT PRIMARY KEY,
			prompt_id   TEXT NOT NULL,
			prompt      TEXT NOT NULL,
			tag         TEXT,
			created_at  TEXT NOT NULL,
			FOREIGN KEY (prompt_id) REFERENCES prompts(id)
		);

		CREATE INDEX IF NOT EXISTS idx_templates_library ON templates(library_id);
		CREATE INDEX IF NOT EXISTS idx_versions_prompt ON prompt_versions(prompt_id);
		CREATE INDEX IF NOT EXISTS idx_versions_created ON prompt_versions(created_at);
	`)
	return err
}

func persistErr(op string, err error) error {
	return &studio.PersistenceError{Op: op, Err: err}
}

// Libraries returns all libraries with their templates attached, ordered by
// name.
func (s *Store) Libraries(ctx context.Context) ([]studio.Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM libraries
		ORDER BY name COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, persistErr("list libraries", err)
	}
	defer rows.Close()

	var libraries []studio.Library
	for rows.Next() {
		var lib studio.Library
		var createdAt string
		if err := rows.Scan(&lib.ID, &lib.Name, &createdAt); err != nil {
			return nil, persistErr("list libraries", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			lib.CreatedAt = t
		}
		libraries = append(libraries, lib)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list libraries", err)
	}

	for i := range libraries {
		templates, err := s.templatesForLibrary(ctx, libraries[i].ID)
		if err != nil {
			return nil, err
		}
		libraries[i].Templates = templates
	}

	return libraries, nil
}

func (s *Store) templatesForLibrary(ctx context.Context, libraryID string) ([]studio.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library_id, usecase, prompt
		FROM templates
		WHERE library_id = ?
		ORDER BY usecase COLLATE NOCASE ASC
	`, libraryID)
	if err != nil {
		return nil, persistErr("list templates", err)
	}
	defer rows.Close()

	var templates []studio.Template
	for rows.Next() {
		var tmpl studio.Template
		if err := rows.Scan(&tmpl.ID, &tmpl.LibraryID, &tmpl.Usecase, &tmpl.Text); err != nil {
			return nil, persistErr("list templates", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list templates", err)
	}
	return templates, nil
}

// CreateLibrary inserts a new empty library.
func (s *Store) CreateLibrary(ctx context.Context, name string) (*studio.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	lib := studio.Library{ID: uuid.New().String(), Name: name, CreatedAt: now}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO libraries (id, name, created_at) VALUES (?, ?, ?)
	`, lib.ID, lib.Name, now.Format(time.RFC3339))
	if err != nil {
		return nil, persistErr("create library", err)
	}
	return &lib, nil
}

// RenameLibrary updates a library's name in place.
func (s *Store) RenameLibrary(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE libraries SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return persistErr("rename library", err)
	}
	return requireRow(res, "rename library")
}

// DeleteLibrary removes a library and all templates it owns.
func (s *Store) DeleteLibrary(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("delete library", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE library_id = ?`, id); err != nil {
		return persistErr("delete library", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete library", err)
	}
	if err := requireRow(res, "delete library"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr("delete library", err)
	}
	return nil
}

// CreateTemplate inserts a template into a library.
func (s *Store) CreateTemplate(ctx context.Context, libraryID, usecase, text string) (*studio.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl := studio.Template{ID: uuid.New().String(), LibraryID: libraryID, Usecase: usecase, Text: text}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, library_id, usecase, prompt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, tmpl.ID, tmpl.LibraryID, tmpl.Usecase, tmpl.Text, time.Now().Format(time.RFC3339))
	if err != nil {
		return nil, persistErr("create template", err)
	}
	return &tmpl, nil
}

// UpdateTemplate applies usecase and text together in one statement, so a
// rename plus retext cannot half-apply.
func (s *Store) UpdateTemplate(ctx context.Context, id, usecase, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE templates SET usecase = ?, prompt = ? WHERE id = ?
	`, usecase, text, id)
	if err != nil {
		return persistErr("update template", err)
	}
	return requireRow(res, "update template")
}

// DeleteTemplate removes one template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete template", err)
	}
	return requireRow(res, "delete template")
}

// CreatePrompt inserts a prompt together with its initial version in one
// transaction.
func (s *Store) CreatePrompt(ctx context.Context, libraryID, name, systemPrompt string, cfg prompt.Config) (*studio.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	nowStr := now.Format(time.RFC3339)

	p := studio.Prompt{
		ID:           uuid.New().String(),
		LibraryID:    libraryID,
		Name:         name,
		SystemPrompt: systemPrompt,
		Config:       cfg,
		CreatedAt:    now,
	}
	v := studio.Version{
		ID:        uuid.New().String(),
		PromptID:  p.ID,
		Text:      systemPrompt,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("create prompt", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prompts (id, library_id, name, system_prompt, config, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.LibraryID, p.Name, p.SystemPrompt, toJSON(p.Config), nowStr); err != nil {
		return nil, persistErr("create prompt", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prompt_versions (id, prompt_id, prompt, tag, created_at)
		VALUES (?, ?, ?, NULL, ?)
	`, v.ID, v.PromptID, v.Text, nowStr); err != nil {
		return nil, persistErr("create prompt", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistErr("create prompt", err)
	}

	p.Versions = []studio.Version{v}
	return &p, nil
}

// GetPrompt loads a prompt with its versions, newest first.
func (s *Store) GetPrompt(ctx context.Context, id string) (*studio.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, library_id, name, system_prompt, config, created_at
		FROM prompts
		WHERE id = ?
	`, id)

	var p studio.Prompt
	var cfgJSON, createdAt string
	if err := row.Scan(&p.ID, &p.LibraryID, &p.Name, &p.SystemPrompt, &cfgJSON, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &studio.NotFoundError{Kind: "prompt", Name: id}
		}
		return nil, persistErr("get prompt", err)
	}
	_ = fromJSON(cfgJSON, &p.Config)
	p.Config = p.Config.Normalized()
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}

	versions, err := s.versionsForPrompt(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Versions = versions
	return &p, nil
}

// versionsForPrompt orders newest first; versions sharing a timestamp keep
// insertion order, most recently inserted first.
func (s *Store) versionsForPrompt(ctx context.Context, promptID string) ([]studio.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt_id, prompt, tag, created_at
		FROM prompt_versions
		WHERE prompt_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, promptID)
	if err != nil {
		return nil, persistErr("list versions", err)
	}
	defer rows.Close()

	var versions []studio.Version
	for rows.Next() {
		var v studio.Version
		var tag sql.NullString
		var createdAt string
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Text, &tag, &createdAt); err != nil {
			return nil, persistErr("list versions", err)
		}
		if tag.Valid {
			v.Tag = studio.VersionTag(tag.String)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			v.CreatedAt = t
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list versions", err)
	}
	return versions, nil
}

// UpdatePrompt replaces the current text and config pair. Version rows are
// never touched here; snapshots only change through AddVersion and
// DeleteVersion.
func (s *Store) UpdatePrompt(ctx context.Context, id, systemPrompt string, cfg prompt.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE prompts SET system_prompt = ?, config = ? WHERE id = ?
	`, systemPrompt, toJSON(cfg), id)
	if err != nil {
		return persistErr("update prompt", err)
	}
	return requireRow(res, "update prompt")
}

// DeletePrompt removes a prompt and cascades its versions.
func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("delete prompt", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_versions WHERE prompt_id = ?`, id); err != nil {
		return persistErr("delete prompt", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete prompt", err)
	}
	if err := requireRow(res, "delete prompt"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr("delete prompt", err)
	}
	return nil
}

// AddVersion inserts a new immutable snapshot.
func (s *Store) AddVersion(ctx context.Context, promptID, text string, tag studio.VersionTag) (*studio.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	v := studio.Version{
		ID:        uuid.New().String(),
		PromptID:  promptID,
		Text:      text,
		Tag:       tag,
		CreatedAt: now,
	}

	var tagVal any
	if tag != "" {
		tagVal = string(tag)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_versions (id, prompt_id, prompt, tag, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.ID, v.PromptID, v.Text, tagVal, now.Format(time.RFC3339))
	if err != nil {
		return nil, persistErr("add version", err)
	}
	return &v, nil
}

// DeleteVersion removes one snapshot.
func (s *Store) DeleteVersion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM prompt_versions WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete version", err)
	}
	return requireRow(res, "delete version")
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr(op, err)
	}
	if n == 0 {
		return persistErr(op, sql.ErrNoRows)
	}
	return nil
}

// toJSON converts an object to JSON string
func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// fromJSON parses JSON string into an object
func fromJSON(data string, v any) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
