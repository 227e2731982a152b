package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/debug"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS annotations (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	page_key   TEXT NOT NULL,
	status     TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_annotations_page ON annotations(page_key, kind);
`

// SQLiteStore keeps annotations in a SQLite database. The schema version
// lives in PRAGMA user_version.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB

	// Now stamps saves; defaults to time.Now.
	Now func() time.Time
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// PRAGMA state and :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=10000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, Now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == SchemaVersion {
		_, err := s.db.ExecContext(ctx, sqliteSchema)
		return err
	}
	if version != 0 {
		debug.Warn("store", "database has schema version %d, want %d; clearing", version, SchemaVersion)
	}
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS annotations"); err != nil {
		return fmt.Errorf("failed to clear annotations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]annotation.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT data FROM annotations ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	var out []annotation.Annotation
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a annotation.Annotation
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("failed to decode annotation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.get(ctx, a.ID)
	if err != nil {
		return annotation.Annotation{}, err
	}
	stored, err := stamp(a, prev, s.Now())
	if err != nil {
		return annotation.Annotation{}, err
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return annotation.Annotation{}, fmt.Errorf("failed to encode annotation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO annotations (id, kind, page_key, status, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			page_key = excluded.page_key,
			status = excluded.status,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		stored.ID, string(stored.Kind), stored.PageKey, string(stored.Status), string(data),
		stored.CreatedAt.Format(time.RFC3339Nano), stored.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return annotation.Annotation{}, fmt.Errorf("failed to save annotation: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStore) get(ctx context.Context, id string) (*annotation.Annotation, error) {
	if id == "" {
		return nil, nil
	}
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM annotations WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load annotation: %w", err)
	}
	var a annotation.Annotation
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("failed to decode annotation: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM annotations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
