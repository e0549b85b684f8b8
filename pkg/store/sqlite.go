package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/hullworld/pkg/world"
	"github.com/google/uuid"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS worlds (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    solids     INTEGER NOT NULL,
    data       TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

// SQLite stores worlds as JSON documents in a single table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("store: sqlite backend needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, name string, shapes []world.SerializedShape) (Entry, error) {
	if err := ValidName(name); err != nil {
		return Entry{}, err
	}
	if shapes == nil {
		shapes = []world.SerializedShape{}
	}
	data, err := json.Marshal(shapes)
	if err != nil {
		return Entry{}, fmt.Errorf("store: encode %s: %w", name, err)
	}
	e := Entry{Name: name, Solids: len(shapes), UpdatedAt: time.Now().UTC()}
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO worlds (id, name, solids, data, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            solids = excluded.solids,
            data = excluded.data,
            updated_at = excluded.updated_at
        RETURNING id
    `, uuid.NewString(), name, e.Solids, string(data), e.UpdatedAt.Format(time.RFC3339Nano))
	if err := row.Scan(&e.ID); err != nil {
		return Entry{}, fmt.Errorf("store: save %s: %w", name, err)
	}
	return e, nil
}

func (s *SQLite) Load(ctx context.Context, name string) ([]world.SerializedShape, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM worlds WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	var shapes []world.SerializedShape
	if err := json.Unmarshal([]byte(data), &shapes); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return shapes, nil
}

func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, solids, updated_at
        FROM worlds
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			updated string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Solids, &updated); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("store: list %s: %w", e.Name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM worlds WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
