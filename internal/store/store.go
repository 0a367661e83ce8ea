// Package store keeps a local history of research runs in SQLite.
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

	_ "modernc.org/sqlite"

	"github.com/ppiankov/deepresearch/internal/model"
)

// fixed-width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown run id
var ErrNotFound = errors.New("run not found")

// Summary is one row of the history listing
type Summary struct {
	ID             string
	Query          string
	CreatedAt      time.Time
	Depth          int
	Breadth        int
	Learnings      int
	Sources        int
	Contradictions int
}

// Store is a SQLite-backed run history
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path. ":memory:" opens an
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		created_at TEXT NOT NULL,
		depth INTEGER NOT NULL,
		breadth INTEGER NOT NULL,
		learnings INTEGER NOT NULL,
		sources INTEGER NOT NULL,
		contradictions INTEGER NOT NULL,
		result TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores a result, replacing any earlier row with the same run id
func (s *Store) Save(ctx context.Context, r model.Result) error {
	if r.RunID == "" {
		return fmt.Errorf("save run: missing run id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	created := r.StartedAt
	if created.IsZero() {
		created = time.Now()
	}

	query := `INSERT OR REPLACE INTO runs
		(id, query, created_at, depth, breadth, learnings, sources, contradictions, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		r.RunID, r.Query, created.UTC().Format(timeLayout),
		r.Depth, r.Breadth, len(r.Learnings), len(r.VisitedURLs), len(r.Contradictions),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT id, query, created_at, depth, breadth, learnings, sources, contradictions
		FROM runs ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Query, &created, &sum.Depth, &sum.Breadth,
			&sum.Learnings, &sum.Sources, &sum.Contradictions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Get loads the full result of a run
func (s *Store) Get(ctx context.Context, id string) (model.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("query run %s: %w", id, err)
	}

	var r model.Result
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return model.Result{}, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return r, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
