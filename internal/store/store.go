// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps normalized runs in a SQLite snapshot database so a
// run can be listed, reloaded and exported after the fetch is over.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/realprice-etl/internal/merge"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

// DefaultPath is the database file used when the config names none.
const DefaultPath = "data/realprice.db"

// createdLayout has fixed width so created_at sorts as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Store manages the snapshot database.
type Store struct {
	db *sql.DB
}

// Run describes one saved run.
type Run struct {
	ID        string        `json:"id" yaml:"id"`
	FetchTime string        `json:"fetch_time" yaml:"fetch_time"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	TotalRows int           `json:"total_rows" yaml:"total_rows"`
	Sources   []SourceCount `json:"sources" yaml:"sources"`
}

// SourceCount is the stored per-source accounting of a run.
type SourceCount struct {
	Label string `json:"label" yaml:"label"`
	Rows  int    `json:"rows" yaml:"rows"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Open opens or creates the database at cfg.Path and its schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			fetch_time TEXT,
			created_at TEXT NOT NULL,
			total_rows INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS source_counts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS run_columns (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS run_rows (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (run_id, row_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores the normalized table together with the merge accounting
// and returns the new run ID. The fetch time is read from the table's
// fetch time column.
func (s *Store) SaveRun(ctx context.Context, t *types.Table, res merge.Result) (string, error) {
	id := uuid.NewString()
	created := time.Now().UTC()

	fetchTime := ""
	if t.Len() > 0 {
		if v, err := t.Value(0, types.FetchTimeColumn); err == nil {
			fetchTime = v.String()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, fetch_time, created_at, total_rows) VALUES (?, ?, ?, ?)`,
		id, fetchTime, created.Format(createdLayout), t.Len(),
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, c := range res.Counts {
		var errText sql.NullString
		if c.Err != nil {
			errText = sql.NullString{String: c.Err.Error(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO source_counts (run_id, position, label, row_count, error) VALUES (?, ?, ?, ?, ?)`,
			id, i, c.Label, c.Rows, errText,
		); err != nil {
			return "", fmt.Errorf("inserting source count %s: %w", c.Label, err)
		}
	}

	for i, name := range t.Columns() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_columns (run_id, position, name) VALUES (?, ?, ?)`,
			id, i, name,
		); err != nil {
			return "", fmt.Errorf("inserting column %s: %w", name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_rows (run_id, row_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		data, err := encodeRow(t.Row(i).Values())
		if err != nil {
			return "", fmt.Errorf("encoding row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, data); err != nil {
			return "", fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fetch_time, created_at, total_rows FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Sources, err = s.sourceCounts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRun returns the run with id, without its rows.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fetch_time, created_at, total_rows FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	if r.Sources, err = s.sourceCounts(ctx, id); err != nil {
		return Run{}, err
	}
	return r, nil
}

// LoadRun returns the run with id and its table, with cell kinds as they
// were saved.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, *types.Table, error) {
	r, err := s.GetRun(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}

	cols, err := s.columns(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}
	t := types.NewTable(cols...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM run_rows WHERE run_id = ? ORDER BY row_index`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return Run{}, nil, fmt.Errorf("scanning row: %w", err)
		}
		vals, err := decodeRow(data)
		if err != nil {
			return Run{}, nil, fmt.Errorf("decoding row %d: %w", t.Len(), err)
		}
		if err := t.AppendRow(vals...); err != nil {
			return Run{}, nil, err
		}
	}
	return r, t, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var fetchTime sql.NullString
	var created string
	if err := sc.Scan(&r.ID, &fetchTime, &created, &r.TotalRows); err != nil {
		return Run{}, err
	}
	r.FetchTime = fetchTime.String
	t, err := time.Parse(createdLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
	}
	r.CreatedAt = t
	return r, nil
}

func (s *Store) sourceCounts(ctx context.Context, id string) ([]SourceCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, row_count, error FROM source_counts WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying source counts: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var c SourceCount
		var errText sql.NullString
		if err := rows.Scan(&c.Label, &c.Rows, &errText); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		c.Error = errText.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) columns(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM run_columns WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
