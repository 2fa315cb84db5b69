// Package store handles SQLite persistence of report runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/kmerqc/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Run is the data saved for one report run.
type Run struct {
	StartedAt    time.Time
	AnalysisDirs []string
	XMin         int
	XMax         int
	Sources      []model.DataSource
	Dataset      model.Dataset
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			analysis_dirs TEXT NOT NULL,
			xmin INTEGER NOT NULL,
			xmax INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS data_sources (
			run_id INTEGER NOT NULL,
			module TEXT NOT NULL,
			section TEXT NOT NULL,
			sample TEXT NOT NULL,
			path TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS histogram_points (
			run_id INTEGER NOT NULL,
			sample TEXT NOT NULL,
			position INTEGER NOT NULL,
			occurrence INTEGER NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (run_id, sample, occurrence)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_run ON data_sources(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a run with its data sources and histograms.
func (s *Store) SaveRun(ctx context.Context, run Run) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, analysis_dirs, xmin, xmax) VALUES (?, ?, ?, ?)`,
		run.StartedAt.Format(time.RFC3339Nano),
		strings.Join(run.AnalysisDirs, "\n"),
		run.XMin,
		run.XMax,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(run.Sources) > 0 {
		if err = insertSources(ctx, tx, id, run.Sources); err != nil {
			return 0, err
		}
	}
	if len(run.Dataset) > 0 {
		if err = insertDataset(ctx, tx, id, run.Dataset); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func insertSources(ctx context.Context, tx *sql.Tx, runID int64, sources []model.DataSource) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO data_sources (run_id, module, section, sample, path) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, src := range sources {
		if _, err := stmt.ExecContext(ctx, runID, src.Module, src.Section, src.SampleName, src.Path); err != nil {
			return err
		}
	}
	return nil
}

func insertDataset(ctx context.Context, tx *sql.Tx, runID int64, data model.Dataset) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO histogram_points (run_id, sample, position, occurrence, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for sample, h := range data {
		for pos, key := range h.Keys() {
			value, _ := h.Get(key)
			if _, err := stmt.ExecContext(ctx, runID, sample, pos, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListRuns returns stored runs, most recent first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	query := `SELECT r.id, r.started_at, r.analysis_dirs, r.xmin, r.xmax,
		(SELECT COUNT(DISTINCT sample) FROM histogram_points p WHERE p.run_id = r.id) AS samples
		FROM runs r
		ORDER BY r.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunSummary
	for rows.Next() {
		var run model.RunSummary
		var startedAt, dirs string
		if err := rows.Scan(&run.ID, &startedAt, &dirs, &run.XMin, &run.XMax, &run.Samples); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		run.StartedAt = parsed
		if dirs != "" {
			run.AnalysisDirs = strings.Split(dirs, "\n")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a run summary by id.
func (s *Store) GetRun(ctx context.Context, runID int64) (model.RunSummary, error) {
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return model.RunSummary{}, err
	}
	for _, run := range runs {
		if run.ID == runID {
			return run, nil
		}
	}
	return model.RunSummary{}, fmt.Errorf("run %d not found", runID)
}

// LatestRunID returns the id of the most recent run.
func (s *Store) LatestRunID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM runs`).Scan(&id); err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, fmt.Errorf("no runs stored")
	}
	return id.Int64, nil
}

// ListSources returns the data sources of a run in insertion order.
func (s *Store) ListSources(ctx context.Context, runID int64) ([]model.DataSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module, section, sample, path FROM data_sources WHERE run_id = ? ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sources []model.DataSource
	for rows.Next() {
		var src model.DataSource
		if err := rows.Scan(&src.Module, &src.Section, &src.SampleName, &src.Path); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

// LoadDataset restores the histograms of a run with their key order.
func (s *Store) LoadDataset(ctx context.Context, runID int64) (model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sample, occurrence, value FROM histogram_points WHERE run_id = ? ORDER BY sample, position`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	data := model.Dataset{}
	for rows.Next() {
		var sample string
		var occurrence int
		var value int64
		if err := rows.Scan(&sample, &occurrence, &value); err != nil {
			return nil, err
		}
		h, ok := data[sample]
		if !ok {
			h = model.NewHistogram()
			data[sample] = h
		}
		h.Set(occurrence, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return data, nil
}
