// Package catalog persists a registry of analysis runs in SQLite, so a
// later rendering pass can locate the newest stabilization data for a clip
// without carrying the file path around.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded analysis pass.
type Run struct {
	RunID      string    `json:"run_id"`
	ClipDir    string    `json:"clip_dir"`
	DataPath   string    `json:"data_path"`
	FrameCount int       `json:"frame_count"`
	Window     int       `json:"window"`
	CreatedAt  time.Time `json:"created_at"`
}

// Catalog wraps the backing database.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id       TEXT PRIMARY KEY,
			clip_dir     TEXT NOT NULL,
			data_path    TEXT NOT NULL,
			frame_count  BIGINT,
			window       BIGINT,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordRun inserts a run, assigning a run ID and timestamp when absent,
// and returns the stored row.
func (c *Catalog) RecordRun(run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := c.db.Exec(`
		INSERT INTO analysis_runs (run_id, clip_dir, data_path, frame_count, window, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.ClipDir,
		run.DataPath,
		run.FrameCount,
		run.Window,
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Run{}, fmt.Errorf("recording analysis run for %s: %w", run.ClipDir, err)
	}
	return run, nil
}

// LatestForClip returns the most recent run recorded for a clip directory,
// or sql.ErrNoRows when the clip has never been analyzed.
func (c *Catalog) LatestForClip(clipDir string) (Run, error) {
	row := c.db.QueryRow(`
		SELECT run_id, clip_dir, data_path, frame_count, window, created_at
		FROM analysis_runs
		WHERE clip_dir = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, clipDir)

	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("looking up analysis run for %s: %w", clipDir, err)
	}
	return run, nil
}

// ListRuns returns all recorded runs, newest first.
func (c *Catalog) ListRuns() ([]Run, error) {
	rows, err := c.db.Query(`
		SELECT run_id, clip_dir, data_path, frame_count, window, created_at
		FROM analysis_runs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var createdAt string
	if err := s.Scan(&run.RunID, &run.ClipDir, &run.DataPath, &run.FrameCount, &run.Window, &createdAt); err != nil {
		return Run{}, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}
