// Package registry keeps a local history of training runs in a SQLite file.
// Each published artifact appends one row, so operators can see which model
// is live and how past runs scored without digging through logs.
package registry

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
)

const ddl = `
CREATE TABLE IF NOT EXISTS training_runs (
	id            TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	kind          TEXT NOT NULL,
	accuracy      REAL NOT NULL,
	f1_low        REAL NOT NULL,
	f1_moderate   REAL NOT NULL,
	f1_high       REAL NOT NULL,
	artifact_path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_training_runs_created_at ON training_runs (created_at DESC);
`

// Run is one recorded training run.
type Run struct {
	ID           string
	CreatedAt    time.Time
	Kind         string
	Accuracy     float64
	F1Low        float64
	F1Moderate   float64
	F1High       float64
	ArtifactPath string
}

// Registry is a handle to the run history database.
type Registry struct {
	db *sql.DB
}

// Open opens (creating if needed) the registry database at path.
func Open(ctx context.Context, path string) (*Registry, error) {
	if path == "" {
		return nil, errors.NewValueError("registry.Open", "database path not specified")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open registry database %s", path)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create registry schema in %s", path)
	}
	return &Registry{db: db}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return errors.Wrap(r.db.Close(), "close registry database")
}

// Record appends one training run.
func (r *Registry) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.NewValueError("Registry.Record", "run id must not be empty")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO training_runs
		 (id, created_at, kind, accuracy, f1_low, f1_moderate, f1_high, artifact_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Kind,
		run.Accuracy,
		run.F1Low,
		run.F1Moderate,
		run.F1High,
		run.ArtifactPath,
	)
	return errors.Wrapf(err, "record training run %s", run.ID)
}

// List returns up to limit runs, newest first. A non-positive limit returns
// everything.
func (r *Registry) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, kind, accuracy, f1_low, f1_moderate, f1_high, artifact_path
		 FROM training_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query training runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, errors.Wrap(rows.Err(), "iterate training runs")
}

// Latest returns the most recent run. sql.ErrNoRows surfaces (wrapped) when
// the registry is empty.
func (r *Registry) Latest(ctx context.Context) (Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, kind, accuracy, f1_low, f1_moderate, f1_high, artifact_path
		 FROM training_runs ORDER BY created_at DESC LIMIT 1`)
	if err != nil {
		return Run{}, errors.Wrap(err, "query latest training run")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Run{}, errors.Wrap(err, "iterate latest training run")
		}
		return Run{}, errors.Wrap(sql.ErrNoRows, "registry is empty")
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var createdAt string
	if err := rows.Scan(&run.ID, &createdAt, &run.Kind, &run.Accuracy,
		&run.F1Low, &run.F1Moderate, &run.F1High, &run.ArtifactPath); err != nil {
		return Run{}, errors.Wrap(err, "scan training run")
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, errors.Wrapf(err, "parse created_at %q", createdAt)
	}
	run.CreatedAt = ts
	return run, nil
}
