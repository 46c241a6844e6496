// Package postgres persists permutation run results.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"netpres/domain/core"
	"netpres/domain/network"
	"netpres/internal/errors"
	"netpres/internal/significance"
)

// RunRecord is the stored form of one permutation run.
type RunRecord struct {
	ID           core.RunID     `db:"id"`
	Fingerprint  string         `db:"fingerprint"`
	Permutations int            `db:"permutations"`
	Workers      int            `db:"workers"`
	NullModel    string         `db:"null_model"`
	Seed         int64          `db:"seed"`
	Cancelled    bool           `db:"cancelled"`
	ElapsedMS    int64          `db:"elapsed_ms"`
	CreatedAt    core.Timestamp `db:"created_at"`
}

// ResultsRepository stores runs and their per-module statistics.
type ResultsRepository struct {
	db *sqlx.DB
}

// NewResultsRepository creates a results repository
func NewResultsRepository(db *sqlx.DB) *ResultsRepository {
	return &ResultsRepository{db: db}
}

// EnsureSchema creates the result tables when missing.
func (r *ResultsRepository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS preservation_runs (
		id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		permutations INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		null_model TEXT NOT NULL,
		seed BIGINT NOT NULL,
		cancelled BOOLEAN NOT NULL,
		elapsed_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS module_statistics (
		run_id TEXT NOT NULL REFERENCES preservation_runs(id) ON DELETE CASCADE,
		module TEXT NOT NULL,
		statistic TEXT NOT NULL,
		observed DOUBLE PRECISION,
		p_value DOUBLE PRECISION,
		null_mean DOUBLE PRECISION,
		null_sd DOUBLE PRECISION,
		valid_permutations INTEGER NOT NULL,
		PRIMARY KEY (run_id, module, statistic)
	);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.StoreError("failed to create result tables", err)
	}
	return nil
}

// SaveRun inserts a run record and its module statistics in one
// transaction.
func (r *ResultsRepository) SaveRun(ctx context.Context, record RunRecord, summaries []significance.ModuleSummary) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.StoreError("failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if record.CreatedAt.IsZero() {
		record.CreatedAt = core.NewTimestamp(time.Now())
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO preservation_runs (
		id, fingerprint, permutations, workers, null_model, seed, cancelled, elapsed_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.Fingerprint, record.Permutations, record.Workers,
		record.NullModel, record.Seed, record.Cancelled, record.ElapsedMS,
		record.CreatedAt.Time(),
	)
	if err != nil {
		return errors.StoreError("failed to insert run", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO module_statistics (
		run_id, module, statistic, observed, p_value, null_mean, null_sd, valid_permutations
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return errors.StoreError("failed to prepare statistics insert", err)
	}
	defer stmt.Close()

	for _, mod := range summaries {
		for _, stat := range mod.Statistics {
			_, err = stmt.ExecContext(ctx, record.ID, mod.Module, stat.Statistic,
				nullable(stat.Observed), nullable(stat.PValue),
				nullable(stat.NullMean), nullable(stat.NullSD),
				stat.ValidPermutations,
			)
			if err != nil {
				return errors.StoreError(fmt.Sprintf("failed to insert statistic %s/%s", mod.Module, stat.Statistic), err)
			}
		}
	}
	return tx.Commit()
}

// GetRun retrieves a stored run record.
func (r *ResultsRepository) GetRun(ctx context.Context, id core.RunID) (*RunRecord, error) {
	var record RunRecord
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT
		id, fingerprint, permutations, workers, null_model, seed, cancelled, elapsed_ms, created_at
	FROM preservation_runs WHERE id = $1`, id).Scan(
		&record.ID, &record.Fingerprint, &record.Permutations, &record.Workers,
		&record.NullModel, &record.Seed, &record.Cancelled, &record.ElapsedMS, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.RunNotFound(id.String())
		}
		return nil, errors.StoreError("failed to get run", err)
	}
	record.CreatedAt = core.NewTimestamp(createdAt)
	return &record, nil
}

// nullable converts the missing sentinel to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if network.IsMissing(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
