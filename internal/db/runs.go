package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StartRun inserts a run row; starting an existing run is a no-op
func (db *DB) StartRun(ctx context.Context, id uuid.UUID, role string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO compression_runs (id, role, status)
		 VALUES ($1, $2, 'running')
		 ON CONFLICT (id) DO NOTHING`,
		id, role,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// SaveIteration stores one evaluation; re-saving an iteration overwrites it
func (db *DB) SaveIteration(ctx context.Context, runID uuid.UUID, it Iteration) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO compression_iterations
		   (run_id, iteration, raw_score, adjusted_score, page_count, pressure,
		    escalation_level, passed, rolled_back, review_source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (run_id, iteration) DO UPDATE SET
		   raw_score = $3, adjusted_score = $4, page_count = $5, pressure = $6,
		   escalation_level = $7, passed = $8, rolled_back = $9, review_source = $10`,
		runID, it.Iteration, it.RawScore, it.AdjustedScore, it.PageCount, it.Pressure,
		it.EscalationLevel, it.Passed, it.RolledBack, it.ReviewSource,
	)
	if err != nil {
		return fmt.Errorf("failed to save iteration %d: %w", it.Iteration, err)
	}
	return nil
}

// CompleteRun records the final outcome of a run, creating the row if needed
func (db *DB) CompleteRun(ctx context.Context, run Run) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO compression_runs
		   (id, role, status, final_score, page_count, iterations, pressure, tier,
		    escalation_level, error_message, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   status = $3, final_score = $4, page_count = $5, iterations = $6, pressure = $7,
		   tier = $8, escalation_level = $9, error_message = $10, completed_at = NOW()`,
		run.ID, run.Role, run.Status, run.FinalScore, run.PageCount, run.Iterations,
		run.Pressure, run.Tier, run.EscalationLevel, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

const runColumns = `id, role, status, final_score, page_count, iterations, pressure, tier,
	escalation_level, error_message, created_at, completed_at`

func scanRun(row pgx.Row, run *Run) error {
	return row.Scan(&run.ID, &run.Role, &run.Status, &run.FinalScore, &run.PageCount,
		&run.Iterations, &run.Pressure, &run.Tier, &run.EscalationLevel, &run.ErrorMessage,
		&run.CreatedAt, &run.CompletedAt)
}

// GetRun retrieves a run with its iterations. A missing run returns nil, nil.
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run Run
	err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM compression_runs WHERE id = $1`, id), &run)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT iteration, raw_score, adjusted_score, page_count, pressure,
		        escalation_level, passed, rolled_back, review_source, created_at
		 FROM compression_iterations WHERE run_id = $1 ORDER BY iteration`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list iterations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Iteration
		if err := rows.Scan(&it.Iteration, &it.RawScore, &it.AdjustedScore, &it.PageCount,
			&it.Pressure, &it.EscalationLevel, &it.Passed, &it.RolledBack, &it.ReviewSource,
			&it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}
		run.History = append(run.History, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list iterations: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs without their iterations
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM compression_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := scanRun(rows, &run); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
