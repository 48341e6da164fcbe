package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"domainwizard/internal/domain"
	"domainwizard/internal/ports"
)

// RunRepository stores one search_runs row per job.
type RunRepository struct{ db *DB }

func NewRunRepository(db *DB) *RunRepository { return &RunRepository{db: db} }

func (r *RunRepository) Create(ctx context.Context, job domain.Job, in domain.SearchInput) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO search_runs (id, status, keywords, tld, input, total_loops, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, job.ID, string(job.Status), in.Keywords, in.TLD, raw, job.TotalLoops, job.CreatedAt)
	return err
}

func (r *RunRepository) MarkRunning(ctx context.Context, jobID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE search_runs SET status = 'running', started_at = COALESCE(started_at, now())
		WHERE id = $1 AND status NOT IN ('done', 'failed')
	`, jobID)
	return err
}

func (r *RunRepository) UpdateProgress(ctx context.Context, jobID string, progress, loop int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE search_runs SET progress = GREATEST(progress, $2), current_loop = $3 WHERE id = $1
	`, jobID, progress, loop)
	return err
}

func (r *RunRepository) MarkCompleted(ctx context.Context, jobID string, res *domain.Results) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	top := ""
	if res != nil && len(res.AllRanked) > 0 {
		top = res.AllRanked[0].Domain
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockRun(ctx, tx, jobID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE search_runs
			SET status = 'done', progress = 100, results = $2, top_domain = $3, completed_at = now()
			WHERE id = $1
		`, jobID, raw, top)
		return err
	})
}

func (r *RunRepository) MarkFailed(ctx context.Context, jobID string, code domain.ErrorCode, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockRun(ctx, tx, jobID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE search_runs
			SET status = 'failed', error_code = $2, error = $3, completed_at = now()
			WHERE id = $1
		`, jobID, string(code), reason)
		return err
	})
}

// lockRun takes the row lock and refuses rows that already reached a
// terminal status.
func lockRun(ctx context.Context, tx pgx.Tx, jobID string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM search_runs WHERE id = $1 FOR UPDATE`, jobID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if domain.JobStatus(status).Terminal() {
		return fmt.Errorf("run %s: %w", jobID, domain.ErrTerminalJob)
	}
	return nil
}

func (r *RunRepository) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, status, keywords, tld, total_loops, progress,
		       COALESCE(error_code, ''), COALESCE(error, ''), COALESCE(top_domain, ''),
		       created_at, completed_at
		FROM search_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := []ports.RunRecord{}
	for rows.Next() {
		var rec ports.RunRecord
		var status string
		if err := rows.Scan(&rec.ID, &status, &rec.Keywords, &rec.TLD, &rec.TotalLoops, &rec.Progress,
			&rec.ErrorCode, &rec.Error, &rec.TopDomain, &rec.CreatedAt, &rec.CompletedAt); err != nil {
			return nil, err
		}
		rec.Status = domain.JobStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
