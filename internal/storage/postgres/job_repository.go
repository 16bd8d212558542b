package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// Upsert arms a job. The job key is the identity: re-arming an
// existing key replaces its fire time and re-opens it instead of
// duplicating the job.
func (r *JobRepository) Upsert(ctx context.Context, job domain.ScheduledJob) error {
	const stmt = `
INSERT INTO scheduled_jobs (job_key, kind, reservation_id, fire_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (job_key)
DO UPDATE SET fire_at = EXCLUDED.fire_at, status = EXCLUDED.status`

	_, err := r.exec(ctx, stmt,
		job.Key,
		job.Kind,
		job.ReservationID,
		job.FireAt,
		job.Status,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert scheduled job: %w", err)
	}
	return nil
}

// DueJobs claims pending jobs whose fire time has passed. SKIP LOCKED
// keeps concurrent runner instances from firing the same job twice.
func (r *JobRepository) DueJobs(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledJob, error) {
	const query = `
SELECT job_key, kind, reservation_id, fire_at, status, created_at
FROM scheduled_jobs
WHERE status = 'pending' AND fire_at <= $1
ORDER BY fire_at
LIMIT $2
FOR UPDATE SKIP LOCKED`

	rows, err := r.query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ScheduledJob
	for rows.Next() {
		var job domain.ScheduledJob
		var kind, status string
		if err := rows.Scan(&job.Key, &kind, &job.ReservationID, &job.FireAt, &status, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled job: %w", err)
		}
		job.Kind = domain.JobKind(kind)
		job.Status = domain.JobStatus(status)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due jobs: %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) MarkDone(ctx context.Context, key string) error {
	const stmt = `UPDATE scheduled_jobs SET status = 'done' WHERE job_key = $1`

	_, err := r.exec(ctx, stmt, key)
	if err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	return nil
}

func (r *JobRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *JobRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
