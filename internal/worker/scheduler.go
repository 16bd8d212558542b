package worker

import (
	"context"
	"time"

	"github.com/p-sear/p-sear-backend/internal/clock"
	"github.com/p-sear/p-sear-backend/internal/domain"
	"go.uber.org/zap"
)

type JobRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Upsert(ctx context.Context, job domain.ScheduledJob) error
	DueJobs(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledJob, error)
	MarkDone(ctx context.Context, key string) error
}

// JobHandler executes one fired job. Errors leave the job pending so
// the next pass retries it.
type JobHandler func(ctx context.Context, job domain.ScheduledJob) error

// Scheduler arms and fires deferred per-reservation jobs backed by a
// durable table, so armed timers survive restarts.
type Scheduler struct {
	repo     JobRepository
	clock    clock.Clock
	logger   *zap.Logger
	interval time.Duration
	handlers map[domain.JobKind]JobHandler
}

const schedulerBatch = 50
const jobTimeout = 30 * time.Second

func NewScheduler(repo JobRepository, clk clock.Clock, logger *zap.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		repo:     repo,
		clock:    clk,
		logger:   logger,
		interval: interval,
		handlers: make(map[domain.JobKind]JobHandler),
	}
}

// Register binds a handler to a job kind. Not safe to call after
// Start.
func (s *Scheduler) Register(kind domain.JobKind, handler JobHandler) {
	s.handlers[kind] = handler
}

// Arm schedules a job. Arming an already-armed key replaces the prior
// job rather than duplicating it.
func (s *Scheduler) Arm(ctx context.Context, job domain.ScheduledJob) error {
	job.Status = domain.JobStatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.clock.Now()
	}
	return s.repo.Upsert(ctx, job)
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("job scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunDue(ctx); err != nil {
				s.logger.Error("scheduler pass failed", zap.Error(err))
			}
		}
	}
}

// RunDue claims and fires due jobs. The claim lock is held for the
// duration of the handlers, so a concurrent runner skips the same
// jobs.
func (s *Scheduler) RunDue(ctx context.Context) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		jobs, err := s.repo.DueJobs(txCtx, s.clock.Now(), schedulerBatch)
		if err != nil {
			return err
		}

		for _, job := range jobs {
			handler, ok := s.handlers[job.Kind]
			if !ok {
				// Left pending so a wiring mistake keeps surfacing
				// instead of silently consuming the job.
				s.logger.Warn("no handler for job kind",
					zap.String("kind", string(job.Kind)),
					zap.String("key", job.Key))
				continue
			}
			if err := s.fire(ctx, handler, job); err != nil {
				s.logger.Error("job failed, will retry next pass",
					zap.String("key", job.Key),
					zap.Error(err))
				continue
			}

			if err := s.repo.MarkDone(txCtx, job.Key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Scheduler) fire(ctx context.Context, handler JobHandler, job domain.ScheduledJob) error {
	fireCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	return handler(fireCtx, job)
}
