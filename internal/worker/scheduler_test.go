package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/p-sear/p-sear-backend/internal/clock"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

func TestScheduler_Arm(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeJobRepo()
	scheduler := NewScheduler(repo, clock.NewFixed(now), zap.NewNop(), time.Second)

	job := domain.ScheduledJob{
		Key:           domain.ClosingJobKey("r-1"),
		Kind:          domain.JobKindClosing,
		ReservationID: "r-1",
		FireAt:        now.Add(time.Hour),
	}
	require.NoError(t, scheduler.Arm(context.Background(), job))

	stored := repo.jobs[job.Key]
	assert.Equal(t, domain.JobStatusPending, stored.Status)
	assert.Equal(t, now, stored.CreatedAt)

	// Re-arming the same key replaces the fire time instead of adding a
	// second job.
	job.FireAt = now.Add(2 * time.Hour)
	require.NoError(t, scheduler.Arm(context.Background(), job))
	require.Len(t, repo.jobs, 1)
	assert.Equal(t, now.Add(2*time.Hour), repo.jobs[job.Key].FireAt)
}

func TestScheduler_RunDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	due := domain.ScheduledJob{
		Key:           domain.ClosingJobKey("r-1"),
		Kind:          domain.JobKindClosing,
		ReservationID: "r-1",
		FireAt:        now.Add(-time.Minute),
		Status:        domain.JobStatusPending,
	}
	notDue := domain.ScheduledJob{
		Key:           domain.ClosingJobKey("r-2"),
		Kind:          domain.JobKindClosing,
		ReservationID: "r-2",
		FireAt:        now.Add(time.Hour),
		Status:        domain.JobStatusPending,
	}

	t.Run("fires due jobs and marks them done", func(t *testing.T) {
		repo := newFakeJobRepo(due, notDue)
		scheduler := NewScheduler(repo, clock.NewFixed(now), zap.NewNop(), time.Second)

		var fired []string
		scheduler.Register(domain.JobKindClosing, func(ctx context.Context, job domain.ScheduledJob) error {
			fired = append(fired, job.ReservationID)
			return nil
		})

		require.NoError(t, scheduler.RunDue(context.Background()))
		assert.Equal(t, []string{"r-1"}, fired)
		assert.Equal(t, domain.JobStatusDone, repo.jobs[due.Key].Status)
		assert.Equal(t, domain.JobStatusPending, repo.jobs[notDue.Key].Status)
	})

	t.Run("handler failure leaves the job pending", func(t *testing.T) {
		repo := newFakeJobRepo(due)
		scheduler := NewScheduler(repo, clock.NewFixed(now), zap.NewNop(), time.Second)
		scheduler.Register(domain.JobKindClosing, func(ctx context.Context, job domain.ScheduledJob) error {
			return errors.New("db down")
		})

		require.NoError(t, scheduler.RunDue(context.Background()))
		assert.Equal(t, domain.JobStatusPending, repo.jobs[due.Key].Status)
	})

	t.Run("unregistered kind stays pending", func(t *testing.T) {
		repo := newFakeJobRepo(due)
		scheduler := NewScheduler(repo, clock.NewFixed(now), zap.NewNop(), time.Second)

		require.NoError(t, scheduler.RunDue(context.Background()))
		assert.Equal(t, domain.JobStatusPending, repo.jobs[due.Key].Status)
	})
}

type fakeJobRepo struct {
	jobs map[string]domain.ScheduledJob
}

func newFakeJobRepo(jobs ...domain.ScheduledJob) *fakeJobRepo {
	f := &fakeJobRepo{jobs: make(map[string]domain.ScheduledJob)}
	for _, job := range jobs {
		f.jobs[job.Key] = job
	}
	return f
}

func (f *fakeJobRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeJobRepo) Upsert(_ context.Context, job domain.ScheduledJob) error {
	f.jobs[job.Key] = job
	return nil
}

func (f *fakeJobRepo) DueJobs(_ context.Context, now time.Time, limit int) ([]domain.ScheduledJob, error) {
	var due []domain.ScheduledJob
	for _, job := range f.jobs {
		if job.Status == domain.JobStatusPending && !job.FireAt.After(now) {
			due = append(due, job)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeJobRepo) MarkDone(_ context.Context, key string) error {
	job, ok := f.jobs[key]
	if !ok {
		return errors.New("job not found")
	}
	job.Status = domain.JobStatusDone
	f.jobs[key] = job
	return nil
}
