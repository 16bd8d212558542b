package consumer

import (
	"context"
	"errors"

	"github.com/p-sear/p-sear-backend/internal/domain"
	"github.com/p-sear/p-sear-backend/internal/worker"
	"go.uber.org/zap"
)

type ReservationCloser interface {
	Close(ctx context.Context, reservationID string) error
}

// ClosingJob fires at check-out and moves the reservation to PAST. A
// reservation that already reached a terminal status, or that no
// longer exists, resolves as a benign no-op.
func ClosingJob(svc ReservationCloser, logger *zap.Logger) worker.JobHandler {
	return func(ctx context.Context, job domain.ScheduledJob) error {
		err := svc.Close(ctx, job.ReservationID)
		switch {
		case err == nil:
			logger.Info("reservation closed", zap.String("reservation_id", job.ReservationID))
			return nil
		case errors.Is(err, domain.ErrSameStatus),
			errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrReservationNotFound):
			logger.Debug("closing job absorbed",
				zap.String("reservation_id", job.ReservationID),
				zap.Error(err))
			return nil
		default:
			return err
		}
	}
}

// RefundWindowJob fires when the post-creation refund window closes.
// No transition is required at that point; the handler is the seam for
// a follow-up action such as expiring a reservation that never saw a
// payment attempt.
func RefundWindowJob(logger *zap.Logger) worker.JobHandler {
	return func(ctx context.Context, job domain.ScheduledJob) error {
		logger.Debug("refund window closed", zap.String("reservation_id", job.ReservationID))
		return nil
	}
}
