// Package consumer reacts to bus messages by arming timers or driving
// reservation status transitions. Handlers are wrapped with
// bus.WithRetry at wiring time; outcomes that are expected under
// redelivery or out-of-order arrival are absorbed here so they never
// feed the retry policy.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/p-sear/p-sear-backend/internal/bus"
	"github.com/p-sear/p-sear-backend/internal/clock"
	"github.com/p-sear/p-sear-backend/internal/domain"
	"go.uber.org/zap"
)

type JobArmer interface {
	Arm(ctx context.Context, job domain.ScheduledJob) error
}

// ReservationCreated arms the two deferred jobs for a new reservation:
// the refund-window job a fixed delay after creation and the closing
// job at check-out day combined with the room's check-in time-of-day.
// Arming is idempotent, so a redelivered created-event re-arms the
// same job keys instead of duplicating them.
func ReservationCreated(scheduler JobArmer, clk clock.Clock, refundWindow time.Duration, logger *zap.Logger) bus.Handler {
	return func(ctx context.Context, msg bus.Message) error {
		var reservation domain.ReservationMessage
		if err := json.Unmarshal(msg.Payload, &reservation); err != nil {
			return fmt.Errorf("decode reservation created: %w", err)
		}

		closingAt, err := closingTime(reservation)
		if err != nil {
			return err
		}

		if err := scheduler.Arm(ctx, domain.ScheduledJob{
			Key:           domain.ClosingJobKey(reservation.ID),
			Kind:          domain.JobKindClosing,
			ReservationID: reservation.ID,
			FireAt:        closingAt,
		}); err != nil {
			return err
		}
		if err := scheduler.Arm(ctx, domain.ScheduledJob{
			Key:           domain.RefundJobKey(reservation.ID),
			Kind:          domain.JobKindRefundWindow,
			ReservationID: reservation.ID,
			FireAt:        clk.Now().Add(refundWindow),
		}); err != nil {
			return err
		}

		logger.Info("armed reservation jobs",
			zap.String("reservation_id", reservation.ID),
			zap.Time("closing_at", closingAt))
		return nil
	}
}

func closingTime(reservation domain.ReservationMessage) (time.Time, error) {
	checkIn, err := time.Parse("15:04", reservation.CheckIn)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse check-in time %q: %w", reservation.CheckIn, err)
	}
	end := reservation.EndAt
	return time.Date(end.Year(), end.Month(), end.Day(),
		checkIn.Hour(), checkIn.Minute(), 0, 0, end.Location()), nil
}
