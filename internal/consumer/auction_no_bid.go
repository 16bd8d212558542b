package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/p-sear/p-sear-backend/internal/app"
	"github.com/p-sear/p-sear-backend/internal/bus"
	"github.com/p-sear/p-sear-backend/internal/domain"
	"go.uber.org/zap"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, update app.StatusUpdate) error
}

// AuctionNoBid marks a reservation whose auction closed without a
// winning bid. A stale signal can arrive after the reservation already
// progressed, so ErrInvalidTransition is terminal success here, as are
// ErrSameStatus and a missing reservation.
func AuctionNoBid(svc StatusUpdater, logger *zap.Logger) bus.Handler {
	return func(ctx context.Context, msg bus.Message) error {
		var auction domain.AuctionMessage
		if err := json.Unmarshal(msg.Payload, &auction); err != nil {
			return fmt.Errorf("decode auction no-bid: %w", err)
		}

		err := svc.UpdateStatus(ctx, app.StatusUpdate{
			ID:     auction.ReservationID,
			Target: domain.StatusAuctionFailure,
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrSameStatus),
			errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrReservationNotFound):
			logger.Debug("auction no-bid absorbed",
				zap.String("reservation_id", auction.ReservationID),
				zap.Error(err))
			return nil
		default:
			return err
		}
	}
}
