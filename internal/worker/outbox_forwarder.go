// Package worker holds the background loops: the outbox forwarder and
// the deferred job runner.
package worker

import (
	"context"
	"time"

	"github.com/p-sear/p-sear-backend/internal/bus"
	"github.com/p-sear/p-sear-backend/internal/domain"
	"go.uber.org/zap"
)

type OutboxSource interface {
	PendingEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
}

// OutboxForwarder pushes committed outbox events to the bus. Delivery
// is at-least-once: an event is marked sent only after a successful
// publish, and a crash in between republishes it on the next pass.
type OutboxForwarder struct {
	outbox    OutboxSource
	publisher bus.Publisher
	logger    *zap.Logger
	interval  time.Duration
}

const forwarderBatch = 100

func NewOutboxForwarder(outbox OutboxSource, publisher bus.Publisher, logger *zap.Logger, interval time.Duration) *OutboxForwarder {
	return &OutboxForwarder{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
	}
}

func (f *OutboxForwarder) Start(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Info("outbox forwarder started", zap.Duration("interval", f.interval))

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("outbox forwarder stopped")
			return
		case <-ticker.C:
			if err := f.Forward(ctx); err != nil {
				f.logger.Error("outbox pass failed", zap.Error(err))
			}
		}
	}
}

// Forward publishes one batch of pending events in commit order.
func (f *OutboxForwarder) Forward(ctx context.Context) error {
	events, err := f.outbox.PendingEvents(ctx, forwarderBatch)
	if err != nil {
		return err
	}

	for _, event := range events {
		err := f.publisher.Publish(ctx, bus.Message{
			ID:      event.ID,
			Kind:    event.Kind,
			Key:     event.Key,
			Payload: event.Payload,
		})
		if err != nil {
			// Stop the batch so later events for the same key cannot
			// overtake this one.
			f.logger.Error("publish failed",
				zap.String("event_id", event.ID),
				zap.String("kind", event.Kind),
				zap.Error(err))
			return nil
		}

		if err := f.outbox.MarkSent(ctx, event.ID); err != nil {
			f.logger.Error("mark sent failed", zap.String("event_id", event.ID), zap.Error(err))
			return nil
		}
	}
	return nil
}
