package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-sear/p-sear-backend/internal/bus"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

type PaymentApplier interface {
	UpdateToPaid(ctx context.Context, payment domain.PaymentMessage) error
}

type RefundApplier interface {
	UpdateToRefunded(ctx context.Context, refund domain.RefundMessage) error
}

// PaymentValidated finalizes a payment the payment service validated.
// Duplicate deliveries are absorbed by the service (SameStatus); an
// amount mismatch is a real violation and goes through retry to the
// dead letter for inspection.
func PaymentValidated(svc PaymentApplier) bus.Handler {
	return func(ctx context.Context, msg bus.Message) error {
		var payment domain.PaymentMessage
		if err := json.Unmarshal(msg.Payload, &payment); err != nil {
			return fmt.Errorf("decode payment validated: %w", err)
		}
		return svc.UpdateToPaid(ctx, payment)
	}
}

// RefundCompleted settles a refund the payment service finished.
func RefundCompleted(svc RefundApplier) bus.Handler {
	return func(ctx context.Context, msg bus.Message) error {
		var refund domain.RefundMessage
		if err := json.Unmarshal(msg.Payload, &refund); err != nil {
			return fmt.Errorf("decode refund completed: %w", err)
		}
		return svc.UpdateToRefunded(ctx, refund)
	}
}
