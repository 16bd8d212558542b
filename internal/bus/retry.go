package bus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds how often a failing delivery is re-attempted
// before it is parked for manual inspection.
type RetryPolicy struct {
	// MaxAttempts is the total delivery budget including the first
	// attempt.
	MaxAttempts int
	// Backoff is the base delay between redeliveries; the delay grows
	// linearly with the attempt number.
	Backoff time.Duration
	// AttemptTimeout bounds one handler invocation. Exceeding it is a
	// transient failure feeding the retry policy.
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		Backoff:        2 * time.Second,
		AttemptTimeout: 10 * time.Second,
	}
}

// WithRetry wraps a handler with the bounded retry topology: a failed
// attempt re-publishes the message on the group's retry channel with
// an incremented attempt counter and a backoff deadline; once the
// budget is exhausted the message is parked on the dead-letter
// channel. The wrapped handler always acknowledges the original
// delivery, so redelivery happens only through the retry channel.
func WithRetry(pub Publisher, kind, group string, policy RetryPolicy, logger *zap.Logger, handler Handler) Handler {
	return func(ctx context.Context, msg Message) error {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
		err := handler(attemptCtx, msg)
		cancel()
		if err == nil {
			return nil
		}

		attempt := msg.Attempt + 1
		if attempt >= policy.MaxAttempts {
			logger.Error("retry budget exhausted, dead-lettering",
				zap.String("kind", kind),
				zap.String("key", msg.Key),
				zap.Int("attempts", attempt),
				zap.Error(err))
			parked := msg
			parked.Kind = DeadLetterKind(kind, group)
			parked.Attempt = attempt
			parked.NotBefore = time.Time{}
			return pub.Publish(ctx, parked)
		}

		logger.Warn("handler failed, routing to retry channel",
			zap.String("kind", kind),
			zap.String("key", msg.Key),
			zap.Int("attempt", attempt),
			zap.Error(err))
		redelivery := msg
		redelivery.Kind = RetryKind(kind, group)
		redelivery.Attempt = attempt
		redelivery.NotBefore = time.Now().Add(time.Duration(attempt) * policy.Backoff)
		return pub.Publish(ctx, redelivery)
	}
}
