// Package bus carries domain events between services over ordered,
// at-least-once channels. All messages about one reservation share one
// key so they stay ordered relative to each other.
package bus

import (
	"context"
	"time"
)

// Message is one delivery. Attempt counts prior failed deliveries of
// the same logical message; NotBefore delays redeliveries routed
// through a retry channel.
type Message struct {
	ID        string
	Kind      string
	Key       string
	Payload   []byte
	Attempt   int
	NotBefore time.Time
}

// Handler processes one message. A nil return acknowledges the
// message; an error routes it through the retry policy.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// RetryKind names the retry channel for a consumer group on a kind,
// mirroring a per-group retry topic.
func RetryKind(kind, group string) string {
	return kind + ".retry." + group
}

// DeadLetterKind names the parking channel for messages that exhausted
// their retry budget.
func DeadLetterKind(kind, group string) string {
	return kind + ".dlq." + group
}
