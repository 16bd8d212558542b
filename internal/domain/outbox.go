package domain

import "time"

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
)

// OutboxEvent is a domain event written in the same transaction as the
// state mutation it describes. Key routes all events about one
// reservation to the same ordered channel.
type OutboxEvent struct {
	ID        string
	Kind      string
	Key       string
	Payload   []byte
	Status    OutboxStatus
	CreatedAt time.Time
	SentAt    *time.Time
}
