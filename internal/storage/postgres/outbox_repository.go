package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Append writes the event inside the transaction already open on ctx,
// so the event becomes durable together with the state mutation.
func (r *OutboxRepository) Append(ctx context.Context, event domain.OutboxEvent) error {
	const stmt = `
INSERT INTO outbox_events (id, kind, key, payload, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.Kind,
		event.Key,
		event.Payload,
		event.Status,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

// PendingEvents returns unsent events in append order. The position
// sequence makes the order total even when two events share a
// created_at timestamp.
func (r *OutboxRepository) PendingEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	const query = `
SELECT id, kind, key, payload, status, created_at, sent_at
FROM outbox_events
WHERE status = 'pending'
ORDER BY position
LIMIT $1`

	rows, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var status string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Key, &e.Payload, &status, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Status = domain.OutboxStatus(status)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id string) error {
	const stmt = `UPDATE outbox_events SET status = 'sent', sent_at = NOW() WHERE id = $1`

	_, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	return nil
}

func (r *OutboxRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OutboxRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
