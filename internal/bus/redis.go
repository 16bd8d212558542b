package bus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RedisBus is a Publisher and consumer runner backed by Redis Streams.
// One stream per message kind; consumer groups give at-least-once
// delivery with explicit acks, and a stream is totally ordered so all
// messages sharing it keep their publish order.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger

	block          time.Duration
	reclaimMinIdle time.Duration
}

func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client:         client,
		logger:         logger,
		block:          defaultReadBlock,
		reclaimMinIdle: defaultReclaimMinIdle,
	}
}

const defaultReadBlock = 5 * time.Second
const defaultReclaimMinIdle = time.Minute
const readCount = 16

func (b *RedisBus) Publish(ctx context.Context, msg Message) error {
	values := map[string]interface{}{
		"id":      msg.ID,
		"key":     msg.Key,
		"payload": msg.Payload,
		"attempt": msg.Attempt,
	}
	if !msg.NotBefore.IsZero() {
		values["not_before"] = msg.NotBefore.UnixMilli()
	}

	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: msg.Kind,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Kind, err)
	}
	return nil
}

// Consume reads one kind on behalf of a consumer group until ctx is
// cancelled. Messages carrying a future NotBefore are held until it
// passes, which is how retry channels apply their backoff delay. Each
// pass first reclaims group entries whose delivery was never acked
// (crashed consumer, failed ack), so an unacked message is redelivered
// instead of stranded in the pending-entries list.
func (b *RedisBus) Consume(ctx context.Context, kind, group, consumer string, handler Handler) error {
	if err := b.ensureGroup(ctx, kind, group); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.reclaim(ctx, kind, group, consumer, handler); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("bus reclaim failed", zap.String("kind", kind), zap.Error(err))
		}

		entries, err := b.read(ctx, kind, group, consumer)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("bus read failed", zap.String("kind", kind), zap.Error(err))
			continue
		}

		for _, entry := range entries {
			if err := b.deliver(ctx, kind, group, entry, handler); err != nil {
				return err
			}
		}
	}
}

// deliver runs the handler for one stream entry and acks it on
// success. A handler error leaves the entry unacked in the group's
// pending list, where reclaim picks it up once it has sat idle.
func (b *RedisBus) deliver(ctx context.Context, kind, group string, entry redis.XMessage, handler Handler) error {
	msg := messageFromEntry(kind, entry)

	if wait := time.Until(msg.NotBefore); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	if err := handler(ctx, msg); err != nil {
		b.logger.Error("handler failed, leaving message pending",
			zap.String("kind", kind),
			zap.String("key", msg.Key),
			zap.Error(err))
		return nil
	}
	if err := b.client.XAck(ctx, kind, group, entry.ID).Err(); err != nil {
		b.logger.Error("ack failed", zap.String("kind", kind), zap.String("id", entry.ID), zap.Error(err))
	}
	return nil
}

// reclaim takes over group entries idle past the threshold, regardless
// of which consumer first read them, and runs them through the
// handler.
func (b *RedisBus) reclaim(ctx context.Context, kind, group, consumer string, handler Handler) error {
	start := "0-0"
	for {
		entries, next, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   kind,
			Group:    group,
			Consumer: consumer,
			MinIdle:  b.reclaimMinIdle,
			Start:    start,
			Count:    readCount,
		}).Result()
		if err != nil {
			return fmt.Errorf("reclaim %s: %w", kind, err)
		}

		for _, entry := range entries {
			if err := b.deliver(ctx, kind, group, entry, handler); err != nil {
				return err
			}
		}

		if next == "0-0" || len(entries) == 0 {
			return nil
		}
		start = next
	}
}

// read wraps XReadGroup with bounded backoff against transient Redis
// errors so a broker blip does not spin the consume loop.
func (b *RedisBus) read(ctx context.Context, kind, group, consumer string) ([]redis.XMessage, error) {
	var entries []redis.XMessage

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{kind, ">"},
			Count:    readCount,
			Block:    b.block,
		}).Result()
		if err == redis.Nil {
			entries = nil
			return nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return retry.RetryableError(err)
		}

		entries = nil
		for _, stream := range streams {
			entries = append(entries, stream.Messages...)
		}
		return nil
	})
	return entries, err
}

func (b *RedisBus) ensureGroup(ctx context.Context, kind, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, kind, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, kind, err)
	}
	return nil
}

func messageFromEntry(kind string, entry redis.XMessage) Message {
	msg := Message{
		ID:   entry.ID,
		Kind: kind,
	}
	if id, ok := entry.Values["id"].(string); ok && id != "" {
		msg.ID = id
	}
	if key, ok := entry.Values["key"].(string); ok {
		msg.Key = key
	}
	if payload, ok := entry.Values["payload"].(string); ok {
		msg.Payload = []byte(payload)
	}
	if attempt, ok := entry.Values["attempt"].(string); ok {
		msg.Attempt, _ = strconv.Atoi(attempt)
	}
	if notBefore, ok := entry.Values["not_before"].(string); ok {
		if millis, err := strconv.ParseInt(notBefore, 10, 64); err == nil {
			msg.NotBefore = time.UnixMilli(millis)
		}
	}
	return msg
}
