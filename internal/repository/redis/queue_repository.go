package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/metrics"
)

// envelope wraps a payload with the identity the transport needs to track
// delivery attempts across redeliveries.
type envelope struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type queueRepository struct {
	client      *redis.Client
	name        string
	maxAttempts int
}

var _ domain.QueueRepository = (*queueRepository)(nil)

// NewQueueRepository creates a Redis-backed transfer queue. Messages wait in
// the ready list, move to the processing list while leased (BRPOPLPUSH, so
// a leased message is never lost by a consumer crash) and end up in the
// dead-letter list after maxAttempts failed deliveries.
func NewQueueRepository(client *redis.Client, name string, maxAttempts int) *queueRepository {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &queueRepository{
		client:      client,
		name:        name,
		maxAttempts: maxAttempts,
	}
}

func (r *queueRepository) readyKey() string      { return fmt.Sprintf("queue:%s:ready", r.name) }
func (r *queueRepository) processingKey() string { return fmt.Sprintf("queue:%s:processing", r.name) }
func (r *queueRepository) deadKey() string       { return fmt.Sprintf("queue:%s:dead", r.name) }
func (r *queueRepository) attemptsKey() string   { return fmt.Sprintf("queue:%s:attempts", r.name) }

// Enqueue durably persists the payload on the ready list
func (r *queueRepository) Enqueue(ctx context.Context, payload []byte) error {
	entry, err := json.Marshal(envelope{
		ID:      uuid.New().String(),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal queue envelope: %w", err)
	}

	if err := r.client.LPush(ctx, r.readyKey(), entry).Err(); err != nil {
		logger.Error("Failed to enqueue message",
			logger.String("queue", r.name),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to enqueue message: %w", err)
	}

	r.updateDepthGauge(ctx)
	return nil
}

// LeaseNext blocks up to wait for a message and moves it to the processing
// list in the same Redis operation. Returns (nil, nil) on timeout.
func (r *queueRepository) LeaseNext(ctx context.Context, wait time.Duration) (*domain.Delivery, error) {
	entry, err := r.client.BRPopLPush(ctx, r.readyKey(), r.processingKey(), wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Nothing to lease within the wait window
		}
		return nil, fmt.Errorf("failed to lease message: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(entry), &env); err != nil {
		// The envelope itself is corrupt. Route it to the dead-letter
		// list so the consumer loop keeps going.
		logger.Error("Corrupt queue envelope, dead-lettering",
			logger.String("queue", r.name),
			logger.ErrorField(err),
		)
		if remErr := r.client.LRem(ctx, r.processingKey(), 1, entry).Err(); remErr != nil {
			logger.Error("Failed to release lease on corrupt envelope",
				logger.String("queue", r.name),
				logger.ErrorField(remErr),
			)
		}
		r.moveToDead(ctx, entry)
		metrics.RecordDeadLetter(r.name, "corrupt_envelope")
		return nil, nil
	}

	attempts, err := r.client.HIncrBy(ctx, r.attemptsKey(), env.ID, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to track delivery attempt: %w", err)
	}

	return &domain.Delivery{
		ID:       env.ID,
		Payload:  env.Payload,
		Attempts: int(attempts),
		Handle:   entry,
	}, nil
}

// Acknowledge permanently removes the message. Acknowledging an
// already-removed delivery is a no-op.
func (r *queueRepository) Acknowledge(ctx context.Context, d *domain.Delivery) error {
	if err := r.client.LRem(ctx, r.processingKey(), 1, d.Handle).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge message: %w", err)
	}
	if err := r.client.HDel(ctx, r.attemptsKey(), d.ID).Err(); err != nil {
		return fmt.Errorf("failed to clear delivery attempts: %w", err)
	}

	metrics.RecordDelivery(r.name, "acknowledged")
	return nil
}

// Abandon releases the lease. The message goes to the end of the ready list
// for redelivery, or to the dead-letter list once attempts are exhausted.
func (r *queueRepository) Abandon(ctx context.Context, d *domain.Delivery) error {
	if err := r.client.LRem(ctx, r.processingKey(), 1, d.Handle).Err(); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}

	if d.Attempts >= r.maxAttempts {
		r.moveToDead(ctx, d.Handle)
		if err := r.client.HDel(ctx, r.attemptsKey(), d.ID).Err(); err != nil {
			return fmt.Errorf("failed to clear delivery attempts: %w", err)
		}

		logger.Warn("Message exhausted delivery attempts, dead-lettering",
			logger.String("queue", r.name),
			logger.String("message_id", d.ID),
			logger.Int("attempts", d.Attempts),
		)
		metrics.RecordDeadLetter(r.name, "attempts_exhausted")
		return nil
	}

	if err := r.client.LPush(ctx, r.readyKey(), d.Handle).Err(); err != nil {
		return fmt.Errorf("failed to requeue message: %w", err)
	}

	metrics.RecordDelivery(r.name, "abandoned")
	return nil
}

// DeadLetter moves the message to the dead-letter list immediately
func (r *queueRepository) DeadLetter(ctx context.Context, d *domain.Delivery) error {
	if err := r.client.LRem(ctx, r.processingKey(), 1, d.Handle).Err(); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	r.moveToDead(ctx, d.Handle)
	if err := r.client.HDel(ctx, r.attemptsKey(), d.ID).Err(); err != nil {
		return fmt.Errorf("failed to clear delivery attempts: %w", err)
	}

	metrics.RecordDeadLetter(r.name, "rejected")
	return nil
}

// RecoverOrphans drains the processing list back to the ready list. Called
// once at worker startup to reclaim messages a crashed consumer left leased.
func (r *queueRepository) RecoverOrphans(ctx context.Context) (int, error) {
	recovered := 0
	for {
		_, err := r.client.RPopLPush(ctx, r.processingKey(), r.readyKey()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return recovered, fmt.Errorf("failed to recover orphaned messages: %w", err)
		}
		recovered++
	}

	if recovered > 0 {
		logger.Info("Recovered orphaned in-flight messages",
			logger.String("queue", r.name),
			logger.Int("count", recovered),
		)
	}

	return recovered, nil
}

// QueueLength reports the number of messages waiting for delivery
func (r *queueRepository) QueueLength(ctx context.Context) (int64, error) {
	length, err := r.client.LLen(ctx, r.readyKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}

func (r *queueRepository) moveToDead(ctx context.Context, entry string) {
	if err := r.client.LPush(ctx, r.deadKey(), entry).Err(); err != nil {
		// Best effort: the entry stays visible in Redis either way, but
		// losing the dead-letter copy is worth a loud log line.
		logger.Error("Failed to move message to dead-letter list",
			logger.String("queue", r.name),
			logger.ErrorField(err),
		)
	}
}

func (r *queueRepository) updateDepthGauge(ctx context.Context) {
	if length, err := r.client.LLen(ctx, r.readyKey()).Result(); err == nil {
		metrics.SetQueueDepth(r.name, float64(length))
	}
}
