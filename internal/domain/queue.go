package domain

import (
	"context"
	"time"
)

// Delivery is a leased queue message. Handle is transport-owned and opaque
// to consumers; Attempts counts deliveries of this message including the
// current one.
type Delivery struct {
	ID       string
	Payload  []byte
	Attempts int
	Handle   string
}

// QueueRepository defines the contract for the durable transfer queue.
// Semantics are at-least-once: a leased message that is neither acknowledged
// nor dead-lettered becomes eligible for redelivery, up to the transport's
// bounded attempt limit.
type QueueRepository interface {
	// Enqueue durably persists payload. Once it returns nil the message
	// must not be silently lost.
	Enqueue(ctx context.Context, payload []byte) error

	// LeaseNext blocks up to wait for an available message. Returns
	// (nil, nil) when the wait elapses with nothing to lease.
	LeaseNext(ctx context.Context, wait time.Duration) (*Delivery, error)

	// Acknowledge permanently removes the message. Safe to call twice on
	// an already-acknowledged delivery.
	Acknowledge(ctx context.Context, d *Delivery) error

	// Abandon releases the lease so the message is redelivered, or moves
	// it to the dead-letter queue once the attempt limit is reached.
	Abandon(ctx context.Context, d *Delivery) error

	// DeadLetter moves the message to the dead-letter queue immediately,
	// bypassing further redelivery. Used for poison payloads and terminal
	// business rejections.
	DeadLetter(ctx context.Context, d *Delivery) error

	// RecoverOrphans returns in-flight messages abandoned by a crashed
	// consumer to the ready queue. Called once at worker startup.
	RecoverOrphans(ctx context.Context) (int, error)

	// QueueLength reports the number of messages waiting for delivery.
	QueueLength(ctx context.Context) (int64, error)
}
