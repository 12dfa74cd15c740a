package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
)

type message struct {
	id       string
	payload  []byte
	attempts int
}

// Queue is an in-memory implementation of domain.QueueRepository with the
// same lease semantics as the Redis transport: ready, in-flight and
// dead-letter sets with a bounded attempt count.
type Queue struct {
	mu          sync.Mutex
	ready       []*message
	inFlight    map[string]*message
	dead        []*message
	maxAttempts int
}

var _ domain.QueueRepository = (*Queue)(nil)

// NewQueue creates an in-memory queue with the given attempt limit
func NewQueue(maxAttempts int) *Queue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Queue{
		inFlight:    make(map[string]*message),
		maxAttempts: maxAttempts,
	}
}

// Enqueue appends the payload to the ready queue
func (q *Queue) Enqueue(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	copied := make([]byte, len(payload))
	copy(copied, payload)
	q.ready = append(q.ready, &message{id: uuid.New().String(), payload: copied})
	return nil
}

// LeaseNext pops the oldest ready message, polling until wait elapses
func (q *Queue) LeaseNext(ctx context.Context, wait time.Duration) (*domain.Delivery, error) {
	deadline := time.Now().Add(wait)

	for {
		q.mu.Lock()
		if len(q.ready) > 0 {
			msg := q.ready[0]
			q.ready = q.ready[1:]
			msg.attempts++
			q.inFlight[msg.id] = msg
			q.mu.Unlock()

			return &domain.Delivery{
				ID:       msg.id,
				Payload:  msg.payload,
				Attempts: msg.attempts,
				Handle:   msg.id,
			}, nil
		}
		q.mu.Unlock()

		if !time.Now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Acknowledge removes the message permanently; idempotent
func (q *Queue) Acknowledge(ctx context.Context, d *domain.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inFlight, d.ID)
	return nil
}

// Abandon requeues the message, or dead-letters it after the attempt limit
func (q *Queue) Abandon(ctx context.Context, d *domain.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok := q.inFlight[d.ID]
	if !ok {
		return nil
	}
	delete(q.inFlight, d.ID)

	if msg.attempts >= q.maxAttempts {
		q.dead = append(q.dead, msg)
		return nil
	}

	q.ready = append(q.ready, msg)
	return nil
}

// DeadLetter moves the message to the dead-letter set immediately
func (q *Queue) DeadLetter(ctx context.Context, d *domain.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok := q.inFlight[d.ID]
	if !ok {
		return nil
	}
	delete(q.inFlight, d.ID)
	q.dead = append(q.dead, msg)
	return nil
}

// RecoverOrphans returns all in-flight messages to the ready queue
func (q *Queue) RecoverOrphans(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	recovered := 0
	for id, msg := range q.inFlight {
		delete(q.inFlight, id)
		q.ready = append(q.ready, msg)
		recovered++
	}
	return recovered, nil
}

// QueueLength reports the number of ready messages
func (q *Queue) QueueLength(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return int64(len(q.ready)), nil
}

// DeadLetterLength reports the number of dead-lettered messages
func (q *Queue) DeadLetterLength() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.dead)
}
