package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueLeaseAcknowledge(t *testing.T) {
	queue := NewQueue(3)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, []byte("payload-1")))

	delivery, err := queue.LeaseNext(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, []byte("payload-1"), delivery.Payload)
	assert.Equal(t, 1, delivery.Attempts)

	require.NoError(t, queue.Acknowledge(ctx, delivery))
	// Acknowledge is idempotent
	require.NoError(t, queue.Acknowledge(ctx, delivery))

	length, err := queue.QueueLength(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestQueueLeaseTimeout(t *testing.T) {
	queue := NewQueue(3)

	delivery, err := queue.LeaseNext(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, delivery, "timeout must not be an error")
}

func TestQueueAbandonRedeliversThenDeadLetters(t *testing.T) {
	queue := NewQueue(2)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, []byte("payload-1")))

	// First delivery, abandoned: goes back for redelivery
	delivery, err := queue.LeaseNext(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	require.NoError(t, queue.Abandon(ctx, delivery))
	assert.Zero(t, queue.DeadLetterLength())

	// Second delivery exhausts the attempt limit
	delivery, err = queue.LeaseNext(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, 2, delivery.Attempts)
	require.NoError(t, queue.Abandon(ctx, delivery))
	assert.Equal(t, 1, queue.DeadLetterLength())

	length, err := queue.QueueLength(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestQueueRecoverOrphans(t *testing.T) {
	queue := NewQueue(3)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, []byte("payload-1")))

	delivery, err := queue.LeaseNext(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, delivery)

	// Simulate a consumer crash: the lease is never resolved
	recovered, err := queue.RecoverOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	delivery, err = queue.LeaseNext(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, []byte("payload-1"), delivery.Payload)
}
