package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/codec"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/events"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/repository/memory"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/usecase"
)

func testConfig() SettlementWorkerConfig {
	return SettlementWorkerConfig{
		PollTimeout:  20 * time.Millisecond,
		ErrorBackoff: 10 * time.Millisecond,
		SettleBudget: time.Second,
	}
}

func startWorker(t *testing.T, w *SettlementWorker) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop")
		}
	})
	return cancel
}

func enqueueIntent(t *testing.T, queue *memory.Queue, intent *domain.TransferIntent) {
	t.Helper()
	payload, err := codec.NewJSONCodec().Encode(intent)
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(context.Background(), payload))
}

func balanceOf(t *testing.T, store *memory.AccountStore, id string) decimal.Decimal {
	t.Helper()
	account, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func TestWorkerSettlesQueuedTransfer(t *testing.T) {
	store := memory.NewAccountStore()
	store.Seed()
	queue := memory.NewQueue(5)
	uc := usecase.NewSettlementUsecase(store, events.NoopPublisher{})
	w := NewSettlementWorker(queue, uc, codec.NewJSONCodec(), testConfig())

	enqueueIntent(t, queue, &domain.TransferIntent{
		FromAccount:    "acc-1001",
		ToAccount:      "acc-1002",
		Amount:         decimal.RequireFromString("100.00"),
		IdempotencyKey: "worker-key-1",
	})

	startWorker(t, w)

	require.Eventually(t, func() bool {
		return balanceOf(t, store, "acc-1001").Equal(decimal.RequireFromString("1400.75"))
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, balanceOf(t, store, "acc-1002").Equal(decimal.RequireFromString("9950.00")))

	length, err := queue.QueueLength(context.Background())
	require.NoError(t, err)
	assert.Zero(t, length)
	assert.Zero(t, queue.DeadLetterLength())
}

func TestWorkerSuppressesDuplicateDeliveries(t *testing.T) {
	store := memory.NewAccountStore()
	store.Seed()
	queue := memory.NewQueue(5)
	uc := usecase.NewSettlementUsecase(store, events.NoopPublisher{})
	w := NewSettlementWorker(queue, uc, codec.NewJSONCodec(), testConfig())

	intent := &domain.TransferIntent{
		FromAccount:    "acc-1001",
		ToAccount:      "acc-1002",
		Amount:         decimal.RequireFromString("100.00"),
		IdempotencyKey: "worker-key-dup",
	}
	// Same idempotency key delivered twice, as under at-least-once delivery
	enqueueIntent(t, queue, intent)
	enqueueIntent(t, queue, intent)

	startWorker(t, w)

	require.Eventually(t, func() bool {
		length, err := queue.QueueLength(context.Background())
		return err == nil && length == 0 && balanceOf(t, store, "acc-1001").Equal(decimal.RequireFromString("1400.75"))
	}, 2*time.Second, 10*time.Millisecond)

	// Give the second delivery time to be processed, then confirm the
	// transfer was applied exactly once.
	time.Sleep(100 * time.Millisecond)
	assert.True(t, balanceOf(t, store, "acc-1001").Equal(decimal.RequireFromString("1400.75")))
	assert.True(t, balanceOf(t, store, "acc-1002").Equal(decimal.RequireFromString("9950.00")))
	assert.Zero(t, queue.DeadLetterLength())
}

func TestWorkerDeadLettersPoisonAndKeepsProcessing(t *testing.T) {
	store := memory.NewAccountStore()
	store.Seed()
	queue := memory.NewQueue(5)
	uc := usecase.NewSettlementUsecase(store, events.NoopPublisher{})
	w := NewSettlementWorker(queue, uc, codec.NewJSONCodec(), testConfig())

	require.NoError(t, queue.Enqueue(context.Background(), []byte("not a transfer")))
	enqueueIntent(t, queue, &domain.TransferIntent{
		FromAccount:    "acc-1001",
		ToAccount:      "acc-1002",
		Amount:         decimal.RequireFromString("50.00"),
		IdempotencyKey: "worker-key-after-poison",
	})

	startWorker(t, w)

	require.Eventually(t, func() bool {
		return queue.DeadLetterLength() == 1 &&
			balanceOf(t, store, "acc-1001").Equal(decimal.RequireFromString("1450.75"))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerDeadLettersInsufficientBalance(t *testing.T) {
	store := memory.NewAccountStore()
	store.Seed()
	queue := memory.NewQueue(5)
	uc := usecase.NewSettlementUsecase(store, events.NoopPublisher{})
	w := NewSettlementWorker(queue, uc, codec.NewJSONCodec(), testConfig())

	enqueueIntent(t, queue, &domain.TransferIntent{
		FromAccount:    "acc-1001",
		ToAccount:      "acc-1002",
		Amount:         decimal.RequireFromString("999999.00"),
		IdempotencyKey: "worker-key-broke",
	})

	startWorker(t, w)

	// Terminal rejection: dead-lettered, not retried
	require.Eventually(t, func() bool {
		return queue.DeadLetterLength() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, balanceOf(t, store, "acc-1001").Equal(decimal.RequireFromString("1500.75")))
}

// ackFailingQueue fails the first Acknowledge calls with a transient
// transport error and counts lease operations
type ackFailingQueue struct {
	*memory.Queue
	ackFailures atomic.Int32
	ackCalls    atomic.Int32
	abandons    atomic.Int32
}

func (q *ackFailingQueue) Acknowledge(ctx context.Context, d *domain.Delivery) error {
	q.ackCalls.Add(1)
	if q.ackFailures.Add(-1) >= 0 {
		return errors.New("connection reset")
	}
	return q.Queue.Acknowledge(ctx, d)
}

func (q *ackFailingQueue) Abandon(ctx context.Context, d *domain.Delivery) error {
	q.abandons.Add(1)
	return q.Queue.Abandon(ctx, d)
}

func TestWorkerAbandonsWhenAcknowledgeFails(t *testing.T) {
	store := memory.NewAccountStore()
	store.Seed()
	queue := &ackFailingQueue{Queue: memory.NewQueue(5)}
	queue.ackFailures.Store(1)
	uc := usecase.NewSettlementUsecase(store, events.NoopPublisher{})
	w := NewSettlementWorker(queue, uc, codec.NewJSONCodec(), testConfig())

	enqueueIntent(t, queue.Queue, &domain.TransferIntent{
		FromAccount:    "acc-1001",
		ToAccount:      "acc-1002",
		Amount:         decimal.RequireFromString("100.00"),
		IdempotencyKey: "worker-key-ack-fail",
	})

	startWorker(t, w)

	// The failed acknowledge releases the lease; the redelivery is
	// suppressed by the idempotency record and acknowledged cleanly.
	require.Eventually(t, func() bool {
		length, err := queue.QueueLength(context.Background())
		return err == nil && length == 0 && queue.ackCalls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.GreaterOrEqual(t, queue.abandons.Load(), int32(1), "lease must be released after a failed acknowledge")
	assert.True(t, balanceOf(t, store, "acc-1001").Equal(decimal.RequireFromString("1400.75")))
	assert.True(t, balanceOf(t, store, "acc-1002").Equal(decimal.RequireFromString("9950.00")))
	assert.Zero(t, queue.DeadLetterLength())
}

// flakySettlement fails every settlement with a transient error
type flakySettlement struct {
	calls atomic.Int32
}

func (f *flakySettlement) Settle(ctx context.Context, intent *domain.TransferIntent) error {
	f.calls.Add(1)
	return errors.New("read model unavailable")
}

func TestWorkerAbandonsTransientFailuresUntilDeadLetter(t *testing.T) {
	queue := memory.NewQueue(3)
	settle := &flakySettlement{}
	w := NewSettlementWorker(queue, settle, codec.NewJSONCodec(), testConfig())

	enqueueIntent(t, queue, &domain.TransferIntent{
		FromAccount:    "acc-1001",
		ToAccount:      "acc-1002",
		Amount:         decimal.RequireFromString("10.00"),
		IdempotencyKey: "worker-key-transient",
	})

	startWorker(t, w)

	// Redelivered up to the attempt limit, then dead-lettered
	require.Eventually(t, func() bool {
		return queue.DeadLetterLength() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(3), settle.calls.Load())
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	queue := memory.NewQueue(5)
	uc := usecase.NewSettlementUsecase(memory.NewAccountStore(), events.NoopPublisher{})
	w := NewSettlementWorker(queue, uc, codec.NewJSONCodec(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
