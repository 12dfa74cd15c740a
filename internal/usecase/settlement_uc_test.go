package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/repository/memory"
)

// capturePublisher records published settlement events
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.TransferSettledEvent
}

func (p *capturePublisher) PublishSettled(ctx context.Context, event domain.TransferSettledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func seededStore(t *testing.T) *memory.AccountStore {
	t.Helper()
	store := memory.NewAccountStore()
	store.Seed()
	return store
}

func intentFor(key, from, to, amount string) *domain.TransferIntent {
	return &domain.TransferIntent{
		FromAccount:    from,
		ToAccount:      to,
		Amount:         decimal.RequireFromString(amount),
		IdempotencyKey: key,
	}
}

func TestSettleMovesBalancesAndConservesTotal(t *testing.T) {
	store := seededStore(t)
	publisher := &capturePublisher{}
	uc := NewSettlementUsecase(store, publisher)

	before := store.TotalBalance()

	err := uc.Settle(context.Background(), intentFor("key-1", "acc-1001", "acc-1002", "100.00"))
	require.NoError(t, err)

	from, err := store.GetByID(context.Background(), "acc-1001")
	require.NoError(t, err)
	to, err := store.GetByID(context.Background(), "acc-1002")
	require.NoError(t, err)

	assert.True(t, from.Balance.Equal(decimal.RequireFromString("1400.75")), "from balance: %s", from.Balance)
	assert.True(t, to.Balance.Equal(decimal.RequireFromString("9950.00")), "to balance: %s", to.Balance)
	assert.True(t, before.Equal(store.TotalBalance()), "total balance must be conserved")
	assert.Equal(t, 1, publisher.count())
}

func TestSettleSuppressesDuplicateDelivery(t *testing.T) {
	store := seededStore(t)
	publisher := &capturePublisher{}
	uc := NewSettlementUsecase(store, publisher)

	intent := intentFor("key-dup", "acc-1001", "acc-1002", "100.00")

	require.NoError(t, uc.Settle(context.Background(), intent))
	// Redelivery of the same idempotency key is a success without
	// re-mutating balances or re-publishing the event.
	require.NoError(t, uc.Settle(context.Background(), intent))

	from, err := store.GetByID(context.Background(), "acc-1001")
	require.NoError(t, err)
	assert.True(t, from.Balance.Equal(decimal.RequireFromString("1400.75")), "balance applied twice: %s", from.Balance)
	assert.Equal(t, 1, publisher.count())
}

func TestSettleInsufficientBalance(t *testing.T) {
	store := seededStore(t)
	uc := NewSettlementUsecase(store, &capturePublisher{})

	err := uc.Settle(context.Background(), intentFor("key-broke", "acc-1001", "acc-1002", "999999.00"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Nothing moved
	from, getErr := store.GetByID(context.Background(), "acc-1001")
	require.NoError(t, getErr)
	assert.True(t, from.Balance.Equal(decimal.RequireFromString("1500.75")))
}

func TestSettleUnknownAccount(t *testing.T) {
	store := seededStore(t)
	uc := NewSettlementUsecase(store, &capturePublisher{})

	err := uc.Settle(context.Background(), intentFor("key-ghost", "acc-1001", "acc-9999", "10.00"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
