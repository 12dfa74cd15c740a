package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
)

// AccountStore is an in-memory implementation of domain.AccountRepository,
// used by tests and local development. Settlement runs under a single lock,
// so the balance check, both mutations and the idempotency record are one
// atomic unit, matching the Postgres implementation's contract.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	settled  map[string]struct{}
}

var _ domain.AccountRepository = (*AccountStore)(nil)

// NewAccountStore creates an empty in-memory account store
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
		settled:  make(map[string]struct{}),
	}
}

// Seed loads the development fixture accounts
func (s *AccountStore) Seed() {
	s.Put(&domain.Account{ID: "acc-1001", Owner: "Chandler Bing", Balance: decimal.RequireFromString("1500.75")})
	s.Put(&domain.Account{ID: "acc-1002", Owner: "Monica Geller", Balance: decimal.RequireFromString("9850.00")})
}

// Put inserts or replaces an account
func (s *AccountStore) Put(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	copied := *account
	s.accounts[account.ID] = &copied
}

// GetByID retrieves an account by ID
func (s *AccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	copied := *account
	return &copied, nil
}

// SettleTransfer applies the transfer atomically under the store lock
func (s *AccountStore) SettleTransfer(ctx context.Context, intent *domain.TransferIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.settled[intent.IdempotencyKey]; done {
		return domain.ErrAlreadySettled
	}

	from, ok := s.accounts[intent.FromAccount]
	if !ok {
		return domain.ErrAccountNotFound
	}
	to, ok := s.accounts[intent.ToAccount]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if !from.HasSufficientBalance(intent.Amount) {
		return domain.ErrInsufficientBalance
	}

	from.Balance = from.Balance.Sub(intent.Amount)
	to.Balance = to.Balance.Add(intent.Amount)
	from.UpdatedAt = time.Now()
	to.UpdatedAt = from.UpdatedAt
	s.settled[intent.IdempotencyKey] = struct{}{}

	return nil
}

// TotalBalance sums all balances; used by conservation checks in tests
func (s *AccountStore) TotalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, account := range s.accounts {
		total = total.Add(account.Balance)
	}
	return total
}
