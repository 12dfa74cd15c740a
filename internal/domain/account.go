package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a balance-bearing entity in the read model.
type Account struct {
	ID        string          `json:"id" db:"id"`
	Owner     string          `json:"owner" db:"owner"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// HasSufficientBalance reports whether the account can cover amount.
func (a *Account) HasSufficientBalance(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// AccountRepository defines operations for account data access. Settlement
// is a single operation so the balance check, both mutations and the
// idempotency record are applied as one atomic unit.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	SettleTransfer(ctx context.Context, intent *TransferIntent) error
}

// AccountUsecase defines the balance lookup business logic.
type AccountUsecase interface {
	GetBalance(ctx context.Context, accountID string) (*Account, error)
}
