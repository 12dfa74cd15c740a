package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ domain.AccountRepository = (*accountRepository)(nil)

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, owner, balance, created_at, updated_at
		FROM accounts WHERE id = $1
	`

	var account domain.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		logger.Error("Failed to get account by ID",
			logger.String("account_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// SettleTransfer applies a transfer intent in a single database transaction:
// it records the idempotency key, locks both accounts in a stable order,
// checks funds and moves the amount. A crash between any two steps rolls the
// whole settlement back, so balances and the settlement ledger never diverge.
func (r *accountRepository) SettleTransfer(ctx context.Context, intent *domain.TransferIntent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback()

	// The settlements table is the processed-keys record. A conflicting
	// insert means this intent was applied by an earlier delivery.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO settlements (idempotency_key, from_account, to_account, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, intent.IdempotencyKey, intent.FromAccount, intent.ToAccount, intent.Amount)
	if err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check settlement record: %w", err)
	}
	if inserted == 0 {
		return domain.ErrAlreadySettled
	}

	// Lock both rows ordered by id so concurrent transfers touching the
	// same accounts cannot deadlock.
	rows, err := tx.QueryxContext(ctx, `
		SELECT id, owner, balance, created_at, updated_at
		FROM accounts WHERE id IN ($1, $2)
		ORDER BY id
		FOR UPDATE
	`, intent.FromAccount, intent.ToAccount)
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}

	accounts := make(map[string]*domain.Account, 2)
	for rows.Next() {
		var account domain.Account
		if err := rows.StructScan(&account); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.ID] = &account
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read accounts: %w", err)
	}

	from, ok := accounts[intent.FromAccount]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, intent.FromAccount)
	}
	if _, ok := accounts[intent.ToAccount]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, intent.ToAccount)
	}

	if !from.HasSufficientBalance(intent.Amount) {
		return domain.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, intent.FromAccount, intent.Amount)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, intent.ToAccount, intent.Amount)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	logger.Info("Transfer settled",
		logger.String("idempotency_key", intent.IdempotencyKey),
		logger.String("from_account", intent.FromAccount),
		logger.String("to_account", intent.ToAccount),
		logger.String("amount", intent.Amount.String()),
	)

	return nil
}
