package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
)

type settlementUsecase struct {
	accountRepo domain.AccountRepository
	publisher   domain.EventPublisher
}

// NewSettlementUsecase creates the settlement use case
func NewSettlementUsecase(accountRepo domain.AccountRepository, publisher domain.EventPublisher) domain.SettlementUsecase {
	return &settlementUsecase{
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// Settle applies the intent against the account read model. A duplicate
// idempotency key is treated as success so redelivered messages are
// acknowledged without re-mutating balances. Terminal rejections
// (insufficient balance, unknown account) and transient failures propagate
// to the caller for classification.
func (uc *settlementUsecase) Settle(ctx context.Context, intent *domain.TransferIntent) error {
	err := uc.accountRepo.SettleTransfer(ctx, intent)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadySettled) {
			logger.Info("Duplicate delivery suppressed",
				logger.String("idempotency_key", intent.IdempotencyKey),
			)
			return nil
		}
		return err
	}

	// Best effort: a lost event never fails a settlement that is already
	// committed.
	event := domain.TransferSettledEvent{
		IdempotencyKey: intent.IdempotencyKey,
		FromAccount:    intent.FromAccount,
		ToAccount:      intent.ToAccount,
		Amount:         intent.Amount,
		SettledAt:      time.Now().UTC(),
	}
	if err := uc.publisher.PublishSettled(ctx, event); err != nil {
		logger.Error("Failed to publish settlement event",
			logger.String("idempotency_key", intent.IdempotencyKey),
			logger.ErrorField(err),
		)
	}

	return nil
}
