package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
)

type ingestionUsecase struct {
	queueRepo domain.QueueRepository
	codec     domain.TransferCodec
}

// NewIngestionUsecase creates the transfer ingestion use case
func NewIngestionUsecase(queueRepo domain.QueueRepository, codec domain.TransferCodec) domain.IngestionUsecase {
	return &ingestionUsecase{
		queueRepo: queueRepo,
		codec:     codec,
	}
}

// Submit validates the transfer request, assigns an idempotency key and
// durably enqueues the intent. Exactly one publish attempt per call: a
// failed publish propagates to the caller instead of being retried here,
// since a fresh submission gets a fresh idempotency key.
func (uc *ingestionUsecase) Submit(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal) (*domain.TransferIntent, error) {
	intent := &domain.TransferIntent{
		FromAccount:    fromAccount,
		ToAccount:      toAccount,
		Amount:         amount,
		IdempotencyKey: uuid.New().String(),
		EnqueuedAt:     time.Now().UTC(),
	}

	if err := intent.Validate(); err != nil {
		return nil, err
	}

	payload, err := uc.codec.Encode(intent)
	if err != nil {
		return nil, err
	}

	if err := uc.queueRepo.Enqueue(ctx, payload); err != nil {
		logger.Error("Failed to enqueue transfer intent",
			logger.String("idempotency_key", intent.IdempotencyKey),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	logger.Info("Transfer intent accepted",
		logger.String("idempotency_key", intent.IdempotencyKey),
		logger.String("from_account", intent.FromAccount),
		logger.String("to_account", intent.ToAccount),
		logger.String("amount", intent.Amount.String()),
	)

	return intent, nil
}
