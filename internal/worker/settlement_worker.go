package worker

import (
	"context"
	"errors"
	"time"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/metrics"
)

// SettlementWorker continuously leases transfer intents from the queue,
// applies them against the account read model and acknowledges, abandons or
// dead-letters each delivery. Callers manage lifecycle through the provided
// context: cancelling it stops leasing while the in-flight message still
// finishes its ack or abandon.
type SettlementWorker struct {
	queueRepo    domain.QueueRepository
	settlementUC domain.SettlementUsecase
	codec        domain.TransferCodec
	pollTimeout  time.Duration
	errorBackoff time.Duration
	settleBudget time.Duration
}

// SettlementWorkerConfig defines runtime options for the worker
type SettlementWorkerConfig struct {
	PollTimeout  time.Duration
	ErrorBackoff time.Duration
	SettleBudget time.Duration
}

// NewSettlementWorker builds a new settlement worker instance
func NewSettlementWorker(queueRepo domain.QueueRepository, settlementUC domain.SettlementUsecase, codec domain.TransferCodec, cfg SettlementWorkerConfig) *SettlementWorker {
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	errorBackoff := cfg.ErrorBackoff
	if errorBackoff <= 0 {
		errorBackoff = 5 * time.Second
	}
	settleBudget := cfg.SettleBudget
	if settleBudget <= 0 {
		settleBudget = 30 * time.Second
	}

	return &SettlementWorker{
		queueRepo:    queueRepo,
		settlementUC: settlementUC,
		codec:        codec,
		pollTimeout:  pollTimeout,
		errorBackoff: errorBackoff,
		settleBudget: settleBudget,
	}
}

// Start launches the worker loop. It blocks until context cancellation.
func (w *SettlementWorker) Start(ctx context.Context) {
	logger.Info("Settlement worker started")

	if _, err := w.queueRepo.RecoverOrphans(ctx); err != nil {
		logger.Error("Failed to recover orphaned messages", logger.ErrorField(err))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Settlement worker stopping", logger.ErrorField(ctx.Err()))
			return
		default:
		}

		if err := w.processNext(ctx); err != nil {
			// A loop-level fault must never kill the worker. Log, back
			// off and resume.
			logger.Error("Worker loop error, backing off",
				logger.Duration("backoff", w.errorBackoff),
				logger.ErrorField(err),
			)
			metrics.RecordSystemError("worker_loop", "settlement_worker")

			select {
			case <-ctx.Done():
				return
			case <-time.After(w.errorBackoff):
			}
		}
	}
}

func (w *SettlementWorker) processNext(ctx context.Context) error {
	delivery, err := w.queueRepo.LeaseNext(ctx, w.pollTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil // Shutting down, not a fault
		}
		return err
	}
	if delivery == nil {
		return nil // Idle poll, nothing to lease
	}

	w.handle(delivery)
	return nil
}

// handle runs one delivery to a terminal queue operation. It deliberately
// uses a detached context so a shutdown signal arriving mid-message cannot
// orphan a leased-but-unacknowledged delivery.
func (w *SettlementWorker) handle(delivery *domain.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), w.settleBudget)
	defer cancel()

	start := time.Now()

	intent, err := w.codec.Decode(delivery.Payload)
	if err != nil {
		logger.Error("Poison message, dead-lettering",
			logger.String("message_id", delivery.ID),
			logger.Int("attempts", delivery.Attempts),
			logger.ErrorField(err),
		)
		w.deadLetter(ctx, delivery)
		metrics.RecordSettlement("poison", time.Since(start).Seconds())
		return
	}

	err = w.settlementUC.Settle(ctx, intent)
	switch {
	case err == nil:
		if ackErr := w.queueRepo.Acknowledge(ctx, delivery); ackErr != nil {
			// The settlement is committed, so release the lease for
			// redelivery instead of leaving the message parked on the
			// processing list. The idempotency record suppresses
			// re-application.
			logger.Error("Failed to acknowledge settled message, abandoning for redelivery",
				logger.String("message_id", delivery.ID),
				logger.ErrorField(ackErr),
			)
			if abandonErr := w.queueRepo.Abandon(ctx, delivery); abandonErr != nil {
				logger.Error("Failed to abandon message",
					logger.String("message_id", delivery.ID),
					logger.ErrorField(abandonErr),
				)
			}
			metrics.RecordSettlement("ack_failed", time.Since(start).Seconds())
			return
		}

		logger.Info("Transfer settled",
			logger.String("message_id", delivery.ID),
			logger.String("idempotency_key", intent.IdempotencyKey),
			logger.Duration("duration", time.Since(start)),
		)
		metrics.RecordSettlement("settled", time.Since(start).Seconds())

	case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrAccountNotFound):
		// Terminal business rejection: redelivery cannot change the
		// outcome, so the message goes to the dead-letter queue where it
		// stays inspectable.
		logger.Warn("Transfer rejected, dead-lettering",
			logger.String("message_id", delivery.ID),
			logger.String("idempotency_key", intent.IdempotencyKey),
			logger.ErrorField(err),
		)
		w.deadLetter(ctx, delivery)
		metrics.RecordSettlement("rejected", time.Since(start).Seconds())

	default:
		// Transient infrastructure failure: release the lease so the
		// message is redelivered. Never acknowledge on a failure path.
		logger.Error("Settlement failed, abandoning for redelivery",
			logger.String("message_id", delivery.ID),
			logger.String("idempotency_key", intent.IdempotencyKey),
			logger.Int("attempts", delivery.Attempts),
			logger.ErrorField(err),
		)
		if abandonErr := w.queueRepo.Abandon(ctx, delivery); abandonErr != nil {
			logger.Error("Failed to abandon message",
				logger.String("message_id", delivery.ID),
				logger.ErrorField(abandonErr),
			)
		}
		metrics.RecordSettlement("abandoned", time.Since(start).Seconds())
	}
}

func (w *SettlementWorker) deadLetter(ctx context.Context, delivery *domain.Delivery) {
	if err := w.queueRepo.DeadLetter(ctx, delivery); err != nil {
		logger.Error("Failed to dead-letter message",
			logger.String("message_id", delivery.ID),
			logger.ErrorField(err),
		)
	}
}
