package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferIntent is the unit of work flowing through the settlement
// pipeline. It is created at ingestion, serialized onto the queue and
// recreated from the wire payload on every delivery attempt.
type TransferIntent struct {
	FromAccount    string          `json:"from_account"`
	ToAccount      string          `json:"to_account"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	EnqueuedAt     time.Time       `json:"enqueued_at"`
}

// Validate checks the structural constraints every intent must satisfy,
// both at ingestion and after decoding a queued payload.
func (t *TransferIntent) Validate() error {
	if strings.TrimSpace(t.FromAccount) == "" || strings.TrimSpace(t.ToAccount) == "" {
		return ErrMissingAccount
	}
	if t.FromAccount == t.ToAccount {
		return ErrSameAccount
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// TransferCodec serializes transfer intents to and from the queue wire
// format. Decode failures are classified as poison messages by the worker.
type TransferCodec interface {
	Encode(intent *TransferIntent) ([]byte, error)
	Decode(payload []byte) (*TransferIntent, error)
}

// IngestionUsecase defines the synchronous accept/reject contract for
// transfer submission. Acceptance means "durably queued", never "applied".
type IngestionUsecase interface {
	Submit(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal) (*TransferIntent, error)
}

// SettlementUsecase applies a transfer intent against the account read
// model. Implementations must be idempotent per idempotency key.
type SettlementUsecase interface {
	Settle(ctx context.Context, intent *TransferIntent) error
}
