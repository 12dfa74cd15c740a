package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransferSettledEvent is published after a transfer has been applied to
// the read model. Consumers are downstream systems (notifications,
// reporting); publishing is best-effort and never fails a settlement.
type TransferSettledEvent struct {
	IdempotencyKey string          `json:"idempotency_key"`
	FromAccount    string          `json:"from_account"`
	ToAccount      string          `json:"to_account"`
	Amount         decimal.Decimal `json:"amount"`
	SettledAt      time.Time       `json:"settled_at"`
}

// EventPublisher publishes settlement events to downstream consumers.
type EventPublisher interface {
	PublishSettled(ctx context.Context, event TransferSettledEvent) error
}
