package events

import (
	"context"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
)

// NoopPublisher discards settlement events. Used when no brokers are
// configured.
type NoopPublisher struct{}

var _ domain.EventPublisher = (*NoopPublisher)(nil)

// PublishSettled discards the event
func (NoopPublisher) PublishSettled(ctx context.Context, event domain.TransferSettledEvent) error {
	return nil
}
