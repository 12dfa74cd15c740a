package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
)

// Publisher publishes settlement events to a Kafka topic
type Publisher struct {
	writer *kafka.Writer
}

var _ domain.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a Kafka-backed settlement event publisher
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishSettled publishes a TransferSettled event keyed by idempotency key
func (p *Publisher) PublishSettled(ctx context.Context, event domain.TransferSettledEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.IdempotencyKey),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}

	logger.Debug("Settlement event published",
		logger.String("idempotency_key", event.IdempotencyKey),
	)

	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
