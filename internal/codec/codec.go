package codec

import (
	"encoding/json"
	"fmt"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
)

type jsonCodec struct{}

var _ domain.TransferCodec = (*jsonCodec)(nil)

// NewJSONCodec creates the JSON wire codec for transfer intents
func NewJSONCodec() *jsonCodec {
	return &jsonCodec{}
}

// Encode serializes an intent for the queue. The intent is validated first
// so an invalid intent can never be enqueued.
func (c *jsonCodec) Encode(intent *domain.TransferIntent) ([]byte, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	if intent.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", domain.ErrInvalidIntent)
	}

	data, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer intent: %w", err)
	}

	return data, nil
}

// Decode reconstructs an intent from a queued payload. Any failure,
// including structural validation, is reported as a malformed payload so
// the worker routes the message to the dead-letter queue.
func (c *jsonCodec) Decode(payload []byte) (*domain.TransferIntent, error) {
	var intent domain.TransferIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if intent.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: missing idempotency key", domain.ErrMalformedPayload)
	}

	return &intent, nil
}
