package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidIntent is the base class for ingestion-time validation failures.
// All validation sentinels wrap it so handlers can match the whole family
// with errors.Is.
var ErrInvalidIntent = errors.New("invalid transfer intent")

var (
	ErrMissingAccount = fmt.Errorf("%w: from and to accounts are required", ErrInvalidIntent)
	ErrSameAccount    = fmt.Errorf("%w: from and to accounts must differ", ErrInvalidIntent)
	ErrInvalidAmount  = fmt.Errorf("%w: amount must be positive", ErrInvalidIntent)
)

var (
	// ErrAccountNotFound is returned when the read model has no such account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientBalance marks a settlement the source account cannot
	// cover. Terminal for the message: redelivery cannot change the outcome.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadySettled signals the idempotency key was applied before.
	// The worker acknowledges without re-mutating balances.
	ErrAlreadySettled = errors.New("transfer already settled")

	// ErrQueueUnavailable wraps transport failures during enqueue. Surfaced
	// to the caller as a retryable server error.
	ErrQueueUnavailable = errors.New("queue transport unavailable")

	// ErrMalformedPayload marks a queued payload that cannot be decoded into
	// a transfer intent. Routed to the dead-letter queue, never retried.
	ErrMalformedPayload = errors.New("malformed transfer payload")
)
