package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/metrics"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/observability"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/xresponse"
)

// TransactionHandler handles transfer submission HTTP requests
type TransactionHandler struct {
	ingestionUC domain.IngestionUsecase
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ingestionUC domain.IngestionUsecase) *TransactionHandler {
	return &TransactionHandler{ingestionUC: ingestionUC}
}

// SubmitTransactionRequest represents request for submitting a transfer
type SubmitTransactionRequest struct {
	FromAccount string          `json:"from_account" binding:"required"`
	ToAccount   string          `json:"to_account" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

// SubmitTransactionResponse echoes the accepted intent back to the caller.
// Accepted means durably queued; settlement happens asynchronously.
type SubmitTransactionResponse struct {
	IdempotencyKey string          `json:"idempotency_key"`
	FromAccount    string          `json:"from_account"`
	ToAccount      string          `json:"to_account"`
	Amount         decimal.Decimal `json:"amount"`
}

// SubmitTransaction validates and enqueues a transfer request
func (h *TransactionHandler) SubmitTransaction(c *gin.Context) {
	var req SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid request body",
			logger.String("trace_id", observability.GetTraceID(c)),
			logger.ErrorField(err),
		)
		metrics.RecordSubmission("rejected")
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	intent, err := h.ingestionUC.Submit(c.Request.Context(), req.FromAccount, req.ToAccount, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidIntent):
			metrics.RecordSubmission("rejected")
			xresponse.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrQueueUnavailable):
			metrics.RecordSubmission("unavailable")
			xresponse.TransportUnavailable(c, "Failed to enqueue transaction")
		default:
			logger.Error("Failed to submit transaction",
				logger.String("trace_id", observability.GetTraceID(c)),
				logger.ErrorField(err),
			)
			metrics.RecordSubmission("failed")
			xresponse.InternalServerError(c, "Failed to submit transaction")
		}
		return
	}

	metrics.RecordSubmission("accepted")

	xresponse.Accepted(c, "Transaction accepted for settlement", SubmitTransactionResponse{
		IdempotencyKey: intent.IdempotencyKey,
		FromAccount:    intent.FromAccount,
		ToAccount:      intent.ToAccount,
		Amount:         intent.Amount,
	})
}
