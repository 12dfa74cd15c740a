package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/observability"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/xresponse"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountUC domain.AccountUsecase
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountUC domain.AccountUsecase) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// BalanceResponse represents response for a balance lookup
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// GetBalance retrieves the balance for a specific account
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID := c.Param("id")

	account, err := h.accountUC.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			xresponse.AccountNotFound(c, "Account not found")
			return
		}

		logger.Error("Failed to get account balance",
			logger.String("trace_id", observability.GetTraceID(c)),
			logger.String("account_id", accountID),
			logger.ErrorField(err),
		)
		xresponse.InternalServerError(c, "Failed to retrieve balance")
		return
	}

	xresponse.Success(c, "Balance retrieved successfully", BalanceResponse{
		AccountID: account.ID,
		Balance:   account.Balance,
	})
}
