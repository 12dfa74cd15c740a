package usecase

import (
	"context"

	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
)

type accountUsecase struct {
	accountRepo domain.AccountRepository
}

// NewAccountUsecase creates the balance lookup use case
func NewAccountUsecase(accountRepo domain.AccountRepository) domain.AccountUsecase {
	return &accountUsecase{accountRepo: accountRepo}
}

// GetBalance retrieves the account for a balance lookup
func (uc *accountUsecase) GetBalance(ctx context.Context, accountID string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, accountID)
}
