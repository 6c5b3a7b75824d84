package services

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/pesavault/pesavault/internal/dto"
)

// AccountSvcFacade defines the account operations exposed to handlers.
// Every lookup is owner-scoped: another owner's account is ErrNotFound.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, ownerID string, req dto.CreateAccountRequest) (*domain.Account, error)
	GetAccountByID(ctx context.Context, ownerID string, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, ownerID string, accountID string) error

	// Deposit and Withdraw are direct balance effects through the ledger.
	Deposit(ctx context.Context, ownerID string, accountID string, req dto.MoveMoneyRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, ownerID string, accountID string, req dto.MoveMoneyRequest) (*domain.Transaction, error)
}
