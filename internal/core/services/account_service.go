package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
)

// accountService provides account lifecycle operations plus direct deposits
// and withdrawals, which are delegated to the balance mutator.
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerSvc   portssvc.LedgerSvcFacade
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, ledgerSvc portssvc.LedgerSvcFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		ledgerSvc:   ledgerSvc,
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount opens a new account with a zero balance.
func (s *accountService) CreateAccount(ctx context.Context, ownerID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	now := time.Now()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		OwnerID:      ownerID,
		Name:         req.Name,
		Kind:         req.Kind,
		CurrencyCode: req.CurrencyCode,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "failed to create account", slog.String("owner_id", ownerID))
		return nil, err
	}

	s.LogInfo(ctx, "account created",
		slog.String("account_id", account.AccountID),
		slog.String("kind", string(account.Kind)))
	return &account, nil
}

// GetAccountByID retrieves an owner-scoped account.
func (s *accountService) GetAccountByID(ctx context.Context, ownerID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return account, nil
}

// ListAccounts retrieves the owner's active accounts.
func (s *accountService) ListAccounts(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error) {
	return s.accountRepo.ListAccountsByOwner(ctx, ownerID, limit, offset)
}

// DeactivateAccount marks an account inactive. The balance is retained and
// the account stays readable; further balance effects are rejected.
func (s *accountService) DeactivateAccount(ctx context.Context, ownerID string, accountID string) error {
	if _, err := s.GetAccountByID(ctx, ownerID, accountID); err != nil {
		return err
	}
	if err := s.accountRepo.DeactivateAccount(ctx, accountID, ownerID, time.Now()); err != nil {
		s.LogError(ctx, err, "failed to deactivate account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "account deactivated", slog.String("account_id", accountID))
	return nil
}

// Deposit credits the account through the balance mutator.
func (s *accountService) Deposit(ctx context.Context, ownerID string, accountID string, req dto.MoveMoneyRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", apperrors.ErrValidation)
	}
	return s.ledgerSvc.ApplyLedgerEffect(ctx, ownerID, accountID, req.Amount, domain.TransactionDraft{
		Type:        domain.Deposit,
		Description: req.Description,
	})
}

// Withdraw debits the account through the balance mutator. A withdrawal that
// would overdraw fails with apperrors.ErrInsufficientFunds.
func (s *accountService) Withdraw(ctx context.Context, ownerID string, accountID string, req dto.MoveMoneyRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", apperrors.ErrValidation)
	}
	return s.ledgerSvc.ApplyLedgerEffect(ctx, ownerID, accountID, req.Amount.Neg(), domain.TransactionDraft{
		Type:        domain.Withdrawal,
		Description: req.Description,
	})
}
