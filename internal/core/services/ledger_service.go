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
	"github.com/shopspring/decimal"
)

// ledgerService is the balance mutator: every balance change in the system
// funnels through ApplyLedgerEffect so the overdraft rule and the paired
// transaction record can never be bypassed.
type ledgerService struct {
	BaseService
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	accountRepo portsrepo.AccountReader
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountRepo portsrepo.AccountReader) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// ApplyLedgerEffect applies a signed delta to an account balance and writes
// the matching transaction row in one atomic unit.
func (s *ledgerService) ApplyLedgerEffect(ctx context.Context, ownerID string, accountID string, delta decimal.Decimal, draft domain.TransactionDraft) (*domain.Transaction, error) {
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: ledger effect delta must be non-zero", apperrors.ErrValidation)
	}
	if draft.Type == "" {
		return nil, fmt.Errorf("%w: transaction type is required", apperrors.ErrValidation)
	}

	// Cheap pre-checks outside the lock; the repository re-verifies ownership
	// and activity under the row lock.
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}

	now := time.Now()
	txn := domain.Transaction{
		TransactionID:     uuid.NewString(),
		OwnerID:           ownerID,
		AccountID:         accountID,
		Type:              draft.Type,
		Amount:            delta.Abs(),
		CurrencyCode:      account.CurrencyCode,
		Status:            domain.StatusCompleted,
		Description:       draft.Description,
		ExternalReference: draft.ExternalReference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	var inserted *domain.Transaction
	err = s.WithConflictRetry(ctx, func() error {
		var applyErr error
		inserted, applyErr = s.ledgerRepo.ApplyLedgerEffect(ctx, txn, delta)
		return applyErr
	})
	if err != nil {
		s.LogError(ctx, err, "failed to apply ledger effect",
			slog.String("account_id", accountID),
			slog.String("delta", delta.String()),
			slog.String("type", string(draft.Type)))
		return nil, err
	}

	s.LogInfo(ctx, "ledger effect applied",
		slog.String("transaction_id", inserted.TransactionID),
		slog.String("account_id", accountID),
		slog.String("type", string(draft.Type)),
		slog.String("running_balance", inserted.RunningBalance.String()))
	return inserted, nil
}

// GetTransactionByID retrieves a single owner-scoped ledger entry.
func (s *ledgerService) GetTransactionByID(ctx context.Context, ownerID string, transactionID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

// ListTransactions retrieves a cursor-paginated page of an account's entries.
func (s *ledgerService) ListTransactions(ctx context.Context, ownerID string, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if account.OwnerID != ownerID {
		return nil, nil, apperrors.ErrNotFound
	}
	return s.ledgerRepo.ListTransactionsByAccountID(ctx, ownerID, accountID, limit, nextToken)
}
