package services

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade is the balance mutator: the single entry point for applying
// a balance change paired with its transaction record.
type LedgerSvcFacade interface {
	// ApplyLedgerEffect applies a signed delta to the account and writes the
	// transaction row in one atomic unit. A debit that would overdraw fails
	// with apperrors.ErrInsufficientFunds and is never retried; transient
	// storage conflicts are retried internally a bounded number of times.
	ApplyLedgerEffect(ctx context.Context, ownerID string, accountID string, delta decimal.Decimal, draft domain.TransactionDraft) (*domain.Transaction, error)

	// GetTransactionByID retrieves a single owner-scoped ledger entry.
	GetTransactionByID(ctx context.Context, ownerID string, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a cursor-paginated page of an account's entries.
	ListTransactions(ctx context.Context, ownerID string, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}
