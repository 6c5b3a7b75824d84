package repositories

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerWriter applies balance effects as atomic units.
type LedgerWriter interface {
	// ApplyLedgerEffect locks the target account, verifies it is active and
	// owned by txn.OwnerID, rejects a debit that would overdraw, then writes
	// the new balance and inserts the transaction row (status COMPLETED) in
	// one atomic unit. Returns the inserted transaction with its running
	// balance. Fails with apperrors.ErrInsufficientFunds,
	// apperrors.ErrAccountInactive, apperrors.ErrNotFound or
	// apperrors.ErrConflict (transient, retryable).
	ApplyLedgerEffect(ctx context.Context, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error)
}

// LedgerReader defines read operations for ledger entries.
type LedgerReader interface {
	// FindTransactionByID retrieves a single ledger entry.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccountID retrieves a cursor-paginated list of
	// transactions for an account, newest first. Returns the page and a token
	// for the next page, if any.
	ListTransactionsByAccountID(ctx context.Context, ownerID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// LedgerRepositoryFacade combines ledger read and write operations.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
