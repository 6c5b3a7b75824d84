package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccountsByOwner retrieves a paginated list of active accounts for an owner.
	ListAccountsByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive. Accounts are never hard-deleted.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountTransactionSupport defines operations used inside an atomic unit.
type AccountTransactionSupport interface {
	// FindAccountByIDForUpdate selects an account and locks its row for update.
	// Must be called within a transaction.
	FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// UpdateAccountBalanceInTx applies a signed delta to an account balance
	// within a given transaction. The row must already be locked.
	UpdateAccountBalanceInTx(ctx context.Context, tx pgx.Tx, accountID string, delta decimal.Decimal, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
