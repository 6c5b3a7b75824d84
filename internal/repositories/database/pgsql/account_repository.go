package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, owner_id, name, kind, currency_code, balance, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.AccountID,
		&acc.OwnerID,
		&acc.Name,
		&acc.Kind,
		&acc.CurrencyCode,
		&acc.Balance,
		&acc.IsActive,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.OwnerID,
		account.Name,
		account.Kind,
		account.CurrencyCode,
		account.Balance,
		account.IsActive,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, nil
}

// ListAccountsByOwner retrieves a paginated list of active accounts for an owner.
func (r *PgxAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND is_active = TRUE
		ORDER BY name
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row for owner %s: %w", ownerID, err)
		}
		accounts = append(accounts, *acc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account rows for owner %s: %w", ownerID, rows.Err())
	}

	return accounts, nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate account %s: %w", accountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Either the account does not exist or it was already inactive.
		_, findErr := r.FindAccountByID(ctx, accountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after deactivation attempt for %s: %w", accountID, findErr)
		}
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrValidation, accountID)
	}

	return nil
}

// FindAccountByIDForUpdate retrieves an account and locks its row for update.
// Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE;`

	acc, err := scanAccount(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: could not lock account %s", apperrors.ErrConflict, accountID)
		}
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	return acc, nil
}

// UpdateAccountBalanceInTx applies a signed delta to an account balance within
// a transaction. The row must already be locked by FindAccountByIDForUpdate.
func (r *PgxAccountRepository) UpdateAccountBalanceInTx(ctx context.Context, tx pgx.Tx, accountID string, delta decimal.Decimal, userID string, now time.Time) error {
	if delta.IsZero() {
		return nil
	}

	query := `
		UPDATE accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, accountID, delta, now, userID)
	if err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: balance update for account %s", apperrors.ErrConflict, accountID)
		}
		return fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Cannot happen after a successful lock; guard anyway.
		return fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountID)
	}
	return nil
}
