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
	"github.com/pesavault/pesavault/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxLedgerRepository creates a new repository for ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) *PgxLedgerRepository {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const transactionColumns = `transaction_id, owner_id, account_id, type, amount, currency_code, status, description, external_reference, running_balance, created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.OwnerID,
		&txn.AccountID,
		&txn.Type,
		&txn.Amount,
		&txn.CurrencyCode,
		&txn.Status,
		&txn.Description,
		&txn.ExternalReference,
		&txn.RunningBalance,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// insertTransactionInTx inserts a ledger entry within an open transaction.
func insertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		txn.OwnerID,
		txn.AccountID,
		txn.Type,
		txn.Amount,
		txn.CurrencyCode,
		txn.Status,
		txn.Description,
		txn.ExternalReference,
		txn.RunningBalance,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, txn.TransactionID)
		}
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: inserting transaction %s", apperrors.ErrConflict, txn.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// applyLedgerEffectInTx performs the core mutation sequence within an open
// transaction: lock the account row, verify ownership, activity and funds
// under the lock, apply the balance delta and insert the ledger entry.
// Returns the inserted transaction carrying the post-effect running balance.
func applyLedgerEffectInTx(ctx context.Context, tx pgx.Tx, accountRepo portsrepo.AccountTransactionSupport, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	account, err := accountRepo.FindAccountByIDForUpdate(ctx, tx, txn.AccountID)
	if err != nil {
		return nil, err
	}

	if account.OwnerID != txn.OwnerID {
		// Do not leak existence of other owners' accounts.
		return nil, apperrors.ErrNotFound
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, txn.AccountID)
	}
	if account.CurrencyCode != txn.CurrencyCode {
		return nil, fmt.Errorf("%w: transaction currency %s does not match account currency %s",
			apperrors.ErrValidation, txn.CurrencyCode, account.CurrencyCode)
	}

	newBalance := account.Balance.Add(delta)
	if delta.IsNegative() && newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: account %s balance %s cannot cover %s",
			apperrors.ErrInsufficientFunds, txn.AccountID, account.Balance.String(), delta.Abs().String())
	}

	if err := accountRepo.UpdateAccountBalanceInTx(ctx, tx, txn.AccountID, delta, txn.CreatedBy, txn.CreatedAt); err != nil {
		return nil, err
	}

	txn.RunningBalance = newBalance
	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// updateTransactionStatusInTx flips a ledger entry's status within an open
// transaction. Used by settlement resolution.
func updateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, transactionID string, status domain.TransactionStatus, userID string, now time.Time) error {
	query := `
		UPDATE transactions
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, transactionID, status, now, userID)
	if err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: status update for transaction %s", apperrors.ErrConflict, transactionID)
		}
		return fmt.Errorf("failed to update status for transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s not found during status update", apperrors.ErrNotFound, transactionID)
	}
	return nil
}

// ApplyLedgerEffect applies a signed balance delta and records the ledger
// entry as one atomic unit.
func (r *PgxLedgerRepository) ApplyLedgerEffect(ctx context.Context, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	inserted, err := applyLedgerEffectInTx(ctx, tx, r.accountRepo, txn, delta)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return inserted, nil
}

// FindTransactionByID retrieves a single ledger entry.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactionsByAccountID retrieves a keyset-paginated page of ledger
// entries for an account, newest first.
func (r *PgxLedgerRepository) ListTransactionsByAccountID(ctx context.Context, ownerID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = $1 AND account_id = $2
	`
	args := []any{ownerID, accountID}

	if nextToken != nil && *nextToken != "" {
		cursorTime, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` AND (created_at, transaction_id) < ($3, $4)`
		args = append(args, cursorTime, cursorID)
	}

	// Fetch one extra row to know whether another page exists.
	query += fmt.Sprintf(` ORDER BY created_at DESC, transaction_id DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row for account %s: %w", accountID, err)
		}
		transactions = append(transactions, *txn)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows for account %s: %w", accountID, rows.Err())
	}

	var token *string
	if len(transactions) > limit {
		transactions = transactions[:limit]
		last := transactions[len(transactions)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.TransactionID)
		token = &t
	}

	return transactions, token, nil
}
