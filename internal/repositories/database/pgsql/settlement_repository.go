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

type PgxSettlementRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxSettlementRepository creates a new repository for settlement references.
func newPgxSettlementRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) *PgxSettlementRepository {
	return &PgxSettlementRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxSettlementRepository implements portsrepo.SettlementRepository
var _ portsrepo.SettlementRepository = (*PgxSettlementRepository)(nil)

const referenceColumns = `transaction_id, external_reference_id, state, reason_code, attempted_at, last_polled_at`

func scanReference(row pgx.Row) (*domain.SettlementReference, error) {
	var ref domain.SettlementReference
	err := row.Scan(
		&ref.TransactionID,
		&ref.ExternalReferenceID,
		&ref.State,
		&ref.ReasonCode,
		&ref.AttemptedAt,
		&ref.LastPolledAt,
	)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// classifyTransitionFailure is called after a guarded state update affected
// zero rows. It re-reads the reference to tell "already terminal" apart from
// "lost a race" and "does not exist".
func (r *PgxSettlementRepository) classifyTransitionFailure(ctx context.Context, transactionID string, to domain.SettlementState) error {
	ref, err := r.FindReferenceByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}
	if ref.State.IsTerminal() {
		return fmt.Errorf("%w: settlement %s is already %s", apperrors.ErrSettlementResolved, transactionID, ref.State)
	}
	return fmt.Errorf("%w: settlement %s cannot move %s -> %s", apperrors.ErrConflict, transactionID, ref.State, to)
}

// InitiateSettlement inserts the PENDING transaction and its INITIATED
// reference row in one atomic unit, before any gateway call is made.
func (r *PgxSettlementRepository) InitiateSettlement(ctx context.Context, txn domain.Transaction, ref domain.SettlementReference) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO settlement_references (` + referenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err = tx.Exec(ctx, insertQuery,
		ref.TransactionID,
		ref.ExternalReferenceID,
		ref.State,
		ref.ReasonCode,
		ref.AttemptedAt,
		ref.LastPolledAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: settlement reference %s already exists", apperrors.ErrDuplicate, ref.ExternalReferenceID)
		}
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: inserting settlement reference %s", apperrors.ErrConflict, ref.ExternalReferenceID)
		}
		return fmt.Errorf("failed to insert settlement reference %s: %w", ref.ExternalReferenceID, err)
	}

	return r.Commit(ctx, tx)
}

// MarkSettlementPending moves the reference INITIATED -> PENDING once the
// gateway has acknowledged (or been sent) the request.
func (r *PgxSettlementRepository) MarkSettlementPending(ctx context.Context, transactionID string) error {
	query := `
		UPDATE settlement_references
		SET state = $2
		WHERE transaction_id = $1 AND state = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, domain.SettlementPending, domain.SettlementInitiated)
	if err != nil {
		return fmt.Errorf("failed to mark settlement %s pending: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.classifyTransitionFailure(ctx, transactionID, domain.SettlementPending)
	}
	return nil
}

// FindReferenceByExternalID resolves the mapping row a callback refers to.
func (r *PgxSettlementRepository) FindReferenceByExternalID(ctx context.Context, externalReferenceID string) (*domain.SettlementReference, error) {
	query := `SELECT ` + referenceColumns + ` FROM settlement_references WHERE external_reference_id = $1;`

	ref, err := scanReference(r.Pool.QueryRow(ctx, query, externalReferenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find settlement reference %s: %w", externalReferenceID, err)
	}
	return ref, nil
}

// FindReferenceByTransactionID resolves the mapping row for a transaction.
func (r *PgxSettlementRepository) FindReferenceByTransactionID(ctx context.Context, transactionID string) (*domain.SettlementReference, error) {
	query := `SELECT ` + referenceColumns + ` FROM settlement_references WHERE transaction_id = $1;`

	ref, err := scanReference(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find settlement reference for transaction %s: %w", transactionID, err)
	}
	return ref, nil
}

// CompleteSettlement moves the reference PENDING -> COMPLETED, credits the
// destination account and flips the transaction to COMPLETED, all in one
// atomic unit. The guarded update makes a repeated completion a clean failure
// with no second credit.
func (r *PgxSettlementRepository) CompleteSettlement(ctx context.Context, ref domain.SettlementReference, txn domain.Transaction, delta decimal.Decimal, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	updateRef := `
		UPDATE settlement_references
		SET state = $2
		WHERE transaction_id = $1 AND state = $3;
	`
	cmdTag, err := tx.Exec(ctx, updateRef, ref.TransactionID, domain.SettlementCompleted, domain.SettlementPending)
	if err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: completing settlement %s", apperrors.ErrConflict, ref.TransactionID)
		}
		return fmt.Errorf("failed to complete settlement %s: %w", ref.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.classifyTransitionFailure(ctx, ref.TransactionID, domain.SettlementCompleted)
	}

	// The credit happens under the account row lock so the running balance on
	// the transaction row is consistent with the account.
	account, err := r.accountRepo.FindAccountByIDForUpdate(ctx, tx, txn.AccountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, txn.AccountID)
	}
	if err := r.accountRepo.UpdateAccountBalanceInTx(ctx, tx, txn.AccountID, delta, txn.LastUpdatedBy, now); err != nil {
		return err
	}

	newBalance := account.Balance.Add(delta)
	updateTxn := `
		UPDATE transactions
		SET status = $2, running_balance = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1;
	`
	if _, err := tx.Exec(ctx, updateTxn,
		txn.TransactionID, domain.StatusCompleted, newBalance, now, txn.LastUpdatedBy); err != nil {
		return fmt.Errorf("failed to flip transaction %s to completed: %w", txn.TransactionID, err)
	}

	return r.Commit(ctx, tx)
}

// FailSettlement moves the reference PENDING -> FAILED and flips the
// transaction to FAILED. No balance effect.
func (r *PgxSettlementRepository) FailSettlement(ctx context.Context, ref domain.SettlementReference, reasonCode string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	updateRef := `
		UPDATE settlement_references
		SET state = $2, reason_code = $3
		WHERE transaction_id = $1 AND state = $4;
	`
	cmdTag, err := tx.Exec(ctx, updateRef,
		ref.TransactionID, domain.SettlementFailed, reasonCode, domain.SettlementPending)
	if err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: failing settlement %s", apperrors.ErrConflict, ref.TransactionID)
		}
		return fmt.Errorf("failed to fail settlement %s: %w", ref.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.classifyTransitionFailure(ctx, ref.TransactionID, domain.SettlementFailed)
	}

	if err := updateTransactionStatusInTx(ctx, tx, ref.TransactionID, domain.StatusFailed, "system", now); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// ListStalePendingReferences returns unresolved references whose last poll
// (or initial attempt) is older than the cutoff, oldest first. INITIATED rows
// are included so crash-orphaned settlements still get resolved.
func (r *PgxSettlementRepository) ListStalePendingReferences(ctx context.Context, olderThan time.Time, limit int) ([]domain.SettlementReference, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + referenceColumns + `
		FROM settlement_references
		WHERE state IN ($1, $2) AND COALESCE(last_polled_at, attempted_at) < $3
		ORDER BY COALESCE(last_polled_at, attempted_at)
		LIMIT $4;
	`
	rows, err := r.Pool.Query(ctx, query, domain.SettlementInitiated, domain.SettlementPending, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale settlement references: %w", err)
	}
	defer rows.Close()

	refs := []domain.SettlementReference{}
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement reference row: %w", err)
		}
		refs = append(refs, *ref)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating settlement reference rows: %w", rows.Err())
	}

	return refs, nil
}

// TouchLastPolled records a poll attempt on a reference.
func (r *PgxSettlementRepository) TouchLastPolled(ctx context.Context, transactionID string, now time.Time) error {
	query := `UPDATE settlement_references SET last_polled_at = $2 WHERE transaction_id = $1;`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, now)
	if err != nil {
		return fmt.Errorf("failed to touch settlement reference %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
