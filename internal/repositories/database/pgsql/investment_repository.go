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

type PgxInvestmentRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxInvestmentRepository creates a new repository for investment positions.
func newPgxInvestmentRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) *PgxInvestmentRepository {
	return &PgxInvestmentRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxInvestmentRepository implements portsrepo.InvestmentRepository
var _ portsrepo.InvestmentRepository = (*PgxInvestmentRepository)(nil)

const investmentColumns = `investment_id, owner_id, account_id, type, amount, risk, status, return_amount, created_at, created_by, last_updated_at, last_updated_by`

func scanInvestment(row pgx.Row) (*domain.InvestmentPosition, error) {
	var inv domain.InvestmentPosition
	err := row.Scan(
		&inv.InvestmentID,
		&inv.OwnerID,
		&inv.AccountID,
		&inv.Type,
		&inv.Amount,
		&inv.Risk,
		&inv.Status,
		&inv.ReturnAmount,
		&inv.CreatedAt,
		&inv.CreatedBy,
		&inv.LastUpdatedAt,
		&inv.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// SavePurchase debits the funding account, records the ledger entry and
// inserts the position row as one atomic unit.
func (r *PgxInvestmentRepository) SavePurchase(ctx context.Context, inv domain.InvestmentPosition, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	inserted, err := applyLedgerEffectInTx(ctx, tx, r.accountRepo, txn, delta)
	if err != nil {
		return nil, err
	}

	insertQuery := `
		INSERT INTO investments (` + investmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.Exec(ctx, insertQuery,
		inv.InvestmentID,
		inv.OwnerID,
		inv.AccountID,
		inv.Type,
		inv.Amount,
		inv.Risk,
		inv.Status,
		inv.ReturnAmount,
		inv.CreatedAt,
		inv.CreatedBy,
		inv.LastUpdatedAt,
		inv.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return nil, fmt.Errorf("%w: investment %s already exists", apperrors.ErrDuplicate, inv.InvestmentID)
		}
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: inserting investment %s", apperrors.ErrConflict, inv.InvestmentID)
		}
		return nil, fmt.Errorf("failed to insert investment %s: %w", inv.InvestmentID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return inserted, nil
}

// SaveRedemption credits the account, records the ledger entry and updates
// the position status as one atomic unit. The status update is guarded on the
// position still being ACTIVE so a concurrent redemption loses cleanly.
func (r *PgxInvestmentRepository) SaveRedemption(ctx context.Context, inv domain.InvestmentPosition, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	updateQuery := `
		UPDATE investments
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE investment_id = $1 AND status = $5;
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		inv.InvestmentID, inv.Status, inv.LastUpdatedAt, inv.LastUpdatedBy, domain.InvestmentActive)
	if err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: updating investment %s", apperrors.ErrConflict, inv.InvestmentID)
		}
		return nil, fmt.Errorf("failed to update investment %s: %w", inv.InvestmentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: investment %s is not active", apperrors.ErrConflict, inv.InvestmentID)
	}

	inserted, err := applyLedgerEffectInTx(ctx, tx, r.accountRepo, txn, delta)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return inserted, nil
}

// UpdateReturnAmount records the realized return on an ACTIVE position.
func (r *PgxInvestmentRepository) UpdateReturnAmount(ctx context.Context, investmentID string, returnAmount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE investments
		SET return_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE investment_id = $1 AND status = $5;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, investmentID, returnAmount, now, userID, domain.InvestmentActive)
	if err != nil {
		return fmt.Errorf("failed to update return amount for investment %s: %w", investmentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		_, findErr := r.FindInvestmentByID(ctx, investmentID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: investment %s is not active", apperrors.ErrValidation, investmentID)
	}
	return nil
}

// FindInvestmentByID retrieves a position by its ID.
func (r *PgxInvestmentRepository) FindInvestmentByID(ctx context.Context, investmentID string) (*domain.InvestmentPosition, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE investment_id = $1;`

	inv, err := scanInvestment(r.Pool.QueryRow(ctx, query, investmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find investment by ID %s: %w", investmentID, err)
	}
	return inv, nil
}

// ListInvestmentsByOwner retrieves all positions belonging to an owner.
func (r *PgxInvestmentRepository) ListInvestmentsByOwner(ctx context.Context, ownerID string) ([]domain.InvestmentPosition, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE owner_id = $1 ORDER BY created_at DESC;`

	rows, err := r.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	investments := []domain.InvestmentPosition{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment row for owner %s: %w", ownerID, err)
		}
		investments = append(investments, *inv)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating investment rows for owner %s: %w", ownerID, rows.Err())
	}

	return investments, nil
}
