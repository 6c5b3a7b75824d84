package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type PgxSavingsGoalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxSavingsGoalRepository creates a new repository for savings goals.
func newPgxSavingsGoalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) *PgxSavingsGoalRepository {
	return &PgxSavingsGoalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxSavingsGoalRepository implements portsrepo.SavingsGoalRepository
var _ portsrepo.SavingsGoalRepository = (*PgxSavingsGoalRepository)(nil)

const goalColumns = `goal_id, owner_id, account_id, name, target_amount, current_amount, status, created_at, created_by, last_updated_at, last_updated_by`

func scanGoal(row pgx.Row) (*domain.SavingsGoal, error) {
	var goal domain.SavingsGoal
	err := row.Scan(
		&goal.GoalID,
		&goal.OwnerID,
		&goal.AccountID,
		&goal.Name,
		&goal.TargetAmount,
		&goal.CurrentAmount,
		&goal.Status,
		&goal.CreatedAt,
		&goal.CreatedBy,
		&goal.LastUpdatedAt,
		&goal.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// SaveGoal inserts a new savings goal.
func (r *PgxSavingsGoalRepository) SaveGoal(ctx context.Context, goal domain.SavingsGoal) error {
	query := `
		INSERT INTO savings_goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		goal.GoalID,
		goal.OwnerID,
		goal.AccountID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Status,
		goal.CreatedAt,
		goal.CreatedBy,
		goal.LastUpdatedAt,
		goal.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: goal with ID %s already exists", apperrors.ErrDuplicate, goal.GoalID)
		}
		return fmt.Errorf("failed to save goal %s: %w", goal.GoalID, err)
	}
	return nil
}

// FindGoalByID retrieves a savings goal by its ID.
func (r *PgxSavingsGoalRepository) FindGoalByID(ctx context.Context, goalID string) (*domain.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE goal_id = $1;`

	goal, err := scanGoal(r.Pool.QueryRow(ctx, query, goalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find goal by ID %s: %w", goalID, err)
	}
	return goal, nil
}

// ListGoalsByOwner retrieves all savings goals belonging to an owner.
func (r *PgxSavingsGoalRepository) ListGoalsByOwner(ctx context.Context, ownerID string) ([]domain.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE owner_id = $1 ORDER BY created_at DESC;`

	rows, err := r.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	goals := []domain.SavingsGoal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal row for owner %s: %w", ownerID, err)
		}
		goals = append(goals, *goal)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating goal rows for owner %s: %w", ownerID, rows.Err())
	}

	return goals, nil
}

// findGoalByIDForUpdate retrieves a goal and locks its row for the duration
// of the transaction.
func findGoalByIDForUpdate(ctx context.Context, tx pgx.Tx, goalID string) (*domain.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE goal_id = $1 FOR UPDATE;`

	goal, err := scanGoal(tx.QueryRow(ctx, query, goalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: could not lock goal %s", apperrors.ErrConflict, goalID)
		}
		return nil, fmt.Errorf("failed to lock goal %s: %w", goalID, err)
	}
	return goal, nil
}

// SaveContribution debits the funding account, records the ledger entry and
// writes the updated goal row as one atomic unit. The funded amount and
// status are recomputed from the locked goal row, so a concurrent
// contribution committed since the caller's read is not overwritten.
func (r *PgxSavingsGoalRepository) SaveContribution(ctx context.Context, goalID string, increment decimal.Decimal, txn domain.Transaction) (*domain.SavingsGoal, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	goal, err := findGoalByIDForUpdate(ctx, tx, goalID)
	if err != nil {
		return nil, err
	}

	goal.CurrentAmount = goal.CurrentAmount.Add(increment)
	goal.Status = goal.DeriveStatus()
	goal.LastUpdatedAt = txn.CreatedAt
	goal.LastUpdatedBy = txn.CreatedBy

	if _, err := applyLedgerEffectInTx(ctx, tx, r.accountRepo, txn, increment.Neg()); err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE savings_goals
		SET current_amount = $2, status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE goal_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery,
		goal.GoalID, goal.CurrentAmount, goal.Status, goal.LastUpdatedAt, goal.LastUpdatedBy); err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: updating goal %s", apperrors.ErrConflict, goal.GoalID)
		}
		return nil, fmt.Errorf("failed to update goal %s: %w", goal.GoalID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoalWithRefund removes the goal row, crediting any remaining funded
// amount back to the funding account in the same unit. The refund amount
// comes from the locked row, not the caller's earlier read, so a
// contribution landing in between is still paid back.
func (r *PgxSavingsGoalRepository) DeleteGoalWithRefund(ctx context.Context, goalID string, refund domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // Rollback after commit is a no-op

	goal, err := findGoalByIDForUpdate(ctx, tx, goalID)
	if err != nil {
		return err
	}

	if goal.CurrentAmount.IsPositive() {
		refund.Amount = goal.CurrentAmount
		if _, err := applyLedgerEffectInTx(ctx, tx, r.accountRepo, refund, goal.CurrentAmount); err != nil {
			return err
		}
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM savings_goals WHERE goal_id = $1;`, goal.GoalID)
	if err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: deleting goal %s", apperrors.ErrConflict, goal.GoalID)
		}
		return fmt.Errorf("failed to delete goal %s: %w", goal.GoalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: goal %s", apperrors.ErrNotFound, goal.GoalID)
	}

	return r.Commit(ctx, tx)
}
