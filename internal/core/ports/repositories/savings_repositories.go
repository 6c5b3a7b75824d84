package repositories

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SavingsGoalRepository persists savings goals. Goal rows are only mutated
// inside the same atomic unit as their paired account balance change.
type SavingsGoalRepository interface {
	// SaveGoal persists a new goal. No balance effect.
	SaveGoal(ctx context.Context, goal domain.SavingsGoal) error

	// FindGoalByID retrieves a goal by id.
	FindGoalByID(ctx context.Context, goalID string) (*domain.SavingsGoal, error)

	// ListGoalsByOwner retrieves all goals belonging to an owner.
	ListGoalsByOwner(ctx context.Context, ownerID string) ([]domain.SavingsGoal, error)

	// SaveContribution locks the goal row, adds increment to the funded
	// amount, debits the goal's funding account by the same amount and
	// writes the transaction entry, all in one atomic unit. The new amount
	// and status are computed under the lock so concurrent contributions
	// cannot lose updates. Returns the goal as written.
	SaveContribution(ctx context.Context, goalID string, increment decimal.Decimal, txn domain.Transaction) (*domain.SavingsGoal, error)

	// DeleteGoalWithRefund locks the goal row, credits any remaining funded
	// amount back to the funding account using refund as the entry template
	// (its Amount is set from the locked row), then removes the goal, all
	// in one atomic unit. An unfunded goal is removed with no balance
	// effect.
	DeleteGoalWithRefund(ctx context.Context, goalID string, refund domain.Transaction) error
}
