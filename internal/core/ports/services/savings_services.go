package services

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/pesavault/pesavault/internal/dto"
)

// SavingsSvcFacade defines the savings goal allocation operations.
type SavingsSvcFacade interface {
	CreateGoal(ctx context.Context, ownerID string, req dto.CreateGoalRequest) (*domain.SavingsGoal, error)
	GetGoalByID(ctx context.Context, ownerID string, goalID string) (*domain.SavingsGoal, error)
	ListGoals(ctx context.Context, ownerID string) ([]domain.SavingsGoal, error)

	// Contribute debits the funding account and raises the goal's funded
	// amount in one atomic unit, flipping the goal COMPLETED when the target
	// is reached.
	Contribute(ctx context.Context, ownerID string, goalID string, req dto.ContributeRequest) (*domain.SavingsGoal, error)

	// DeleteGoal refunds any remaining funded amount to the owning account as
	// a REFUND entry, then removes the goal — one atomic unit.
	DeleteGoal(ctx context.Context, ownerID string, goalID string) error
}
