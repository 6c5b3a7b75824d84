package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/shopspring/decimal"
)

// savingsService manages savings goals. Contributions and refunds are atomic
// units pairing the goal row mutation with the account balance effect.
type savingsService struct {
	BaseService
	savingsRepo portsrepo.SavingsGoalRepository
	accountSvc  portssvc.AccountSvcFacade
}

// NewSavingsService creates a new SavingsService.
func NewSavingsService(savingsRepo portsrepo.SavingsGoalRepository, accountSvc portssvc.AccountSvcFacade) portssvc.SavingsSvcFacade {
	return &savingsService{
		savingsRepo: savingsRepo,
		accountSvc:  accountSvc,
	}
}

// Ensure savingsService implements the portssvc.SavingsSvcFacade interface
var _ portssvc.SavingsSvcFacade = (*savingsService)(nil)

// CreateGoal creates a new unfunded goal tied to one of the owner's accounts.
func (s *savingsService) CreateGoal(ctx context.Context, ownerID string, req dto.CreateGoalRequest) (*domain.SavingsGoal, error) {
	if !req.TargetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: target amount must be positive", apperrors.ErrValidation)
	}

	// The funding account must exist, belong to the owner and be active.
	account, err := s.accountSvc.GetAccountByID(ctx, ownerID, req.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, req.AccountID)
	}

	now := time.Now()
	goal := domain.SavingsGoal{
		GoalID:        uuid.NewString(),
		OwnerID:       ownerID,
		AccountID:     req.AccountID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: decimal.Zero,
		Status:        domain.GoalActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	if err := s.savingsRepo.SaveGoal(ctx, goal); err != nil {
		s.LogError(ctx, err, "failed to create savings goal", slog.String("owner_id", ownerID))
		return nil, err
	}

	s.LogInfo(ctx, "savings goal created",
		slog.String("goal_id", goal.GoalID),
		slog.String("target_amount", goal.TargetAmount.String()))
	return &goal, nil
}

// GetGoalByID retrieves an owner-scoped goal.
func (s *savingsService) GetGoalByID(ctx context.Context, ownerID string, goalID string) (*domain.SavingsGoal, error) {
	goal, err := s.savingsRepo.FindGoalByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return goal, nil
}

// ListGoals retrieves all of the owner's goals.
func (s *savingsService) ListGoals(ctx context.Context, ownerID string) ([]domain.SavingsGoal, error) {
	return s.savingsRepo.ListGoalsByOwner(ctx, ownerID)
}

// Contribute moves money from the funding account into the goal. The account
// debit, the ledger entry and the goal update commit together; if the account
// cannot cover the amount nothing is written. The goal's new amount and
// status are computed by the repository under the goal row lock, so two
// concurrent contributions both land.
func (s *savingsService) Contribute(ctx context.Context, ownerID string, goalID string, req dto.ContributeRequest) (*domain.SavingsGoal, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: contribution amount must be positive", apperrors.ErrValidation)
	}

	goal, err := s.GetGoalByID(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	// Currency follows the funding account.
	account, err := s.accountSvc.GetAccountByID(ctx, ownerID, goal.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       ownerID,
		AccountID:     goal.AccountID,
		Type:          domain.Transfer,
		Amount:        req.Amount,
		CurrencyCode:  account.CurrencyCode,
		Status:        domain.StatusCompleted,
		Description:   fmt.Sprintf("Contribution to goal %q", goal.Name),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	var updated *domain.SavingsGoal
	err = s.WithConflictRetry(ctx, func() error {
		var contribErr error
		updated, contribErr = s.savingsRepo.SaveContribution(ctx, goalID, req.Amount, txn)
		return contribErr
	})
	if err != nil {
		s.LogError(ctx, err, "failed to contribute to goal",
			slog.String("goal_id", goalID),
			slog.String("amount", req.Amount.String()))
		return nil, err
	}

	s.LogInfo(ctx, "goal contribution applied",
		slog.String("goal_id", goalID),
		slog.String("amount", req.Amount.String()),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// DeleteGoal refunds any remaining funded amount back to the funding account
// as a REFUND entry, then removes the goal. The refund amount is taken from
// the goal row the repository locks, not from the read here, so a
// contribution landing in between is still paid back.
func (s *savingsService) DeleteGoal(ctx context.Context, ownerID string, goalID string) error {
	goal, err := s.GetGoalByID(ctx, ownerID, goalID)
	if err != nil {
		return err
	}

	account, err := s.accountSvc.GetAccountByID(ctx, ownerID, goal.AccountID)
	if err != nil {
		return err
	}

	// Amount is filled in by the repository from the locked goal row.
	now := time.Now()
	refund := domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       ownerID,
		AccountID:     goal.AccountID,
		Type:          domain.Refund,
		CurrencyCode:  account.CurrencyCode,
		Status:        domain.StatusCompleted,
		Description:   fmt.Sprintf("Refund on deletion of goal %q", goal.Name),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	err = s.WithConflictRetry(ctx, func() error {
		return s.savingsRepo.DeleteGoalWithRefund(ctx, goalID, refund)
	})
	if err != nil {
		s.LogError(ctx, err, "failed to delete goal", slog.String("goal_id", goalID))
		return err
	}

	s.LogInfo(ctx, "savings goal deleted", slog.String("goal_id", goalID))
	return nil
}
