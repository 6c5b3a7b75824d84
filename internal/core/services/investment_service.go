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

// investmentService manages investment positions. Purchase, redemption and
// cancellation pair the position mutation with the account balance effect in
// one atomic unit.
type investmentService struct {
	BaseService
	investmentRepo portsrepo.InvestmentRepository
	accountSvc     portssvc.AccountSvcFacade
}

// NewInvestmentService creates a new InvestmentService.
func NewInvestmentService(investmentRepo portsrepo.InvestmentRepository, accountSvc portssvc.AccountSvcFacade) portssvc.InvestmentSvcFacade {
	return &investmentService{
		investmentRepo: investmentRepo,
		accountSvc:     accountSvc,
	}
}

// Ensure investmentService implements the portssvc.InvestmentSvcFacade interface
var _ portssvc.InvestmentSvcFacade = (*investmentService)(nil)

// Invest debits the funding account and creates the position.
func (s *investmentService) Invest(ctx context.Context, ownerID string, req dto.CreateInvestmentRequest) (*domain.InvestmentPosition, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: investment amount must be positive", apperrors.ErrValidation)
	}

	account, err := s.accountSvc.GetAccountByID(ctx, ownerID, req.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := domain.InvestmentPosition{
		InvestmentID: uuid.NewString(),
		OwnerID:      ownerID,
		AccountID:    req.AccountID,
		Type:         req.Type,
		Amount:       req.Amount,
		Risk:         req.Risk,
		Status:       domain.InvestmentActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       ownerID,
		AccountID:     req.AccountID,
		Type:          domain.InvestmentPurchase,
		Amount:        req.Amount,
		CurrencyCode:  account.CurrencyCode,
		Status:        domain.StatusCompleted,
		Description:   fmt.Sprintf("Purchase of %s", req.Type),
		AuditFields:   inv.AuditFields,
	}

	err = s.WithConflictRetry(ctx, func() error {
		_, purchaseErr := s.investmentRepo.SavePurchase(ctx, inv, txn, req.Amount.Neg())
		return purchaseErr
	})
	if err != nil {
		s.LogError(ctx, err, "failed to purchase investment",
			slog.String("account_id", req.AccountID),
			slog.String("amount", req.Amount.String()))
		return nil, err
	}

	s.LogInfo(ctx, "investment purchased",
		slog.String("investment_id", inv.InvestmentID),
		slog.String("type", inv.Type),
		slog.String("amount", inv.Amount.String()))
	return &inv, nil
}

// getActiveInvestment retrieves an owner-scoped position and verifies it is
// still ACTIVE.
func (s *investmentService) getActiveInvestment(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error) {
	inv, err := s.GetInvestmentByID(ctx, ownerID, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvestmentActive {
		return nil, fmt.Errorf("%w: investment %s is %s", apperrors.ErrValidation, investmentID, inv.Status)
	}
	return inv, nil
}

// redeemAs credits the account and moves the position to the given terminal
// status. Shared by Redeem (principal plus return) and Cancel (principal only).
func (s *investmentService) redeemAs(ctx context.Context, ownerID string, inv *domain.InvestmentPosition, status domain.InvestmentStatus, credit decimal.Decimal, txnType domain.TransactionType, description string) (*domain.InvestmentPosition, error) {
	account, err := s.accountSvc.GetAccountByID(ctx, ownerID, inv.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updated := *inv
	updated.Status = status
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = ownerID

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       ownerID,
		AccountID:     inv.AccountID,
		Type:          txnType,
		Amount:        credit,
		CurrencyCode:  account.CurrencyCode,
		Status:        domain.StatusCompleted,
		Description:   description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	err = s.WithConflictRetry(ctx, func() error {
		_, redeemErr := s.investmentRepo.SaveRedemption(ctx, updated, txn, credit)
		return redeemErr
	})
	if err != nil {
		s.LogError(ctx, err, "failed to close investment",
			slog.String("investment_id", inv.InvestmentID),
			slog.String("target_status", string(status)))
		return nil, err
	}

	s.LogInfo(ctx, "investment closed",
		slog.String("investment_id", inv.InvestmentID),
		slog.String("status", string(status)),
		slog.String("credited", credit.String()))
	return &updated, nil
}

// Redeem credits principal plus any recorded return back to the account and
// completes the position.
func (s *investmentService) Redeem(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error) {
	inv, err := s.getActiveInvestment(ctx, ownerID, investmentID)
	if err != nil {
		return nil, err
	}

	credit := inv.Amount
	if inv.ReturnAmount != nil {
		credit = credit.Add(*inv.ReturnAmount)
	}
	return s.redeemAs(ctx, ownerID, inv, domain.InvestmentCompleted, credit, domain.InvestmentPurchase,
		fmt.Sprintf("Redemption of %s", inv.Type))
}

// Cancel refunds the principal and marks the position CANCELLED. Any recorded
// return is forfeited.
func (s *investmentService) Cancel(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error) {
	inv, err := s.getActiveInvestment(ctx, ownerID, investmentID)
	if err != nil {
		return nil, err
	}
	return s.redeemAs(ctx, ownerID, inv, domain.InvestmentCancelled, inv.Amount, domain.Refund,
		fmt.Sprintf("Cancellation of %s", inv.Type))
}

// RecordReturn sets the realized return on an ACTIVE position. The amount is
// credited on redemption, not here.
func (s *investmentService) RecordReturn(ctx context.Context, ownerID string, investmentID string, req dto.RecordReturnRequest) (*domain.InvestmentPosition, error) {
	if req.ReturnAmount.IsNegative() {
		return nil, fmt.Errorf("%w: return amount cannot be negative", apperrors.ErrValidation)
	}

	inv, err := s.getActiveInvestment(ctx, ownerID, investmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.investmentRepo.UpdateReturnAmount(ctx, investmentID, req.ReturnAmount, ownerID, now); err != nil {
		s.LogError(ctx, err, "failed to record investment return",
			slog.String("investment_id", investmentID))
		return nil, err
	}

	updated := *inv
	ret := req.ReturnAmount
	updated.ReturnAmount = &ret
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = ownerID

	s.LogInfo(ctx, "investment return recorded",
		slog.String("investment_id", investmentID),
		slog.String("return_amount", req.ReturnAmount.String()))
	return &updated, nil
}

// GetInvestmentByID retrieves an owner-scoped position.
func (s *investmentService) GetInvestmentByID(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error) {
	inv, err := s.investmentRepo.FindInvestmentByID(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return inv, nil
}

// ListInvestments retrieves all of the owner's positions.
func (s *investmentService) ListInvestments(ctx context.Context, ownerID string) ([]domain.InvestmentPosition, error) {
	return s.investmentRepo.ListInvestmentsByOwner(ctx, ownerID)
}
