package services

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/pesavault/pesavault/internal/dto"
)

// InvestmentSvcFacade defines the investment allocation operations.
type InvestmentSvcFacade interface {
	// Invest debits the funding account and creates the position in one
	// atomic unit.
	Invest(ctx context.Context, ownerID string, req dto.CreateInvestmentRequest) (*domain.InvestmentPosition, error)

	// Redeem credits principal plus any recorded return back to the account
	// and completes the position in one atomic unit. Only ACTIVE positions
	// are redeemable.
	Redeem(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error)

	// Cancel refunds the principal and marks the position CANCELLED.
	Cancel(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error)

	// RecordReturn sets the realized return on an ACTIVE position.
	RecordReturn(ctx context.Context, ownerID string, investmentID string, req dto.RecordReturnRequest) (*domain.InvestmentPosition, error)

	GetInvestmentByID(ctx context.Context, ownerID string, investmentID string) (*domain.InvestmentPosition, error)
	ListInvestments(ctx context.Context, ownerID string) ([]domain.InvestmentPosition, error)
}
