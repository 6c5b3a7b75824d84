package repositories

import (
	"context"
	"time"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InvestmentRepository persists investment positions. Position rows are only
// mutated inside the same atomic unit as their paired balance change.
type InvestmentRepository interface {
	// SavePurchase debits the funding account by delta (negative) and inserts
	// the position row plus the transaction entry in one atomic unit.
	SavePurchase(ctx context.Context, inv domain.InvestmentPosition, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error)

	// SaveRedemption credits the account by delta (positive: principal plus
	// any realized return) and updates the position status in the same unit.
	SaveRedemption(ctx context.Context, inv domain.InvestmentPosition, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error)

	// UpdateReturnAmount records the realized return on an ACTIVE position.
	UpdateReturnAmount(ctx context.Context, investmentID string, returnAmount decimal.Decimal, userID string, now time.Time) error

	// FindInvestmentByID retrieves a position by id.
	FindInvestmentByID(ctx context.Context, investmentID string) (*domain.InvestmentPosition, error)

	// ListInvestmentsByOwner retrieves all positions belonging to an owner.
	ListInvestmentsByOwner(ctx context.Context, ownerID string) ([]domain.InvestmentPosition, error)
}
