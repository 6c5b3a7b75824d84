package repositories

import (
	"context"
	"time"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettlementRepository persists external settlement transactions and their
// reference mapping rows. State changes are guarded updates: a transition the
// domain table does not allow affects zero rows and surfaces as
// apperrors.ErrSettlementResolved (terminal) or apperrors.ErrConflict.
type SettlementRepository interface {
	// InitiateSettlement inserts the PENDING transaction and its INITIATED
	// reference row in one atomic unit, before any gateway call is made.
	InitiateSettlement(ctx context.Context, txn domain.Transaction, ref domain.SettlementReference) error

	// MarkSettlementPending moves the reference INITIATED -> PENDING once the
	// gateway has acknowledged the request.
	MarkSettlementPending(ctx context.Context, transactionID string) error

	// FindReferenceByExternalID resolves the mapping row a callback refers to.
	FindReferenceByExternalID(ctx context.Context, externalReferenceID string) (*domain.SettlementReference, error)

	// FindReferenceByTransactionID resolves the mapping row for a transaction.
	FindReferenceByTransactionID(ctx context.Context, transactionID string) (*domain.SettlementReference, error)

	// CompleteSettlement moves the reference PENDING -> COMPLETED, credits the
	// destination account by delta and flips the transaction to COMPLETED, all
	// in one atomic unit. A reference already terminal yields
	// apperrors.ErrSettlementResolved and no balance effect.
	CompleteSettlement(ctx context.Context, ref domain.SettlementReference, txn domain.Transaction, delta decimal.Decimal, now time.Time) error

	// FailSettlement moves the reference PENDING -> FAILED and flips the
	// transaction to FAILED with no balance effect.
	FailSettlement(ctx context.Context, ref domain.SettlementReference, reasonCode string, now time.Time) error

	// ListStalePendingReferences returns unresolved references whose last poll
	// (or attempt) is older than the cutoff, oldest first.
	ListStalePendingReferences(ctx context.Context, olderThan time.Time, limit int) ([]domain.SettlementReference, error)

	// TouchLastPolled records a poll attempt on a reference.
	TouchLastPolled(ctx context.Context, transactionID string, now time.Time) error
}
