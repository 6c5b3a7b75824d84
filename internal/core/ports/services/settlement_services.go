package services

import (
	"context"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/pesavault/pesavault/internal/dto"
)

// SettlementSvcFacade owns the lifecycle of externally settled payments:
// initiation, callback reconciliation and polling.
type SettlementSvcFacade interface {
	// Initiate persists the PENDING transaction and reference row first, then
	// requests the payment from the gateway. A gateway timeout leaves the
	// settlement resolvable by callback or poll and is not an error for the
	// caller beyond "still pending".
	Initiate(ctx context.Context, ownerID string, req dto.InitiateSettlementRequest) (*domain.Transaction, *domain.SettlementReference, error)

	// GetSettlement retrieves an owner-scoped settlement and its mapping row.
	GetSettlement(ctx context.Context, ownerID string, transactionID string) (*domain.Transaction, *domain.SettlementReference, error)

	// HandleCallback applies an inbound gateway callback. Unknown references
	// fail with apperrors.ErrReconciliation; references already terminal are
	// an idempotent no-op.
	HandleCallback(ctx context.Context, req dto.SettlementCallbackRequest) error

	// PollPending queries the gateway for stale PENDING settlements and
	// applies the results. Returns the number of references resolved.
	PollPending(ctx context.Context) (int, error)
}
