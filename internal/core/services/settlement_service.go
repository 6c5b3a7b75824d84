package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/pesavault/pesavault/internal/metrics"
)

// settlementService owns the external settlement lifecycle. The invariants it
// protects: the transaction and reference rows are persisted before any
// gateway call, a settlement resolves exactly once, and the account credit
// happens only on the PENDING -> COMPLETED transition.
type settlementService struct {
	BaseService
	settlementRepo portsrepo.SettlementRepository
	ledgerRepo     portsrepo.LedgerRepositoryFacade
	accountSvc     portssvc.AccountSvcFacade
	gateway        portssvc.SettlementGateway

	staleAfter time.Duration
	pollLimit  int
}

// NewSettlementService creates a new SettlementService. staleAfter controls
// how long a pending settlement may sit without a callback before the poller
// queries the gateway for it.
func NewSettlementService(
	settlementRepo portsrepo.SettlementRepository,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	gateway portssvc.SettlementGateway,
	staleAfter time.Duration,
	pollLimit int,
) portssvc.SettlementSvcFacade {
	return &settlementService{
		settlementRepo: settlementRepo,
		ledgerRepo:     ledgerRepo,
		accountSvc:     accountSvc,
		gateway:        gateway,
		staleAfter:     staleAfter,
		pollLimit:      pollLimit,
	}
}

// Ensure settlementService implements the portssvc.SettlementSvcFacade interface
var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// Initiate persists the PENDING transaction and INITIATED reference row, then
// requests the payment from the gateway. Persisting first means a crash or
// timeout mid-call leaves a resolvable settlement instead of a lost one.
func (s *settlementService) Initiate(ctx context.Context, ownerID string, req dto.InitiateSettlementRequest) (*domain.Transaction, *domain.SettlementReference, error) {
	if !req.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: settlement amount must be positive", apperrors.ErrValidation)
	}

	account, err := s.accountSvc.GetAccountByID(ctx, ownerID, req.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, req.AccountID)
	}
	if account.CurrencyCode != req.CurrencyCode {
		return nil, nil, fmt.Errorf("%w: settlement currency %s does not match account currency %s",
			apperrors.ErrValidation, req.CurrencyCode, account.CurrencyCode)
	}

	if active, err := s.gateway.ValidateAccountHolder(ctx, req.PayerMSISDN); err != nil {
		s.LogDebug(ctx, "account holder validation unavailable, proceeding",
			slog.String("error", err.Error()))
	} else if !active {
		return nil, nil, fmt.Errorf("%w: payer %s is not a registered account holder", apperrors.ErrValidation, req.PayerMSISDN)
	}

	now := time.Now()
	externalRef := uuid.NewString()
	txn := domain.Transaction{
		TransactionID:     uuid.NewString(),
		OwnerID:           ownerID,
		AccountID:         req.AccountID,
		Type:              domain.ExternalSettlement,
		Amount:            req.Amount,
		CurrencyCode:      req.CurrencyCode,
		Status:            domain.StatusPending,
		Description:       req.Note,
		ExternalReference: &externalRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}
	ref := domain.SettlementReference{
		TransactionID:       txn.TransactionID,
		ExternalReferenceID: externalRef,
		State:               domain.SettlementInitiated,
		AttemptedAt:         now,
	}

	if err := s.settlementRepo.InitiateSettlement(ctx, txn, ref); err != nil {
		s.LogError(ctx, err, "failed to persist settlement initiation",
			slog.String("account_id", req.AccountID))
		return nil, nil, err
	}
	metrics.SettlementsInitiated.Inc()

	err = s.gateway.RequestPayment(ctx, externalRef, portssvc.GatewayPaymentRequest{
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		PayerMSISDN:  req.PayerMSISDN,
		Note:         req.Note,
	})

	// Whatever the outcome, the request has been attempted: the reference
	// leaves INITIATED so the poller and callbacks can resolve it.
	if markErr := s.settlementRepo.MarkSettlementPending(ctx, txn.TransactionID); markErr != nil &&
		!errors.Is(markErr, apperrors.ErrSettlementResolved) {
		s.LogError(ctx, markErr, "failed to mark settlement pending",
			slog.String("transaction_id", txn.TransactionID))
	}
	ref.State = domain.SettlementPending

	var rejection *portssvc.GatewayRejectionError
	switch {
	case err == nil:
		s.LogInfo(ctx, "settlement requested",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("external_reference_id", externalRef))

	case errors.As(err, &rejection):
		// Definitive refusal: resolve immediately, no credit ever happened.
		if failErr := s.fail(ctx, &ref, rejection.Code); failErr != nil {
			return nil, nil, failErr
		}
		ref.State = domain.SettlementFailed
		ref.ReasonCode = rejection.Code
		txn.Status = domain.StatusFailed
		s.LogInfo(ctx, "settlement rejected by gateway",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("reason_code", rejection.Code))

	default:
		// Ambiguous: the provider may or may not have the request. Leave it
		// PENDING for the callback or the poller.
		s.LogError(ctx, err, "gateway request did not complete, settlement left pending",
			slog.String("transaction_id", txn.TransactionID))
	}

	return &txn, &ref, nil
}

// GetSettlement retrieves an owner-scoped settlement and its mapping row.
func (s *settlementService) GetSettlement(ctx context.Context, ownerID string, transactionID string) (*domain.Transaction, *domain.SettlementReference, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	if txn.OwnerID != ownerID {
		return nil, nil, apperrors.ErrNotFound
	}
	ref, err := s.settlementRepo.FindReferenceByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	return txn, ref, nil
}

// HandleCallback applies an inbound gateway callback. A callback for an
// unknown reference is a reconciliation failure; one for an already resolved
// reference is an idempotent no-op.
func (s *settlementService) HandleCallback(ctx context.Context, req dto.SettlementCallbackRequest) error {
	ref, err := s.settlementRepo.FindReferenceByExternalID(ctx, req.ExternalReferenceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: no settlement for external reference %s",
				apperrors.ErrReconciliation, req.ExternalReferenceID)
		}
		return err
	}

	if ref.State.IsTerminal() {
		s.LogInfo(ctx, "duplicate settlement callback ignored",
			slog.String("external_reference_id", req.ExternalReferenceID),
			slog.String("state", string(ref.State)))
		return nil
	}

	// A callback proves the gateway has the request, so an INITIATED
	// reference (crash before acknowledgement) can safely advance.
	if ref.State == domain.SettlementInitiated {
		if err := s.settlementRepo.MarkSettlementPending(ctx, ref.TransactionID); err != nil &&
			!errors.Is(err, apperrors.ErrSettlementResolved) {
			return err
		}
		ref.State = domain.SettlementPending
	}

	switch portssvc.GatewayPaymentStatus(strings.ToUpper(req.Status)) {
	case portssvc.GatewayStatusSuccessful:
		return s.complete(ctx, ref)
	case portssvc.GatewayStatusFailed:
		return s.fail(ctx, ref, req.ReasonCode)
	default:
		// Unrecognized status: do not trust it, ask the provider directly.
		s.LogInfo(ctx, "ambiguous callback status, re-querying gateway",
			slog.String("external_reference_id", req.ExternalReferenceID),
			slog.String("status", req.Status))
		return s.resolveFromGateway(ctx, ref)
	}
}

// PollPending queries the gateway for stale unresolved settlements and
// applies the results. Returns the number of references resolved.
func (s *settlementService) PollPending(ctx context.Context) (int, error) {
	metrics.SettlementPollCycles.Inc()

	cutoff := time.Now().Add(-s.staleAfter)
	refs, err := s.settlementRepo.ListStalePendingReferences(ctx, cutoff, s.pollLimit)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range refs {
		ref := refs[i]
		if err := s.settlementRepo.TouchLastPolled(ctx, ref.TransactionID, time.Now()); err != nil {
			s.LogError(ctx, err, "failed to touch settlement reference",
				slog.String("transaction_id", ref.TransactionID))
			continue
		}

		// A reference still INITIATED here was orphaned by a crash between
		// persisting and the gateway acknowledgement.
		if ref.State == domain.SettlementInitiated {
			if err := s.settlementRepo.MarkSettlementPending(ctx, ref.TransactionID); err != nil {
				if !errors.Is(err, apperrors.ErrSettlementResolved) {
					s.LogError(ctx, err, "failed to advance orphaned settlement",
						slog.String("transaction_id", ref.TransactionID))
				}
				continue
			}
			ref.State = domain.SettlementPending
		}

		if err := s.resolveFromGateway(ctx, &ref); err != nil {
			s.LogError(ctx, err, "failed to resolve settlement from gateway",
				slog.String("transaction_id", ref.TransactionID))
			continue
		}

		// resolveFromGateway mutates the state when the provider answered.
		if ref.State.IsTerminal() {
			resolved++
		}
	}

	return resolved, nil
}

// resolveFromGateway asks the provider for the settlement status and applies
// a terminal answer. A still-pending answer leaves the reference untouched.
func (s *settlementService) resolveFromGateway(ctx context.Context, ref *domain.SettlementReference) error {
	result, err := s.gateway.GetStatus(ctx, ref.ExternalReferenceID)
	if err != nil {
		var rejection *portssvc.GatewayRejectionError
		if errors.As(err, &rejection) && rejection.StatusCode == 404 {
			// The provider never saw this reference: the original request was
			// lost before it arrived. Safe to fail, no money moved.
			if failErr := s.fail(ctx, ref, "NOT_FOUND_AT_PROVIDER"); failErr != nil {
				return failErr
			}
			ref.State = domain.SettlementFailed
			return nil
		}
		return err
	}

	switch result.Status {
	case portssvc.GatewayStatusSuccessful:
		if err := s.complete(ctx, ref); err != nil {
			return err
		}
		ref.State = domain.SettlementCompleted
	case portssvc.GatewayStatusFailed:
		if err := s.fail(ctx, ref, result.ReasonCode); err != nil {
			return err
		}
		ref.State = domain.SettlementFailed
	default:
		s.LogDebug(ctx, "settlement still pending at provider",
			slog.String("external_reference_id", ref.ExternalReferenceID))
	}
	return nil
}

// complete credits the destination account and resolves the settlement. Safe
// to call twice: the second call hits the state guard and becomes a no-op.
func (s *settlementService) complete(ctx context.Context, ref *domain.SettlementReference) error {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, ref.TransactionID)
	if err != nil {
		return err
	}

	err = s.WithConflictRetry(ctx, func() error {
		return s.settlementRepo.CompleteSettlement(ctx, *ref, *txn, txn.Amount, time.Now())
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSettlementResolved) {
			s.LogInfo(ctx, "settlement already resolved, completion skipped",
				slog.String("transaction_id", ref.TransactionID))
			return nil
		}
		return err
	}

	metrics.SettlementsCompleted.Inc()
	s.LogInfo(ctx, "settlement completed",
		slog.String("transaction_id", ref.TransactionID),
		slog.String("amount", txn.Amount.String()))
	return nil
}

// fail resolves the settlement as FAILED with no balance effect. Idempotent
// like complete.
func (s *settlementService) fail(ctx context.Context, ref *domain.SettlementReference, reasonCode string) error {
	err := s.WithConflictRetry(ctx, func() error {
		return s.settlementRepo.FailSettlement(ctx, *ref, reasonCode, time.Now())
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSettlementResolved) {
			s.LogInfo(ctx, "settlement already resolved, failure skipped",
				slog.String("transaction_id", ref.TransactionID))
			return nil
		}
		return err
	}

	metrics.SettlementsFailed.Inc()
	s.LogInfo(ctx, "settlement failed",
		slog.String("transaction_id", ref.TransactionID),
		slog.String("reason_code", reasonCode))
	return nil
}
