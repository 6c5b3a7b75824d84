package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/core/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---
type SettlementServiceTestSuite struct {
	suite.Suite
	mockSettlementRepo *MockSettlementRepository
	mockLedgerRepo     *MockLedgerRepository
	mockAccountSvc     *MockAccountService
	mockGateway        *MockSettlementGateway
	service            portssvc.SettlementSvcFacade
	account            domain.Account
	ownerID            string
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockSettlementRepo = new(MockSettlementRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockGateway = new(MockSettlementGateway)
	suite.service = services.NewSettlementService(
		suite.mockSettlementRepo,
		suite.mockLedgerRepo,
		suite.mockAccountSvc,
		suite.mockGateway,
		time.Minute,
		10,
	)

	suite.ownerID = uuid.NewString()
	suite.account = domain.Account{
		AccountID:    uuid.NewString(),
		OwnerID:      suite.ownerID,
		Name:         "Mobile Wallet",
		Kind:         domain.Checking,
		CurrencyCode: "UGX",
		Balance:      decimal.NewFromInt(0),
		IsActive:     true,
	}
}

func (suite *SettlementServiceTestSuite) initiateRequest() dto.InitiateSettlementRequest {
	return dto.InitiateSettlementRequest{
		AccountID:    suite.account.AccountID,
		Amount:       decimal.NewFromInt(250),
		CurrencyCode: "UGX",
		PayerMSISDN:  "+256772123456",
		Note:         "Wallet top-up",
	}
}

// pendingReference builds a PENDING reference with a matching transaction row
// registered on the ledger mock.
func (suite *SettlementServiceTestSuite) pendingReference() (*domain.SettlementReference, *domain.Transaction) {
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       suite.ownerID,
		AccountID:     suite.account.AccountID,
		Type:          domain.ExternalSettlement,
		Amount:        decimal.NewFromInt(250),
		CurrencyCode:  "UGX",
		Status:        domain.StatusPending,
	}
	ref := &domain.SettlementReference{
		TransactionID:       txn.TransactionID,
		ExternalReferenceID: uuid.NewString(),
		State:               domain.SettlementPending,
		AttemptedAt:         time.Now().Add(-5 * time.Minute),
	}
	return ref, txn
}

// --- Initiate ---

func (suite *SettlementServiceTestSuite) TestInitiate_PersistsBeforeGatewayCall() {
	ctx := context.Background()
	var steps []string

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ownerID, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockGateway.On("ValidateAccountHolder", ctx, "+256772123456").Return(true, nil).Once()
	suite.mockSettlementRepo.On("InitiateSettlement", ctx,
		mock.MatchedBy(func(txn domain.Transaction) bool {
			return txn.Type == domain.ExternalSettlement &&
				txn.Status == domain.StatusPending &&
				txn.Amount.Equal(decimal.NewFromInt(250)) &&
				txn.ExternalReference != nil
		}),
		mock.MatchedBy(func(ref domain.SettlementReference) bool {
			return ref.State == domain.SettlementInitiated
		}),
	).Run(func(args mock.Arguments) { steps = append(steps, "persist") }).Return(nil).Once()
	suite.mockGateway.On("RequestPayment", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(req portssvc.GatewayPaymentRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(250)) && req.PayerMSISDN == "+256772123456"
	})).Run(func(args mock.Arguments) { steps = append(steps, "request") }).Return(nil).Once()
	suite.mockSettlementRepo.On("MarkSettlementPending", ctx, mock.AnythingOfType("string")).Return(nil).Once()

	txn, ref, err := suite.service.Initiate(ctx, suite.ownerID, suite.initiateRequest())

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.Require().NotNil(ref)
	suite.Equal([]string{"persist", "request"}, steps)
	suite.Equal(domain.SettlementPending, ref.State)
	suite.Equal(domain.StatusPending, txn.Status)
	suite.Require().NotNil(txn.ExternalReference)
	suite.Equal(ref.ExternalReferenceID, *txn.ExternalReference)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
	suite.mockGateway.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestInitiate_CurrencyMismatch_Fails() {
	ctx := context.Background()
	req := suite.initiateRequest()
	req.CurrencyCode = "KES"

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ownerID, suite.account.AccountID).Return(&suite.account, nil).Once()

	_, _, err := suite.service.Initiate(ctx, suite.ownerID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "InitiateSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestInitiate_UnregisteredPayer_Fails() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ownerID, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockGateway.On("ValidateAccountHolder", ctx, "+256772123456").Return(false, nil).Once()

	_, _, err := suite.service.Initiate(ctx, suite.ownerID, suite.initiateRequest())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "InitiateSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestInitiate_ValidationUnavailable_Proceeds() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ownerID, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockGateway.On("ValidateAccountHolder", ctx, "+256772123456").Return(false, errors.New("momo: 503")).Once()
	suite.mockSettlementRepo.On("InitiateSettlement", ctx, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("domain.SettlementReference")).Return(nil).Once()
	suite.mockGateway.On("RequestPayment", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("services.GatewayPaymentRequest")).Return(nil).Once()
	suite.mockSettlementRepo.On("MarkSettlementPending", ctx, mock.AnythingOfType("string")).Return(nil).Once()

	_, ref, err := suite.service.Initiate(ctx, suite.ownerID, suite.initiateRequest())

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementPending, ref.State)
}

func (suite *SettlementServiceTestSuite) TestInitiate_GatewayRejection_FailsSettlement() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ownerID, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockGateway.On("ValidateAccountHolder", ctx, "+256772123456").Return(true, nil).Once()
	suite.mockSettlementRepo.On("InitiateSettlement", ctx, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("domain.SettlementReference")).Return(nil).Once()
	suite.mockGateway.On("RequestPayment", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("services.GatewayPaymentRequest")).
		Return(&portssvc.GatewayRejectionError{StatusCode: 409, Code: "PAYER_LIMIT_REACHED", Message: "limit reached"}).Once()
	suite.mockSettlementRepo.On("MarkSettlementPending", ctx, mock.AnythingOfType("string")).Return(nil).Once()
	suite.mockSettlementRepo.On("FailSettlement", ctx, mock.AnythingOfType("domain.SettlementReference"), "PAYER_LIMIT_REACHED", mock.AnythingOfType("time.Time")).Return(nil).Once()

	txn, ref, err := suite.service.Initiate(ctx, suite.ownerID, suite.initiateRequest())

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementFailed, ref.State)
	suite.Equal("PAYER_LIMIT_REACHED", ref.ReasonCode)
	suite.Equal(domain.StatusFailed, txn.Status)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestInitiate_TimeoutLeavesSettlementPending() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ownerID, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockGateway.On("ValidateAccountHolder", ctx, "+256772123456").Return(true, nil).Once()
	suite.mockSettlementRepo.On("InitiateSettlement", ctx, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("domain.SettlementReference")).Return(nil).Once()
	suite.mockGateway.On("RequestPayment", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("services.GatewayPaymentRequest")).
		Return(context.DeadlineExceeded).Once()
	suite.mockSettlementRepo.On("MarkSettlementPending", ctx, mock.AnythingOfType("string")).Return(nil).Once()

	txn, ref, err := suite.service.Initiate(ctx, suite.ownerID, suite.initiateRequest())

	// Ambiguous outcome: the settlement stays PENDING for the callback or the
	// poller, and the caller still gets the created transaction back.
	suite.Require().NoError(err)
	suite.Equal(domain.SettlementPending, ref.State)
	suite.Equal(domain.StatusPending, txn.Status)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "FailSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "CompleteSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- HandleCallback ---

func (suite *SettlementServiceTestSuite) TestHandleCallback_SuccessfulCompletesSettlement() {
	ctx := context.Background()
	ref, txn := suite.pendingReference()

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, ref.ExternalReferenceID).Return(ref, nil).Once()
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockSettlementRepo.On("CompleteSettlement", ctx,
		mock.AnythingOfType("domain.SettlementReference"),
		mock.AnythingOfType("domain.Transaction"),
		decimalEq(txn.Amount),
		mock.AnythingOfType("time.Time"),
	).Return(nil).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: ref.ExternalReferenceID,
		Status:              "SUCCESSFUL",
	})

	suite.Require().NoError(err)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestHandleCallback_DuplicateIsNoOp() {
	ctx := context.Background()
	ref, _ := suite.pendingReference()
	ref.State = domain.SettlementCompleted

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, ref.ExternalReferenceID).Return(ref, nil).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: ref.ExternalReferenceID,
		Status:              "SUCCESSFUL",
	})

	suite.Require().NoError(err)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "CompleteSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindTransactionByID", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestHandleCallback_LostRaceIsNoOp() {
	ctx := context.Background()
	ref, txn := suite.pendingReference()

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, ref.ExternalReferenceID).Return(ref, nil).Once()
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	// The poller resolved it between our read and the guarded update.
	suite.mockSettlementRepo.On("CompleteSettlement", ctx,
		mock.AnythingOfType("domain.SettlementReference"),
		mock.AnythingOfType("domain.Transaction"),
		decimalEq(txn.Amount),
		mock.AnythingOfType("time.Time"),
	).Return(apperrors.ErrSettlementResolved).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: ref.ExternalReferenceID,
		Status:              "SUCCESSFUL",
	})

	suite.Require().NoError(err)
}

func (suite *SettlementServiceTestSuite) TestHandleCallback_UnknownReference_ReconciliationError() {
	ctx := context.Background()
	unknown := uuid.NewString()

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, unknown).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: unknown,
		Status:              "SUCCESSFUL",
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrReconciliation)
}

func (suite *SettlementServiceTestSuite) TestHandleCallback_FailedStatusFailsWithReason() {
	ctx := context.Background()
	ref, _ := suite.pendingReference()

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, ref.ExternalReferenceID).Return(ref, nil).Once()
	suite.mockSettlementRepo.On("FailSettlement", ctx, mock.AnythingOfType("domain.SettlementReference"), "PAYER_NOT_FOUND", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: ref.ExternalReferenceID,
		Status:              "failed",
		ReasonCode:          "PAYER_NOT_FOUND",
	})

	suite.Require().NoError(err)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestHandleCallback_InitiatedReferenceAdvancesFirst() {
	ctx := context.Background()
	ref, txn := suite.pendingReference()
	ref.State = domain.SettlementInitiated

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, ref.ExternalReferenceID).Return(ref, nil).Once()
	suite.mockSettlementRepo.On("MarkSettlementPending", ctx, ref.TransactionID).Return(nil).Once()
	suite.mockLedgerRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockSettlementRepo.On("CompleteSettlement", ctx,
		mock.AnythingOfType("domain.SettlementReference"),
		mock.AnythingOfType("domain.Transaction"),
		decimalEq(txn.Amount),
		mock.AnythingOfType("time.Time"),
	).Return(nil).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: ref.ExternalReferenceID,
		Status:              "SUCCESSFUL",
	})

	suite.Require().NoError(err)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestHandleCallback_AmbiguousStatusQueriesGateway() {
	ctx := context.Background()
	ref, _ := suite.pendingReference()

	suite.mockSettlementRepo.On("FindReferenceByExternalID", ctx, ref.ExternalReferenceID).Return(ref, nil).Once()
	suite.mockGateway.On("GetStatus", ctx, ref.ExternalReferenceID).
		Return(&portssvc.GatewayStatusResult{Status: portssvc.GatewayStatusPending}, nil).Once()

	err := suite.service.HandleCallback(ctx, dto.SettlementCallbackRequest{
		ExternalReferenceID: ref.ExternalReferenceID,
		Status:              "ONGOING",
	})

	suite.Require().NoError(err)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "CompleteSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "FailSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- PollPending ---

func (suite *SettlementServiceTestSuite) TestPollPending_ResolvesStaleSettlements() {
	ctx := context.Background()
	completing, completingTxn := suite.pendingReference()
	stillPending, _ := suite.pendingReference()

	suite.mockSettlementRepo.On("ListStalePendingReferences", ctx, mock.AnythingOfType("time.Time"), 10).
		Return([]domain.SettlementReference{*completing, *stillPending}, nil).Once()
	suite.mockSettlementRepo.On("TouchLastPolled", ctx, completing.TransactionID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockSettlementRepo.On("TouchLastPolled", ctx, stillPending.TransactionID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	suite.mockGateway.On("GetStatus", ctx, completing.ExternalReferenceID).
		Return(&portssvc.GatewayStatusResult{Status: portssvc.GatewayStatusSuccessful}, nil).Once()
	suite.mockGateway.On("GetStatus", ctx, stillPending.ExternalReferenceID).
		Return(&portssvc.GatewayStatusResult{Status: portssvc.GatewayStatusPending}, nil).Once()

	suite.mockLedgerRepo.On("FindTransactionByID", ctx, completing.TransactionID).Return(completingTxn, nil).Once()
	suite.mockSettlementRepo.On("CompleteSettlement", ctx,
		mock.AnythingOfType("domain.SettlementReference"),
		mock.AnythingOfType("domain.Transaction"),
		decimalEq(completingTxn.Amount),
		mock.AnythingOfType("time.Time"),
	).Return(nil).Once()

	resolved, err := suite.service.PollPending(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, resolved)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
	suite.mockGateway.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestPollPending_AdvancesOrphanedInitiated() {
	ctx := context.Background()
	orphan, _ := suite.pendingReference()
	orphan.State = domain.SettlementInitiated

	suite.mockSettlementRepo.On("ListStalePendingReferences", ctx, mock.AnythingOfType("time.Time"), 10).
		Return([]domain.SettlementReference{*orphan}, nil).Once()
	suite.mockSettlementRepo.On("TouchLastPolled", ctx, orphan.TransactionID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockSettlementRepo.On("MarkSettlementPending", ctx, orphan.TransactionID).Return(nil).Once()
	suite.mockGateway.On("GetStatus", ctx, orphan.ExternalReferenceID).
		Return(&portssvc.GatewayStatusResult{Status: portssvc.GatewayStatusFailed, ReasonCode: "EXPIRED"}, nil).Once()
	suite.mockSettlementRepo.On("FailSettlement", ctx, mock.AnythingOfType("domain.SettlementReference"), "EXPIRED", mock.AnythingOfType("time.Time")).Return(nil).Once()

	resolved, err := suite.service.PollPending(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, resolved)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestPollPending_ReferenceUnknownToProviderFails() {
	ctx := context.Background()
	lost, _ := suite.pendingReference()

	suite.mockSettlementRepo.On("ListStalePendingReferences", ctx, mock.AnythingOfType("time.Time"), 10).
		Return([]domain.SettlementReference{*lost}, nil).Once()
	suite.mockSettlementRepo.On("TouchLastPolled", ctx, lost.TransactionID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	// The original request never reached the provider: no money moved.
	suite.mockGateway.On("GetStatus", ctx, lost.ExternalReferenceID).
		Return(nil, &portssvc.GatewayRejectionError{StatusCode: 404, Code: "RESOURCE_NOT_FOUND"}).Once()
	suite.mockSettlementRepo.On("FailSettlement", ctx, mock.AnythingOfType("domain.SettlementReference"), "NOT_FOUND_AT_PROVIDER", mock.AnythingOfType("time.Time")).Return(nil).Once()

	resolved, err := suite.service.PollPending(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, resolved)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestPollPending_GatewayErrorSkipsReference() {
	ctx := context.Background()
	unreachable, _ := suite.pendingReference()

	suite.mockSettlementRepo.On("ListStalePendingReferences", ctx, mock.AnythingOfType("time.Time"), 10).
		Return([]domain.SettlementReference{*unreachable}, nil).Once()
	suite.mockSettlementRepo.On("TouchLastPolled", ctx, unreachable.TransactionID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockGateway.On("GetStatus", ctx, unreachable.ExternalReferenceID).Return(nil, errors.New("momo: 503")).Once()

	resolved, err := suite.service.PollPending(ctx)

	suite.Require().NoError(err)
	suite.Equal(0, resolved)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "FailSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- GetSettlement ---

func (suite *SettlementServiceTestSuite) TestGetSettlement_ScopedToOwner() {
	ctx := context.Background()
	ref, txn := suite.pendingReference()

	suite.mockLedgerRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Twice()
	suite.mockSettlementRepo.On("FindReferenceByTransactionID", ctx, txn.TransactionID).Return(ref, nil).Once()

	gotTxn, gotRef, err := suite.service.GetSettlement(ctx, suite.ownerID, txn.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(txn.TransactionID, gotTxn.TransactionID)
	suite.Equal(ref.ExternalReferenceID, gotRef.ExternalReferenceID)

	_, _, err = suite.service.GetSettlement(ctx, "someone-else", txn.TransactionID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
