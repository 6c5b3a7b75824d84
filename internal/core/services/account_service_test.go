package services_test

import (
	"context"
	"testing"

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
type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockLedgerSvc   *MockLedgerService
	service         portssvc.AccountSvcFacade
	account         domain.Account
	ownerID         string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.service = services.NewAccountService(suite.mockAccountRepo, suite.mockLedgerSvc)

	suite.ownerID = uuid.NewString()
	suite.account = domain.Account{
		AccountID:    uuid.NewString(),
		OwnerID:      suite.ownerID,
		Name:         "Daily Checking",
		Kind:         domain.Checking,
		CurrencyCode: "TZS",
		Balance:      decimal.NewFromInt(300),
		IsActive:     true,
	}
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_StartsActiveWithZeroBalance() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:         "Holiday Fund",
		Kind:         domain.Savings,
		CurrencyCode: "TZS",
	}

	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.OwnerID == suite.ownerID &&
			a.Name == "Holiday Fund" &&
			a.Balance.IsZero() &&
			a.IsActive
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, suite.ownerID, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.NotEmpty(account.AccountID)
	suite.True(account.Balance.IsZero())
	suite.True(account.IsActive)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_OtherOwner_NotFound() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()

	_, err := suite.service.GetAccountByID(ctx, "someone-else", suite.account.AccountID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockAccountRepo.On("DeactivateAccount", ctx, suite.account.AccountID, suite.ownerID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.DeactivateAccount(ctx, suite.ownerID, suite.account.AccountID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestDeposit_DelegatesPositiveDelta() {
	ctx := context.Background()
	amount := decimal.NewFromInt(120)

	suite.mockLedgerSvc.On("ApplyLedgerEffect", ctx, suite.ownerID, suite.account.AccountID, decimalEq(amount), mock.MatchedBy(func(d domain.TransactionDraft) bool {
		return d.Type == domain.Deposit && d.Description == "Paycheck"
	})).Return(&domain.Transaction{TransactionID: uuid.NewString()}, nil).Once()

	txn, err := suite.service.Deposit(ctx, suite.ownerID, suite.account.AccountID, dto.MoveMoneyRequest{
		Amount:      amount,
		Description: "Paycheck",
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestWithdraw_DelegatesNegativeDelta() {
	ctx := context.Background()
	amount := decimal.NewFromInt(80)

	suite.mockLedgerSvc.On("ApplyLedgerEffect", ctx, suite.ownerID, suite.account.AccountID, decimalEq(amount.Neg()), mock.MatchedBy(func(d domain.TransactionDraft) bool {
		return d.Type == domain.Withdrawal
	})).Return(&domain.Transaction{TransactionID: uuid.NewString()}, nil).Once()

	_, err := suite.service.Withdraw(ctx, suite.ownerID, suite.account.AccountID, dto.MoveMoneyRequest{Amount: amount})

	suite.Require().NoError(err)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestWithdraw_OverdraftSurfaces() {
	ctx := context.Background()
	amount := decimal.NewFromInt(9999)

	suite.mockLedgerSvc.On("ApplyLedgerEffect", ctx, suite.ownerID, suite.account.AccountID, decimalEq(amount.Neg()), mock.AnythingOfType("domain.TransactionDraft")).
		Return(nil, apperrors.ErrInsufficientFunds).Once()

	_, err := suite.service.Withdraw(ctx, suite.ownerID, suite.account.AccountID, dto.MoveMoneyRequest{Amount: amount})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *AccountServiceTestSuite) TestDeposit_NonPositiveAmount_Fails() {
	ctx := context.Background()

	_, err := suite.service.Deposit(ctx, suite.ownerID, suite.account.AccountID, dto.MoveMoneyRequest{Amount: decimal.Zero})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "ApplyLedgerEffect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
