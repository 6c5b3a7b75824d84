package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pesavault/pesavault/internal/core/domain"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

// Ensure MockLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) ApplyLedgerEffect(ctx context.Context, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, txn, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactionsByAccountID(ctx context.Context, ownerID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, ownerID, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Transaction), returnedNextToken, args.Error(2)
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

// Ensure MockAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalanceInTx(ctx context.Context, tx pgx.Tx, accountID string, delta decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, accountID, delta, userID, now)
	return args.Error(0)
}

// --- Mock AccountService (as consumed by savings/investment/settlement) ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) CreateAccount(ctx context.Context, ownerID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, ownerID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, ownerID string, accountID string) error {
	args := m.Called(ctx, ownerID, accountID)
	return args.Error(0)
}

func (m *MockAccountService) Deposit(ctx context.Context, ownerID string, accountID string, req dto.MoveMoneyRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockAccountService) Withdraw(ctx context.Context, ownerID string, accountID string, req dto.MoveMoneyRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// --- Mock LedgerService (as consumed by the account service) ---
type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) ApplyLedgerEffect(ctx context.Context, ownerID string, accountID string, delta decimal.Decimal, draft domain.TransactionDraft) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, accountID, delta, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransactionByID(ctx context.Context, ownerID string, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, ownerID string, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, ownerID, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Transaction), returnedNextToken, args.Error(2)
}

// --- Mock SavingsGoalRepository ---
type MockSavingsRepository struct {
	mock.Mock
}

var _ portsrepo.SavingsGoalRepository = (*MockSavingsRepository)(nil)

func (m *MockSavingsRepository) SaveGoal(ctx context.Context, goal domain.SavingsGoal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockSavingsRepository) FindGoalByID(ctx context.Context, goalID string) (*domain.SavingsGoal, error) {
	args := m.Called(ctx, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavingsGoal), args.Error(1)
}

func (m *MockSavingsRepository) ListGoalsByOwner(ctx context.Context, ownerID string) ([]domain.SavingsGoal, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SavingsGoal), args.Error(1)
}

func (m *MockSavingsRepository) SaveContribution(ctx context.Context, goalID string, increment decimal.Decimal, txn domain.Transaction) (*domain.SavingsGoal, error) {
	args := m.Called(ctx, goalID, increment, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavingsGoal), args.Error(1)
}

func (m *MockSavingsRepository) DeleteGoalWithRefund(ctx context.Context, goalID string, refund domain.Transaction) error {
	args := m.Called(ctx, goalID, refund)
	return args.Error(0)
}

// --- Mock InvestmentRepository ---
type MockInvestmentRepository struct {
	mock.Mock
}

var _ portsrepo.InvestmentRepository = (*MockInvestmentRepository)(nil)

func (m *MockInvestmentRepository) SavePurchase(ctx context.Context, inv domain.InvestmentPosition, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, inv, txn, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockInvestmentRepository) SaveRedemption(ctx context.Context, inv domain.InvestmentPosition, txn domain.Transaction, delta decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, inv, txn, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockInvestmentRepository) UpdateReturnAmount(ctx context.Context, investmentID string, returnAmount decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, investmentID, returnAmount, userID, now)
	return args.Error(0)
}

func (m *MockInvestmentRepository) FindInvestmentByID(ctx context.Context, investmentID string) (*domain.InvestmentPosition, error) {
	args := m.Called(ctx, investmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestmentPosition), args.Error(1)
}

func (m *MockInvestmentRepository) ListInvestmentsByOwner(ctx context.Context, ownerID string) ([]domain.InvestmentPosition, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvestmentPosition), args.Error(1)
}

// --- Mock SettlementRepository ---
type MockSettlementRepository struct {
	mock.Mock
}

var _ portsrepo.SettlementRepository = (*MockSettlementRepository)(nil)

func (m *MockSettlementRepository) InitiateSettlement(ctx context.Context, txn domain.Transaction, ref domain.SettlementReference) error {
	args := m.Called(ctx, txn, ref)
	return args.Error(0)
}

func (m *MockSettlementRepository) MarkSettlementPending(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockSettlementRepository) FindReferenceByExternalID(ctx context.Context, externalReferenceID string) (*domain.SettlementReference, error) {
	args := m.Called(ctx, externalReferenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettlementReference), args.Error(1)
}

func (m *MockSettlementRepository) FindReferenceByTransactionID(ctx context.Context, transactionID string) (*domain.SettlementReference, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettlementReference), args.Error(1)
}

func (m *MockSettlementRepository) CompleteSettlement(ctx context.Context, ref domain.SettlementReference, txn domain.Transaction, delta decimal.Decimal, now time.Time) error {
	args := m.Called(ctx, ref, txn, delta, now)
	return args.Error(0)
}

func (m *MockSettlementRepository) FailSettlement(ctx context.Context, ref domain.SettlementReference, reasonCode string, now time.Time) error {
	args := m.Called(ctx, ref, reasonCode, now)
	return args.Error(0)
}

func (m *MockSettlementRepository) ListStalePendingReferences(ctx context.Context, olderThan time.Time, limit int) ([]domain.SettlementReference, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SettlementReference), args.Error(1)
}

func (m *MockSettlementRepository) TouchLastPolled(ctx context.Context, transactionID string, now time.Time) error {
	args := m.Called(ctx, transactionID, now)
	return args.Error(0)
}

// --- Mock SettlementGateway ---
type MockSettlementGateway struct {
	mock.Mock
}

var _ portssvc.SettlementGateway = (*MockSettlementGateway)(nil)

func (m *MockSettlementGateway) RequestPayment(ctx context.Context, referenceID string, req portssvc.GatewayPaymentRequest) error {
	args := m.Called(ctx, referenceID, req)
	return args.Error(0)
}

func (m *MockSettlementGateway) GetStatus(ctx context.Context, referenceID string) (*portssvc.GatewayStatusResult, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayStatusResult), args.Error(1)
}

func (m *MockSettlementGateway) ValidateAccountHolder(ctx context.Context, msisdn string) (bool, error) {
	args := m.Called(ctx, msisdn)
	return args.Bool(0), args.Error(1)
}
