package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pesavault/pesavault/internal/apperrors"
	"github.com/pesavault/pesavault/internal/core/domain"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/pesavault/pesavault/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SettlementService ---
type MockSettlementService struct {
	mock.Mock
}

var _ portssvc.SettlementSvcFacade = (*MockSettlementService)(nil)

func (m *MockSettlementService) Initiate(ctx context.Context, ownerID string, req dto.InitiateSettlementRequest) (*domain.Transaction, *domain.SettlementReference, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Get(1).(*domain.SettlementReference), args.Error(2)
}

func (m *MockSettlementService) GetSettlement(ctx context.Context, ownerID string, transactionID string) (*domain.Transaction, *domain.SettlementReference, error) {
	args := m.Called(ctx, ownerID, transactionID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Get(1).(*domain.SettlementReference), args.Error(2)
}

func (m *MockSettlementService) HandleCallback(ctx context.Context, req dto.SettlementCallbackRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSettlementService) PollPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Test Suite Setup ---
type SettlementHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockSettlementService
	jwtSecret   string
}

func (suite *SettlementHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "pesavault-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *SettlementHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	registerCustomValidators()

	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.mockService = new(MockSettlementService)

	registerSettlementCallbackRoute(suite.router, suite.mockService)
	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret))
	registerSettlementRoutes(v1, suite.mockService)
}

func (suite *SettlementHandlerTestSuite) postJSON(url string, body any, token string) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *SettlementHandlerTestSuite) TestInitiate_Success() {
	ownerID := uuid.NewString()
	accountID := uuid.NewString()
	externalRef := uuid.NewString()

	reqBody := dto.InitiateSettlementRequest{
		AccountID:    accountID,
		Amount:       decimal.NewFromInt(250),
		CurrencyCode: "UGX",
		PayerMSISDN:  "+256772123456",
		Note:         "Wallet top-up",
	}

	txn := &domain.Transaction{
		TransactionID:     uuid.NewString(),
		OwnerID:           ownerID,
		AccountID:         accountID,
		Type:              domain.ExternalSettlement,
		Amount:            decimal.NewFromInt(250),
		CurrencyCode:      "UGX",
		Status:            domain.StatusPending,
		ExternalReference: &externalRef,
	}
	ref := &domain.SettlementReference{
		TransactionID:       txn.TransactionID,
		ExternalReferenceID: externalRef,
		State:               domain.SettlementPending,
	}

	suite.mockService.On("Initiate", mock.Anything, ownerID, mock.MatchedBy(func(r dto.InitiateSettlementRequest) bool {
		return r.AccountID == accountID && r.Amount.Equal(decimal.NewFromInt(250))
	})).Return(txn, ref, nil).Once()

	w := suite.postJSON("/api/v1/settlements", reqBody, suite.generateTestToken(ownerID))

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.SettlementResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(txn.TransactionID, resp.TransactionID)
	suite.Equal(externalRef, resp.ExternalReferenceID)
	suite.Equal(domain.SettlementPending, resp.State)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestInitiate_WithoutToken_Unauthorized() {
	w := suite.postJSON("/api/v1/settlements", dto.InitiateSettlementRequest{
		AccountID:    uuid.NewString(),
		Amount:       decimal.NewFromInt(10),
		CurrencyCode: "UGX",
		PayerMSISDN:  "+256772123456",
	}, "")

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "Initiate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementHandlerTestSuite) TestInitiate_BadMSISDN_BadRequest() {
	w := suite.postJSON("/api/v1/settlements", dto.InitiateSettlementRequest{
		AccountID:    uuid.NewString(),
		Amount:       decimal.NewFromInt(10),
		CurrencyCode: "UGX",
		PayerMSISDN:  "not-a-number",
	}, suite.generateTestToken(uuid.NewString()))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "Initiate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementHandlerTestSuite) TestGetSettlement_NotFound() {
	ownerID := uuid.NewString()
	transactionID := uuid.NewString()

	suite.mockService.On("GetSettlement", mock.Anything, ownerID, transactionID).
		Return(nil, nil, apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/settlements/%s", transactionID), nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(ownerID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *SettlementHandlerTestSuite) TestCallback_Accepted() {
	callback := dto.SettlementCallbackRequest{
		ExternalReferenceID: uuid.NewString(),
		Status:              "SUCCESSFUL",
	}

	suite.mockService.On("HandleCallback", mock.Anything, callback).Return(nil).Once()

	w := suite.postJSON("/api/v1/settlements/callback", callback, "")

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("accepted", resp["status"])
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestCallback_UnknownReference_NotFound() {
	callback := dto.SettlementCallbackRequest{
		ExternalReferenceID: uuid.NewString(),
		Status:              "SUCCESSFUL",
	}

	suite.mockService.On("HandleCallback", mock.Anything, callback).
		Return(fmt.Errorf("%w: no settlement for external reference %s", apperrors.ErrReconciliation, callback.ExternalReferenceID)).Once()

	w := suite.postJSON("/api/v1/settlements/callback", callback, "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *SettlementHandlerTestSuite) TestCallback_MissingStatus_BadRequest() {
	w := suite.postJSON("/api/v1/settlements/callback", map[string]string{
		"externalReferenceId": uuid.NewString(),
	}, "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "HandleCallback", mock.Anything, mock.Anything)
}

func TestSettlementHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementHandlerTestSuite))
}
