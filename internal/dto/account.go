package dto

import (
	"time"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a new account.
type CreateAccountRequest struct {
	Name         string             `json:"name" binding:"required"`
	Kind         domain.AccountKind `json:"kind" binding:"required,oneof=SAVINGS CHECKING INVESTMENT"`
	CurrencyCode string             `json:"currencyCode" binding:"required,len=3"`
}

// MoveMoneyRequest is the body for direct deposits and withdrawals.
type MoveMoneyRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID    string             `json:"accountID"`
	Name         string             `json:"name"`
	Kind         domain.AccountKind `json:"kind"`
	CurrencyCode string             `json:"currencyCode"`
	Balance      decimal.Decimal    `json:"balance"`
	IsActive     bool               `json:"isActive"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:    acc.AccountID,
		Name:         acc.Name,
		Kind:         acc.Kind,
		CurrencyCode: acc.CurrencyCode,
		Balance:      acc.Balance,
		IsActive:     acc.IsActive,
		CreatedAt:    acc.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accs []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accs))
	for i := range accs {
		responses[i] = ToAccountResponse(&accs[i])
	}
	return responses
}
