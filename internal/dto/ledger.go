package dto

import (
	"time"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	TransactionID     string                   `json:"transactionID"`
	AccountID         string                   `json:"accountID"`
	Type              domain.TransactionType   `json:"type"`
	Amount            decimal.Decimal          `json:"amount"`
	CurrencyCode      string                   `json:"currencyCode"`
	Status            domain.TransactionStatus `json:"status"`
	Description       string                   `json:"description"`
	ExternalReference *string                  `json:"externalReference,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
}

// ListTransactionsParams holds query parameters for transaction listing.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a page of transactions plus the cursor for the
// next page, if any.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:     txn.TransactionID,
		AccountID:         txn.AccountID,
		Type:              txn.Type,
		Amount:            txn.Amount,
		CurrencyCode:      txn.CurrencyCode,
		Status:            txn.Status,
		Description:       txn.Description,
		ExternalReference: txn.ExternalReference,
		CreatedAt:         txn.CreatedAt,
	}
}

// ToListTransactionsResponse builds a page response with its cursor.
func ToListTransactionsResponse(txns []domain.Transaction, nextToken *string) ListTransactionsResponse {
	return ListTransactionsResponse{
		Transactions: ToTransactionResponses(txns),
		NextToken:    nextToken,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
