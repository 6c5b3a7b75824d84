package dto

import (
	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InitiateSettlementRequest starts an externally settled mobile-money payment
// that credits the destination account once the gateway confirms it.
type InitiateSettlementRequest struct {
	AccountID    string          `json:"accountID" binding:"required,uuid"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	PayerMSISDN  string          `json:"payerMSISDN" binding:"required,msisdn"`
	Note         string          `json:"note"`
}

// SettlementCallbackRequest is the payload the gateway posts to the callback
// endpoint when a payment resolves.
type SettlementCallbackRequest struct {
	ExternalReferenceID string `json:"externalReferenceId" binding:"required"`
	Status              string `json:"status" binding:"required"`
	ReasonCode          string `json:"reasonCode"`
}

// SettlementResponse describes an external settlement and its current state.
type SettlementResponse struct {
	TransactionID       string                   `json:"transactionID"`
	ExternalReferenceID string                   `json:"externalReferenceID"`
	State               domain.SettlementState   `json:"state"`
	Status              domain.TransactionStatus `json:"status"`
	Amount              decimal.Decimal          `json:"amount"`
	CurrencyCode        string                   `json:"currencyCode"`
	ReasonCode          string                   `json:"reasonCode,omitempty"`
}

// ToSettlementResponse combines the transaction and its reference row.
func ToSettlementResponse(txn *domain.Transaction, ref *domain.SettlementReference) SettlementResponse {
	return SettlementResponse{
		TransactionID:       txn.TransactionID,
		ExternalReferenceID: ref.ExternalReferenceID,
		State:               ref.State,
		Status:              txn.Status,
		Amount:              txn.Amount,
		CurrencyCode:        txn.CurrencyCode,
		ReasonCode:          ref.ReasonCode,
	}
}
