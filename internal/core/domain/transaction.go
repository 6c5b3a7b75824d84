package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionType classifies the business operation behind a ledger entry.
type TransactionType string

const (
	Deposit            TransactionType = "DEPOSIT"
	Withdrawal         TransactionType = "WITHDRAWAL"
	Transfer           TransactionType = "TRANSFER"
	InvestmentPurchase TransactionType = "INVESTMENT"
	Refund             TransactionType = "REFUND"
	ExternalSettlement TransactionType = "EXTERNAL_SETTLEMENT"
)

// TransactionStatus is the lifecycle state of a ledger entry.
// COMPLETED and FAILED are terminal; only status and metadata may change
// after creation, never amount, type or account.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry once it reaches a terminal status.
// Every committed balance change is paired with exactly one transaction row
// written in the same atomic unit.
type Transaction struct {
	TransactionID     string            `json:"transactionID"` // Primary Key (UUID)
	OwnerID           string            `json:"ownerID"`
	AccountID         string            `json:"accountID"`
	Type              TransactionType   `json:"type"`
	Amount            decimal.Decimal   `json:"amount"` // Always positive; direction comes from Type
	CurrencyCode      string            `json:"currencyCode"`
	Status            TransactionStatus `json:"status"`
	Description       string            `json:"description"`
	ExternalReference *string           `json:"externalReference,omitempty"` // Nullable gateway reference
	RunningBalance    decimal.Decimal   `json:"runningBalance"`              // Balance after this entry committed
	AuditFields
}

// TransactionDraft carries the caller-supplied fields of a ledger entry.
// The ledger service fills in ids, status and audit fields.
type TransactionDraft struct {
	Type              TransactionType
	Description       string
	ExternalReference *string
}
