package domain

import (
	"github.com/shopspring/decimal"
)

// AccountKind classifies an account owned by a user.
type AccountKind string

const (
	Savings    AccountKind = "SAVINGS"
	Checking   AccountKind = "CHECKING"
	Investment AccountKind = "INVESTMENT"
)

// Account is a user-owned balance holder. The balance is mutated only through
// the ledger service's atomic unit and is never negative after a commit.
type Account struct {
	AccountID    string          `json:"accountID"` // Primary Key (UUID)
	OwnerID      string          `json:"ownerID"`   // FK -> users.user_id (NON-NULL)
	Name         string          `json:"name"`
	Kind         AccountKind     `json:"kind"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	IsActive     bool            `json:"isActive"` // Soft delete flag; accounts are never hard-deleted
	AuditFields
}
