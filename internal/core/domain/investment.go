package domain

import (
	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an investment position.
type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "ACTIVE"
	InvestmentCompleted InvestmentStatus = "COMPLETED"
	InvestmentCancelled InvestmentStatus = "CANCELLED"
)

// RiskLevel is the declared risk appetite of an investment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// InvestmentPosition is created by debiting an account; redemption credits
// Amount plus ReturnAmount back in one atomic unit and completes the position.
type InvestmentPosition struct {
	InvestmentID string           `json:"investmentID"` // Primary Key (UUID)
	OwnerID      string           `json:"ownerID"`
	AccountID    string           `json:"accountID"` // Funding account
	Type         string           `json:"type"`      // Product name (e.g. "TREASURY_BOND")
	Amount       decimal.Decimal  `json:"amount"`    // Principal
	Risk         RiskLevel        `json:"risk"`
	Status       InvestmentStatus `json:"status"`
	ReturnAmount *decimal.Decimal `json:"returnAmount,omitempty"` // Nil until realized
	AuditFields
}
