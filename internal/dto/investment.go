package dto

import (
	"time"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvestmentRequest defines the data needed to purchase an investment.
type CreateInvestmentRequest struct {
	AccountID string           `json:"accountID" binding:"required,uuid"`
	Type      string           `json:"type" binding:"required"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
	Risk      domain.RiskLevel `json:"risk" binding:"required,oneof=LOW MEDIUM HIGH"`
}

// RecordReturnRequest sets the realized return on an active investment.
type RecordReturnRequest struct {
	ReturnAmount decimal.Decimal `json:"returnAmount" binding:"required"`
}

// InvestmentResponse defines the data returned for an investment position.
type InvestmentResponse struct {
	InvestmentID string                  `json:"investmentID"`
	AccountID    string                  `json:"accountID"`
	Type         string                  `json:"type"`
	Amount       decimal.Decimal         `json:"amount"`
	Risk         domain.RiskLevel        `json:"risk"`
	Status       domain.InvestmentStatus `json:"status"`
	ReturnAmount *decimal.Decimal        `json:"returnAmount,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// ToInvestmentResponse converts a domain.InvestmentPosition to its DTO.
func ToInvestmentResponse(inv *domain.InvestmentPosition) InvestmentResponse {
	return InvestmentResponse{
		InvestmentID: inv.InvestmentID,
		AccountID:    inv.AccountID,
		Type:         inv.Type,
		Amount:       inv.Amount,
		Risk:         inv.Risk,
		Status:       inv.Status,
		ReturnAmount: inv.ReturnAmount,
		CreatedAt:    inv.CreatedAt,
	}
}

// ToInvestmentResponses converts a slice of domain positions.
func ToInvestmentResponses(invs []domain.InvestmentPosition) []InvestmentResponse {
	responses := make([]InvestmentResponse, len(invs))
	for i := range invs {
		responses[i] = ToInvestmentResponse(&invs[i])
	}
	return responses
}
