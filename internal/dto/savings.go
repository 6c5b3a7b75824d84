package dto

import (
	"time"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateGoalRequest defines the data needed to create a savings goal.
type CreateGoalRequest struct {
	Name         string          `json:"name" binding:"required"`
	AccountID    string          `json:"accountID" binding:"required,uuid"`
	TargetAmount decimal.Decimal `json:"targetAmount" binding:"required"`
}

// ContributeRequest is the body for funding a goal from its account.
type ContributeRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// GoalResponse defines the data returned for a savings goal.
type GoalResponse struct {
	GoalID        string            `json:"goalID"`
	AccountID     string            `json:"accountID"`
	Name          string            `json:"name"`
	TargetAmount  decimal.Decimal   `json:"targetAmount"`
	CurrentAmount decimal.Decimal   `json:"currentAmount"`
	Status        domain.GoalStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// ToGoalResponse converts a domain.SavingsGoal to its DTO.
func ToGoalResponse(g *domain.SavingsGoal) GoalResponse {
	return GoalResponse{
		GoalID:        g.GoalID,
		AccountID:     g.AccountID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Status:        g.Status,
		CreatedAt:     g.CreatedAt,
	}
}

// ToGoalResponses converts a slice of domain goals.
func ToGoalResponses(goals []domain.SavingsGoal) []GoalResponse {
	responses := make([]GoalResponse, len(goals))
	for i := range goals {
		responses[i] = ToGoalResponse(&goals[i])
	}
	return responses
}
