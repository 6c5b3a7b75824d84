package domain

import (
	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
)

// SavingsGoal is a named bucket funded from one of the owner's accounts.
// CurrentAmount is mutated only inside the same atomic unit as the paired
// account debit/credit. Over-funding past TargetAmount is allowed; COMPLETED
// is derived, not enforced.
type SavingsGoal struct {
	GoalID        string          `json:"goalID"` // Primary Key (UUID)
	OwnerID       string          `json:"ownerID"`
	AccountID     string          `json:"accountID"` // Funding account
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Status        GoalStatus      `json:"status"`
	AuditFields
}

// DeriveStatus returns the status implied by the funded amount.
func (g SavingsGoal) DeriveStatus() GoalStatus {
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		return GoalCompleted
	}
	return GoalActive
}
