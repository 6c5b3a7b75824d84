package domain_test

import (
	"testing"

	"github.com/pesavault/pesavault/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSavingsGoalDeriveStatus(t *testing.T) {
	goal := domain.SavingsGoal{
		TargetAmount:  decimal.NewFromInt(100),
		CurrentAmount: decimal.NewFromInt(40),
	}
	assert.Equal(t, domain.GoalActive, goal.DeriveStatus())

	goal.CurrentAmount = decimal.NewFromInt(100)
	assert.Equal(t, domain.GoalCompleted, goal.DeriveStatus())

	// Over-funding is allowed and still derives COMPLETED.
	goal.CurrentAmount = decimal.NewFromInt(150)
	assert.Equal(t, domain.GoalCompleted, goal.DeriveStatus())
}
