package domain

import "time"

// SettlementState is the reconciliation state of an externally settled payment.
// The transaction row carries PENDING/COMPLETED/FAILED for callers; the
// reference row carries the finer-grained state machine below.
type SettlementState string

const (
	SettlementInitiated SettlementState = "INITIATED"
	SettlementPending   SettlementState = "PENDING"
	SettlementCompleted SettlementState = "COMPLETED"
	SettlementFailed    SettlementState = "FAILED"
)

// settlementTransitions is the complete set of allowed state transitions.
// Anything not listed here is rejected.
var settlementTransitions = map[SettlementState][]SettlementState{
	SettlementInitiated: {SettlementPending},
	SettlementPending:   {SettlementCompleted, SettlementFailed},
}

// CanTransition reports whether moving from -> to is an allowed transition.
func (from SettlementState) CanTransition(to SettlementState) bool {
	for _, allowed := range settlementTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state can never change again.
func (s SettlementState) IsTerminal() bool {
	return s == SettlementCompleted || s == SettlementFailed
}

// SettlementReference maps a PENDING EXTERNAL_SETTLEMENT transaction to the
// opaque reference id the gateway knows it by. It is the join key used when a
// callback or poll result arrives. 1:1 with its transaction.
type SettlementReference struct {
	TransactionID       string          `json:"transactionID"`
	ExternalReferenceID string          `json:"externalReferenceID"`
	State               SettlementState `json:"state"`
	ReasonCode          string          `json:"reasonCode,omitempty"` // Provider reason on failure
	AttemptedAt         time.Time       `json:"attemptedAt"`
	LastPolledAt        *time.Time      `json:"lastPolledAt,omitempty"`
}
