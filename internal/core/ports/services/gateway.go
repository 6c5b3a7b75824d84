package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// GatewayPaymentStatus is the settlement status reported by the provider.
type GatewayPaymentStatus string

const (
	GatewayStatusSuccessful GatewayPaymentStatus = "SUCCESSFUL"
	GatewayStatusFailed     GatewayPaymentStatus = "FAILED"
	GatewayStatusPending    GatewayPaymentStatus = "PENDING"
)

// GatewayPaymentRequest describes an outbound payment request.
type GatewayPaymentRequest struct {
	Amount       decimal.Decimal
	CurrencyCode string
	PayerMSISDN  string
	Note         string
}

// GatewayStatusResult is the provider's answer to a status query.
type GatewayStatusResult struct {
	Status     GatewayPaymentStatus
	ReasonCode string
}

// GatewayRejectionError is a definitive provider rejection: the request was
// received and refused. Anything else (timeouts, transport errors, provider
// 5xx) is ambiguous and must leave the settlement pending.
type GatewayRejectionError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayRejectionError) Error() string {
	return fmt.Sprintf("gateway rejected request (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// SettlementGateway is the port to the external mobile-money provider.
// referenceID is the client-generated correlation id persisted before the
// call; retried calls must reuse it so the provider treats them as one
// attempt.
type SettlementGateway interface {
	RequestPayment(ctx context.Context, referenceID string, req GatewayPaymentRequest) error
	GetStatus(ctx context.Context, referenceID string) (*GatewayStatusResult, error)
	ValidateAccountHolder(ctx context.Context, msisdn string) (bool, error)
}
