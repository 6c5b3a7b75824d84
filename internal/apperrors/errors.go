package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrInsufficientFunds indicates a debit would take an account balance below zero.
// Business rule violation; never retried.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrAccountInactive indicates the target account has been deactivated.
var ErrAccountInactive = errors.New("account is inactive")

// ErrConflict indicates transient storage contention (serialization failure,
// deadlock). The whole atomic unit is safe to retry.
var ErrConflict = errors.New("storage conflict")

// ErrSettlementResolved indicates a settlement reference is already in a
// terminal state. Reconciliation treats this as an idempotent no-op.
var ErrSettlementResolved = errors.New("settlement already resolved")

// ErrReconciliation indicates a callback or poll result referenced an unknown
// settlement. Logged, never surfaced to an end user.
var ErrReconciliation = errors.New("reconciliation error")

// AppError wraps a lower-level failure with an HTTP-like code and message.
// Repositories use it for infrastructure failures that are not sentinel-worthy.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(..., ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
