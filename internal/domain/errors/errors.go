package errors

import (
	"errors"
	"fmt"
)

var (
	// Input errors, rejected before any side effect.
	ErrInvalidRequest = errors.New("invalid request")

	// Lookup errors
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Precondition errors. The conditional write was rejected, no side effect.
	ErrStockNotEnough = errors.New("stock not enough")

	// Post-reservation errors. Stock was reserved and must be compensated.
	ErrAccountVerificationFailed = errors.New("account verification failed")
	ErrDownstreamTriggerError    = errors.New("downstream trigger invocation failed")

	// Collaborator errors
	ErrAccountInvalid  = errors.New("account is not a valid purchaser")
	ErrVerifierTimeout = errors.New("account verifier request timed out")
	ErrTriggerRejected = errors.New("downstream trigger rejected the invocation")

	// Store faults are fatal to the current call, never retried by the saga.
	ErrStoreFault = errors.New("ledger store fault")

	// State machine errors
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Payment invocation errors (worker side)
	ErrProviderRejected = errors.New("payment rejected by provider")
	ErrProviderTimeout  = errors.New("provider request timeout")
)

// Code is a stable machine-readable error code returned by the saga.
type Code string

const (
	CodeInvalidRequest            Code = "InvalidRequest"
	CodeProductNotFound           Code = "ProductNotFound"
	CodeStockNotEnough            Code = "StockNotEnough"
	CodeAccountVerificationFailed Code = "AccountVerificationFailed"
	CodeDownstreamTriggerError    Code = "DownstreamTriggerError"
	CodeStoreError                Code = "StoreError"
)

// Failure codes persisted on transactions that reach the failed state.
const (
	FailureInvalidAccount     = "INVALID_ACCOUNT"
	FailureDownstreamTrigger  = "DOWNSTREAM_TRIGGER_ERROR"
	FailurePaymentInvokeError = "PAYMENT_INVOKE_ERROR"
	FailurePaymentDeclined    = "PAYMENT_DECLINED"
)

// SagaError tags an underlying error with one of the stable saga codes.
type SagaError struct {
	Code    Code
	Message string
	Err     error
}

func (e *SagaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SagaError) Unwrap() error {
	return e.Err
}

// NewSagaError creates a new tagged saga error.
func NewSagaError(code Code, message string, err error) *SagaError {
	return &SagaError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the saga code from an error chain. Errors that were
// never tagged map to CodeStoreError, the fatal catch-all.
func CodeOf(err error) Code {
	var se *SagaError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeStoreError
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
