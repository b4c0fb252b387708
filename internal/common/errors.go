package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrUnsupportedFormat means sniffing/deserialization could not determine
	// usable content for one file. Non-fatal to a batch; recorded per file.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyInput means no usable text survived normalization for the whole
	// request. Fatal to that extraction run.
	ErrEmptyInput = errors.New("no usable text in input")

	// ErrSchemaValidation means a structured response violated the contract.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrRateLimited means the reasoning service rejected the call with a
	// too-many-requests signal. Retryable with aggressive backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExhausted means the reasoning service account is out of credit.
	// Never retried.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrTransientService covers timeouts, 5xx and malformed payloads.
	ErrTransientService = errors.New("transient service error")

	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
