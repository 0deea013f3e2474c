package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error categories used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrUnauthorized     = new(ErrCodeUnauthorized, "unauthorized")
	ErrConfiguration    = new(ErrCodeConfiguration, "configuration error")
	ErrProvider         = new(ErrCodeProvider, "upstream provider error")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")
	ErrRateLimited      = new(ErrCodeRateLimited, "too many requests")
)

// Number lifecycle failures. Each one is also marked with its category
// (see categoryOf) so callers can match on either.
var (
	ErrLockAcquisitionFailed  = new(ErrCodeLockAcquisitionFailed, "advisory lock acquisition failed")
	ErrNoNumbersAvailable     = new(ErrCodeNoNumbersAvailable, "no phone numbers available")
	ErrProviderPurchaseFailed = new(ErrCodeProviderPurchaseFailed, "phone number purchase failed")
	ErrLedgerWriteFailed      = new(ErrCodeLedgerWriteFailed, "number binding write failed")
	ErrProviderReleaseFailed  = new(ErrCodeProviderReleaseFailed, "phone number release failed")
	ErrLedgerUpdateFailed     = new(ErrCodeLedgerUpdateFailed, "number binding update failed")
)

var (
	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:         http.StatusNotFound,
		ErrAlreadyExists:    http.StatusConflict,
		ErrValidation:       http.StatusBadRequest,
		ErrInvalidOperation: http.StatusBadRequest,
		ErrPermissionDenied: http.StatusForbidden,
		ErrUnauthorized:     http.StatusUnauthorized,
		ErrConfiguration:    http.StatusInternalServerError,
		ErrProvider:         http.StatusBadGateway,
		ErrHTTPClient:       http.StatusInternalServerError,
		ErrDatabase:         http.StatusInternalServerError,
		ErrSystem:           http.StatusInternalServerError,
		ErrRateLimited:      http.StatusTooManyRequests,
	}

	categoryOf = map[error]error{
		ErrLockAcquisitionFailed:  ErrDatabase,
		ErrNoNumbersAvailable:     ErrProvider,
		ErrProviderPurchaseFailed: ErrProvider,
		ErrLedgerWriteFailed:      ErrDatabase,
		ErrProviderReleaseFailed:  ErrProvider,
		ErrLedgerUpdateFailed:     ErrDatabase,
	}
)

const (
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeConfiguration    = "configuration_error"
	ErrCodeProvider         = "provider_error"
	ErrCodeDatabase         = "database_error"
	ErrCodeRateLimited      = "rate_limited"

	ErrCodeLockAcquisitionFailed  = "lock_acquisition_failed"
	ErrCodeNoNumbersAvailable     = "no_numbers_available"
	ErrCodeProviderPurchaseFailed = "provider_purchase_failed"
	ErrCodeLedgerWriteFailed      = "ledger_write_failed"
	ErrCodeProviderReleaseFailed  = "provider_release_failed"
	ErrCodeLedgerUpdateFailed     = "ledger_update_failed"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// Code returns the most specific error code found in the chain of err,
// or an empty string when err carries no known mark.
func Code(err error) string {
	for sentinel := range categoryOf {
		if errors.Is(err, sentinel) {
			return sentinel.(*InternalError).Code
		}
	}
	for sentinel := range statusCodeMap {
		if errors.Is(err, sentinel) {
			return sentinel.(*InternalError).Code
		}
	}
	return ""
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsProvider checks if an error came from an upstream provider
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

// IsDatabase checks if an error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
