package ntat

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a token protocol error
type ErrorCategory string

const (
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryCryptographic ErrorCategory = "cryptographic"
	ErrorCategoryIssuance      ErrorCategory = "issuance"
	ErrorCategoryRedemption    ErrorCategory = "redemption"
	ErrorCategorySequencing    ErrorCategory = "sequencing"
	ErrorCategoryStorage       ErrorCategory = "storage"
	ErrorCategoryInternal      ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"      // Non-critical, operation can continue
	ErrorSeverityMedium   ErrorSeverity = "medium"   // Peer sent something we refuse
	ErrorSeverityHigh     ErrorSeverity = "high"     // Operation should stop
	ErrorSeverityCritical ErrorSeverity = "critical" // Caller contract violated
)

// TokenError represents a structured error in the token library
type TokenError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Cause       error                  `json:"-"` // Original error, not serialized
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *TokenError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *TokenError) Unwrap() error {
	return e.Cause
}

// Is matches any TokenError carrying the same code, so copies made by
// WithContext and WithCause still satisfy errors.Is against the sentinel.
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *TokenError) clone() *TokenError {
	// Copies keep the sentinels immutable across goroutines
	newError := &TokenError{
		Category:    e.Category,
		Severity:    e.Severity,
		Code:        e.Code,
		Message:     e.Message,
		Details:     e.Details,
		Recoverable: e.Recoverable,
		Cause:       e.Cause,
		Context:     make(map[string]interface{}, len(e.Context)+1),
	}
	for k, v := range e.Context {
		newError.Context[k] = v
	}
	return newError
}

// WithContext adds context information to the error
func (e *TokenError) WithContext(key string, value interface{}) *TokenError {
	newError := e.clone()
	newError.Context[key] = value
	return newError
}

// WithCause sets the underlying cause of the error
func (e *TokenError) WithCause(cause error) *TokenError {
	newError := e.clone()
	newError.Cause = cause
	return newError
}

// WithDetails attaches a human readable detail string
func (e *TokenError) WithDetails(format string, args ...interface{}) *TokenError {
	newError := e.clone()
	newError.Details = fmt.Sprintf(format, args...)
	return newError
}

// IsRecoverable returns whether the error is recoverable
func (e *TokenError) IsRecoverable() bool {
	return e.Recoverable
}

// NewTokenError creates a new token error
func NewTokenError(category ErrorCategory, severity ErrorSeverity, code, message string) *TokenError {
	return &TokenError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Context:     make(map[string]interface{}),
		Recoverable: severity != ErrorSeverityCritical,
	}
}

// Protocol rejections. A peer that fails a proof and a peer that replays a
// spent token both see ErrRedemptionRejected and nothing else.
var (
	ErrQueryRejected = NewTokenError(
		ErrorCategoryIssuance, ErrorSeverityMedium, "QUERY_REJECTED",
		"query proof did not verify")

	ErrIssuanceRejected = NewTokenError(
		ErrorCategoryIssuance, ErrorSeverityMedium, "ISSUANCE_REJECTED",
		"issuance proof did not verify")

	ErrRedemptionRejected = NewTokenError(
		ErrorCategoryRedemption, ErrorSeverityMedium, "REDEMPTION_REJECTED",
		"redemption rejected")

	ErrDegenerateSecret = NewTokenError(
		ErrorCategoryCryptographic, ErrorSeverityHigh, "DEGENERATE_SECRET",
		"server key plus issuance scalar is zero")
)

// Caller contract violations
var (
	ErrInvalidState = NewTokenError(
		ErrorCategorySequencing, ErrorSeverityCritical, "INVALID_STATE",
		"protocol step called out of order")

	ErrNotInitialized = NewTokenError(
		ErrorCategoryInternal, ErrorSeverityCritical, "NOT_INITIALIZED",
		"component not properly initialized")
)

// Configuration Errors
var (
	ErrUnsupportedSuite = NewTokenError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "UNSUPPORTED_SUITE",
		"cryptographic suite is invalid or unsupported")

	ErrUnsupportedHash = NewTokenError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "UNSUPPORTED_HASH",
		"transcript hash algorithm is invalid or unsupported")

	ErrPairingUnsupported = NewTokenError(
		ErrorCategoryConfiguration, ErrorSeverityMedium, "PAIRING_UNSUPPORTED",
		"suite has no pairing")

	ErrInvalidParams = NewTokenError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_PARAMS",
		"public parameters are invalid")

	ErrSuiteMismatch = NewTokenError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "SUITE_MISMATCH",
		"value belongs to a different suite")
)

// Validation Errors
var (
	ErrMalformedMessage = NewTokenError(
		ErrorCategoryValidation, ErrorSeverityMedium, "MALFORMED_MESSAGE",
		"protocol message is malformed")

	ErrInvalidKey = NewTokenError(
		ErrorCategoryValidation, ErrorSeverityHigh, "INVALID_KEY",
		"key is invalid")

	ErrKeyOwnershipFailed = NewTokenError(
		ErrorCategoryValidation, ErrorSeverityMedium, "KEY_OWNERSHIP_FAILED",
		"client key ownership proof did not verify")
)

// Cryptographic Errors
var (
	ErrCryptographicOperation = NewTokenError(
		ErrorCategoryCryptographic, ErrorSeverityHigh, "CRYPTOGRAPHIC_OPERATION_FAILED",
		"cryptographic operation failed")

	ErrRandomnessGeneration = NewTokenError(
		ErrorCategoryCryptographic, ErrorSeverityCritical, "RANDOMNESS_GENERATION_FAILED",
		"failed to generate secure randomness")

	ErrHashComputation = NewTokenError(
		ErrorCategoryCryptographic, ErrorSeverityHigh, "HASH_COMPUTATION_FAILED",
		"hash computation failed")
)

// Storage Errors
var (
	ErrSpentSetFailure = NewTokenError(
		ErrorCategoryStorage, ErrorSeverityHigh, "SPENT_SET_FAILURE",
		"double-spend store failed")
)

// WrapError wraps an existing error with token error context
func WrapError(err error, category ErrorCategory, severity ErrorSeverity, code, message string) *TokenError {
	return NewTokenError(category, severity, code, message).WithCause(err)
}

// IsErrorCategory checks if an error belongs to a specific category
func IsErrorCategory(err error, category ErrorCategory) bool {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Category == category
	}
	return false
}

// IsErrorSeverity checks if an error has a specific severity
func IsErrorSeverity(err error, severity ErrorSeverity) bool {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Severity == severity
	}
	return false
}

// IsRecoverableError checks if an error is recoverable
func IsRecoverableError(err error) bool {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.IsRecoverable()
	}
	return true // Plain errors are assumed recoverable
}

// GetErrorContext extracts context from a token error
func GetErrorContext(err error) map[string]interface{} {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Context
	}
	return nil
}
