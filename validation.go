package ntat

import (
	"fmt"
	"time"
)

// SecurityLevel represents the assessed strength of a configuration
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// ValidationResult contains the result of parameter validation
type ValidationResult struct {
	Valid           bool          `json:"valid"`
	SecurityLevel   SecurityLevel `json:"security_level"`
	Warnings        []string      `json:"warnings,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

func newValidationResult(level SecurityLevel) *ValidationResult {
	return &ValidationResult{
		Valid:           true,
		SecurityLevel:   level,
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// merge folds other into r, keeping the lower security level
func (r *ValidationResult) merge(other *ValidationResult) {
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Recommendations = append(r.Recommendations, other.Recommendations...)
	r.SecurityLevel = minSecurityLevel(r.SecurityLevel, other.SecurityLevel)
}

// Err converts a failed result into ErrInvalidParams carrying every error
// message, or nil when the result is valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return ErrInvalidParams.WithContext("errors", r.Errors).WithDetails("%d validation errors", len(r.Errors))
}

// Report sends a failed result to handler as a validation failure event
func (r *ValidationResult) Report(handler AuditEventHandler, suite, validationType string) {
	if r.Valid || handler == nil {
		return
	}
	event := NewAuditEventBuilder(AuditEventValidationFailure, ReasonValidationError).
		WithSuite(suite).
		WithError(r.Err()).
		WithMetadata("reported_at", time.Now().UTC().Format(time.RFC3339)).
		BuildValidationFailure(validationType, fmt.Sprintf("%v", r.Errors), map[string]interface{}{
			"security_level": string(r.SecurityLevel),
			"warnings":       len(r.Warnings),
		})
	handler.OnValidationFailure(event)
}

func minSecurityLevel(level1, level2 SecurityLevel) SecurityLevel {
	rank := map[SecurityLevel]int{
		SecurityLevelLow:    0,
		SecurityLevelMedium: 1,
		SecurityLevelHigh:   2,
	}
	if rank[level1] < rank[level2] {
		return level1
	}
	return level2
}
