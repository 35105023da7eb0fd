package ntat

import (
	"crypto/rand"
	"fmt"
	"time"
)

// AuditEventType represents the type of audit event
type AuditEventType string

const (
	// Issuance events
	AuditEventQuerySent        AuditEventType = "query_sent"
	AuditEventQueryRejected    AuditEventType = "query_rejected"
	AuditEventTokenIssued      AuditEventType = "token_issued"
	AuditEventTokenFinalized   AuditEventType = "token_finalized"
	AuditEventIssuanceRejected AuditEventType = "issuance_rejected"

	// Redemption events
	AuditEventRedemptionChallenged AuditEventType = "redemption_challenged"
	AuditEventRedemptionAccepted   AuditEventType = "redemption_accepted"
	AuditEventRedemptionRejected   AuditEventType = "redemption_rejected"

	// Configuration events
	AuditEventConfigurationChange AuditEventType = "configuration_change"
	AuditEventInitialization      AuditEventType = "initialization"

	// Error events
	AuditEventValidationFailure AuditEventType = "validation_failure"
	AuditEventSequencingFailure AuditEventType = "sequencing_failure"
)

// AuditEventReason represents why an event occurred
type AuditEventReason string

const (
	ReasonProtocolStep    AuditEventReason = "protocol_step"
	ReasonProofFailure    AuditEventReason = "proof_failure"
	ReasonDoubleSpend     AuditEventReason = "double_spend"
	ReasonMalformed       AuditEventReason = "malformed_message"
	ReasonSequencing      AuditEventReason = "sequencing"
	ReasonStorage         AuditEventReason = "storage"
	ReasonInitialization  AuditEventReason = "initialization"
	ReasonValidationError AuditEventReason = "validation_error"
)

// Role identifies which side of the protocol emitted an event
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// AuditEvent represents a single audit event. Events never carry secrets,
// blinded values or serials.
type AuditEvent struct {
	// Event metadata
	EventID   string           `json:"event_id"`
	Timestamp time.Time        `json:"timestamp"`
	EventType AuditEventType   `json:"event_type"`
	Reason    AuditEventReason `json:"reason"`

	// Context information
	Suite string `json:"suite,omitempty"`
	Role  Role   `json:"role,omitempty"`

	// Success/failure information
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IssuanceEvent contains details about a Query/Issue/Final step
type IssuanceEvent struct {
	AuditEvent

	Duration  time.Duration `json:"duration"`
	BatchSize int           `json:"batch_size,omitempty"`
}

// RedemptionEvent contains details about one redemption round
type RedemptionEvent struct {
	AuditEvent

	Round    int           `json:"round"`
	Duration time.Duration `json:"duration"`
}

// ValidationFailureEvent contains details about validation failures
type ValidationFailureEvent struct {
	AuditEvent

	// Validation-specific fields
	ValidationType string                 `json:"validation_type"` // "params", "configuration", "key"
	FailureReason  string                 `json:"failure_reason"`
	InputValues    map[string]interface{} `json:"input_values,omitempty"`
}

// AuditEventHandler defines the interface for handling audit events
// Applications implement this interface to record events according to their needs
type AuditEventHandler interface {
	// OnIssuance is called for query, issue and final steps
	OnIssuance(event *IssuanceEvent)

	// OnRedemption is called for each redemption round
	OnRedemption(event *RedemptionEvent)

	// OnValidationFailure is called when validation fails
	OnValidationFailure(event *ValidationFailureEvent)

	// OnConfigurationChange is called when configuration changes
	OnConfigurationChange(event *AuditEvent)

	// OnError is called for general error events
	OnError(event *AuditEvent)
}

// NullAuditHandler is a no-op implementation of AuditEventHandler
// Used when no audit handling is needed
type NullAuditHandler struct{}

func (n *NullAuditHandler) OnIssuance(event *IssuanceEvent)                   {}
func (n *NullAuditHandler) OnRedemption(event *RedemptionEvent)               {}
func (n *NullAuditHandler) OnValidationFailure(event *ValidationFailureEvent) {}
func (n *NullAuditHandler) OnConfigurationChange(event *AuditEvent)           {}
func (n *NullAuditHandler) OnError(event *AuditEvent)                         {}

// AuditEventBuilder helps construct audit events with proper defaults
type AuditEventBuilder struct {
	event *AuditEvent
}

// NewAuditEventBuilder creates a new audit event builder
func NewAuditEventBuilder(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return &AuditEventBuilder{
		event: &AuditEvent{
			EventID:   generateEventID(),
			Timestamp: time.Now(),
			EventType: eventType,
			Reason:    reason,
			Success:   true, // Default to success, can be overridden
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithSuite sets the suite name for the event
func (b *AuditEventBuilder) WithSuite(suiteName string) *AuditEventBuilder {
	b.event.Suite = suiteName
	return b
}

// WithRole sets the emitting side
func (b *AuditEventBuilder) WithRole(role Role) *AuditEventBuilder {
	b.event.Role = role
	return b
}

// WithError marks the event as failed and sets error information
func (b *AuditEventBuilder) WithError(err error) *AuditEventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *AuditEventBuilder) WithMetadata(key string, value interface{}) *AuditEventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *AuditEventBuilder) Build() *AuditEvent {
	return b.event
}

// BuildIssuance returns an IssuanceEvent
func (b *AuditEventBuilder) BuildIssuance(duration time.Duration, batchSize int) *IssuanceEvent {
	return &IssuanceEvent{
		AuditEvent: *b.event,
		Duration:   duration,
		BatchSize:  batchSize,
	}
}

// BuildRedemption returns a RedemptionEvent
func (b *AuditEventBuilder) BuildRedemption(round int, duration time.Duration) *RedemptionEvent {
	return &RedemptionEvent{
		AuditEvent: *b.event,
		Round:      round,
		Duration:   duration,
	}
}

// BuildValidationFailure returns a ValidationFailureEvent
func (b *AuditEventBuilder) BuildValidationFailure(validationType, failureReason string, inputValues map[string]interface{}) *ValidationFailureEvent {
	return &ValidationFailureEvent{
		AuditEvent:     *b.event,
		ValidationType: validationType,
		FailureReason:  failureReason,
		InputValues:    inputValues,
	}
}

// generateEventID generates a unique event ID
// Uses a combination of timestamp and random bytes to ensure uniqueness
func generateEventID() string {
	timestamp := time.Now().Format("20060102150405.000000")

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("%s.%d", timestamp, time.Now().UnixNano()%10000)
	}

	return fmt.Sprintf("%s.%x", timestamp, randomBytes)
}
