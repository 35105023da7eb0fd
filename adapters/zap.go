// Package adapters connects ntat audit events to external sinks.
package adapters

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/canopy-network/canopy/lib/ntat"
)

// ZapAuditHandler writes every audit event to a zap logger and keeps a
// per-type count. Failed events are logged at warn, the rest at info.
type ZapAuditHandler struct {
	logger *zap.Logger

	mu     sync.Mutex
	counts map[ntat.AuditEventType]int
}

var _ ntat.AuditEventHandler = (*ZapAuditHandler)(nil)

// NewZapAuditHandler returns a handler logging to logger under the "audit" name
func NewZapAuditHandler(logger *zap.Logger) *ZapAuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAuditHandler{
		logger: logger.Named("audit"),
		counts: make(map[ntat.AuditEventType]int),
	}
}

func (h *ZapAuditHandler) record(event *ntat.AuditEvent, extra ...zap.Field) {
	h.mu.Lock()
	h.counts[event.EventType]++
	h.mu.Unlock()

	fields := []zap.Field{
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.EventType)),
		zap.String("reason", string(event.Reason)),
		zap.String("suite", event.Suite),
		zap.Bool("success", event.Success),
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", string(event.Role)))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}
	fields = append(fields, extra...)

	level := zapcore.InfoLevel
	if !event.Success {
		level = zapcore.WarnLevel
	}
	if ce := h.logger.Check(level, "audit event"); ce != nil {
		ce.Write(fields...)
	}
}

func (h *ZapAuditHandler) OnIssuance(event *ntat.IssuanceEvent) {
	h.record(&event.AuditEvent, zap.Duration("duration", event.Duration), zap.Int("batch_size", event.BatchSize))
}

func (h *ZapAuditHandler) OnRedemption(event *ntat.RedemptionEvent) {
	h.record(&event.AuditEvent, zap.Int("round", event.Round), zap.Duration("duration", event.Duration))
}

func (h *ZapAuditHandler) OnValidationFailure(event *ntat.ValidationFailureEvent) {
	h.record(&event.AuditEvent,
		zap.String("validation_type", event.ValidationType),
		zap.String("failure_reason", event.FailureReason))
}

func (h *ZapAuditHandler) OnConfigurationChange(event *ntat.AuditEvent) {
	h.record(event)
}

func (h *ZapAuditHandler) OnError(event *ntat.AuditEvent) {
	h.record(event)
}

// Count returns how many events of type t were seen
func (h *ZapAuditHandler) Count(t ntat.AuditEventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[t]
}
