package audit

import (
	"context"
	"fmt"

	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ComplianceSink receives every committed audit entry.
type ComplianceSink interface {
	Deliver(ctx context.Context, entry audit.Entry) error
}

// ComplianceHandler forwards EntryRecorded events to a ComplianceSink. A sink
// failure is returned so the outbox retries delivery.
type ComplianceHandler struct {
	sink   ComplianceSink
	logger *zap.Logger
}

// NewComplianceHandler creates a ComplianceHandler
func NewComplianceHandler(sink ComplianceSink, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{sink: sink, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ComplianceHandler) EventTypes() []string {
	return []string{audit.EventTypeEntryRecorded}
}

// Handle processes an EntryRecordedEvent
func (h *ComplianceHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*audit.EntryRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			audit.EventTypeEntryRecorded, event.EventType())
	}
	if err := h.sink.Deliver(ctx, e.Entry); err != nil {
		h.logger.Error("compliance sink delivery failed",
			zap.Int64("sequence", e.Entry.Sequence),
			zap.String("entity_type", e.Entry.EntityType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*ComplianceHandler)(nil)

// LoggingComplianceSink writes entries to the log.
type LoggingComplianceSink struct {
	logger *zap.Logger
}

// NewLoggingComplianceSink creates a LoggingComplianceSink
func NewLoggingComplianceSink(logger *zap.Logger) *LoggingComplianceSink {
	return &LoggingComplianceSink{logger: logger}
}

// Deliver logs the entry
func (s *LoggingComplianceSink) Deliver(_ context.Context, entry audit.Entry) error {
	s.logger.Info("audit",
		zap.Int64("sequence", entry.Sequence),
		zap.String("actor", entry.Actor),
		zap.String("action", string(entry.Action)),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID.String()),
		zap.Time("timestamp", entry.Timestamp),
	)
	return nil
}
