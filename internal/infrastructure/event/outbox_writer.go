package event

import (
	"context"
	"fmt"

	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxWriter turns domain events into outbox rows on the caller's
// transaction, so an event exists exactly when the change that raised it
// was committed.
type OutboxWriter struct {
	serializer  *EventSerializer
	maxAttempts int
}

// NewOutboxWriter stamps new entries with policy.MaxAttempts.
func NewOutboxWriter(serializer *EventSerializer, policy shared.RetryPolicy) *OutboxWriter {
	return &OutboxWriter{serializer: serializer, maxAttempts: policy.MaxAttempts}
}

// Write appends one entry per event through tx. An event type the
// serializer does not know fails the whole write.
func (w *OutboxWriter) Write(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	entries := make([]*shared.OutboxEntry, len(events))
	for i, ev := range events {
		payload, err := w.serializer.Serialize(ev)
		if err != nil {
			return fmt.Errorf("record %s for %s %s: %w", ev.EventType(), ev.AggregateType(), ev.AggregateID(), err)
		}
		entries[i] = shared.NewOutboxEntry(ev, payload, w.maxAttempts)
	}
	return NewGormOutboxStore(tx).Append(ctx, entries...)
}

// RecorderFor binds the writer to tx. It matches persistence.RecorderFactory.
func (w *OutboxWriter) RecorderFor(tx *gorm.DB) shared.EventRecorder {
	return txRecorder{w: w, tx: tx}
}

type txRecorder struct {
	w  *OutboxWriter
	tx *gorm.DB
}

func (r txRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	return r.w.Write(ctx, r.tx, events...)
}
