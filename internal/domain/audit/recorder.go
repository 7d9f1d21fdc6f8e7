package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Recorder writes entries to a transaction-bound repository and queues an
// EntryRecordedEvent for the compliance sink. Because both go through the
// caller's transaction, sink delivery order follows commit order.
type Recorder struct {
	repo   Repository
	events shared.EventRecorder
}

// NewRecorder creates a Recorder. events may be nil.
func NewRecorder(repo Repository, events shared.EventRecorder) *Recorder {
	return &Recorder{repo: repo, events: events}
}

// Record appends one entry.
func (r *Recorder) Record(ctx context.Context, actor string, action Action, entityType string, entityID uuid.UUID, before, after any) (*Entry, error) {
	entry, err := NewEntry(actor, action, entityType, entityID, before, after)
	if err != nil {
		return nil, err
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	if r.events != nil {
		if err := r.events.Record(ctx, NewEntryRecordedEvent(entry)); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// RecordAttempt documents a rejected change to a locked record. The stored
// and rejected values are kept side by side.
func (r *Recorder) RecordAttempt(ctx context.Context, actor, entityType string, entityID uuid.UUID, stored, rejected any) (*Entry, error) {
	return r.Record(ctx, actor, ActionAttemptedModification, entityType, entityID, stored, rejected)
}
