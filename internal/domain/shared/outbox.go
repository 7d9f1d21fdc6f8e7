package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is where an entry sits in the delivery lifecycle:
//
//	PENDING -> PROCESSING -> SENT
//	              |
//	              +-> FAILED -> PROCESSING ... -> DEAD -> PENDING (requeue)
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

// RetryPolicy bounds redelivery of a failing entry.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Minute}
}

// Delay is how long to wait after the given number of failures. It doubles
// from BaseDelay and never exceeds MaxDelay.
func (p RetryPolicy) Delay(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < failures; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// OutboxEntry is one serialized domain event waiting for, or done with,
// delivery. MaxRetries is copied from the policy at write time so a later
// policy change does not revive entries that already gave up.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps a serialized event. A non-positive maxAttempts uses
// the default policy.
func NewOutboxEntry(event DomainEvent, payload []byte, maxAttempts int) *OutboxEntry {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    maxAttempts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Due reports whether a relay may claim the entry at now.
func (e *OutboxEntry) Due(now time.Time) bool {
	switch e.Status {
	case OutboxStatusPending:
		return true
	case OutboxStatusFailed:
		return e.NextRetryAt == nil || !e.NextRetryAt.After(now)
	}
	return false
}

// Delivered closes the entry after every handler accepted the event.
func (e *OutboxEntry) Delivered(now time.Time) {
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.NextRetryAt = nil
	e.UpdatedAt = now
}

// Failed counts one failed attempt. The entry goes dead once MaxRetries
// attempts have failed, otherwise it waits policy.Delay before the next.
func (e *OutboxEntry) Failed(cause error, policy RetryPolicy, now time.Time) {
	e.RetryCount++
	e.LastError = cause.Error()
	e.UpdatedAt = now
	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	next := now.Add(policy.Delay(e.RetryCount))
	e.Status = OutboxStatusFailed
	e.NextRetryAt = &next
}

// Requeue gives a dead entry a fresh attempt budget.
func (e *OutboxEntry) Requeue(now time.Time) error {
	if e.Status != OutboxStatusDead {
		return fmt.Errorf("%w: outbox entry %s is %s, not %s",
			ErrInvalidTransition, e.ID, e.Status, OutboxStatusDead)
	}
	e.Status = OutboxStatusPending
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.UpdatedAt = now
	return nil
}

// OutboxStore persists outbox entries. Append runs inside the business
// transaction; everything else is called by the relay and the operator
// endpoints.
type OutboxStore interface {
	Append(ctx context.Context, entries ...*OutboxEntry) error
	// ClaimDue moves up to limit due entries to PROCESSING, oldest first,
	// and returns them. Concurrent relays never receive the same entry.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*OutboxEntry, error)
	// ReleaseStale returns PROCESSING entries untouched since before to
	// PENDING. It recovers claims held by a relay that stopped mid-batch.
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)
	Save(ctx context.Context, entry *OutboxEntry) error
	Get(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	ListDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
	// PurgeSent deletes SENT entries processed before the cutoff.
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}
