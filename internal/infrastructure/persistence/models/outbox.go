package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// OutboxEntryModel is one row of outbox_entries. Rows are appended in the
// same transaction as the stock or document change that raised the event.
type OutboxEntryModel struct {
	BaseModel
	EventID       uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string              `gorm:"type:varchar(255);not null"`
	AggregateID   uuid.UUID           `gorm:"type:uuid;not null"`
	AggregateType string              `gorm:"type:varchar(255);not null"`
	Payload       string              `gorm:"type:jsonb;not null"`
	Status        shared.OutboxStatus `gorm:"type:varchar(20);not null;default:PENDING;index:idx_outbox_status_created,priority:1"`
	RetryCount    int                 `gorm:"not null;default:0"`
	MaxRetries    int                 `gorm:"not null;default:5"`
	LastError     string              `gorm:"type:text"`
	NextRetryAt   *time.Time          `gorm:"index:idx_outbox_next_retry"`
	ProcessedAt   *time.Time
}

// TableName returns the table name for GORM
func (OutboxEntryModel) TableName() string {
	return "outbox_entries"
}

// Entry rebuilds the domain value.
func (m *OutboxEntryModel) Entry() *shared.OutboxEntry {
	base := m.Entity()
	return &shared.OutboxEntry{
		ID:            base.ID,
		CreatedAt:     base.CreatedAt,
		UpdatedAt:     base.UpdatedAt,
		EventID:       m.EventID,
		EventType:     m.EventType,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		Payload:       []byte(m.Payload),
		Status:        m.Status,
		RetryCount:    m.RetryCount,
		MaxRetries:    m.MaxRetries,
		LastError:     m.LastError,
		NextRetryAt:   m.NextRetryAt,
		ProcessedAt:   m.ProcessedAt,
	}
}

// NewOutboxEntryModel flattens e into a row.
func NewOutboxEntryModel(e *shared.OutboxEntry) *OutboxEntryModel {
	m := &OutboxEntryModel{
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Payload:       string(e.Payload),
		Status:        e.Status,
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
	}
	m.SetEntity(shared.BaseEntity{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt})
	return m
}

// OutboxEntries converts rows in order.
func OutboxEntries(rows []OutboxEntryModel) []*shared.OutboxEntry {
	out := make([]*shared.OutboxEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Entry())
	}
	return out
}
