package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/audit"
	"gorm.io/gorm"
)

// ErrAuditEntryImmutable is returned by the GORM hooks when code tries to
// change or remove a stored audit entry.
var ErrAuditEntryImmutable = errors.New("audit entries are append-only")

// AuditEntryModel is the persistence model for one audit log entry.
// Sequence is assigned by the database and gives the global order.
type AuditEntryModel struct {
	Sequence   int64        `gorm:"primaryKey;autoIncrement"`
	ID         uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex"`
	Actor      string       `gorm:"type:varchar(100);not null"`
	Action     audit.Action `gorm:"type:varchar(40);not null;index:idx_audit_entity_action,priority:3"`
	EntityType string       `gorm:"type:varchar(40);not null;index:idx_audit_entity_action,priority:1"`
	EntityID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_audit_entity_action,priority:2"`
	Before     *string      `gorm:"type:jsonb"`
	After      *string      `gorm:"type:jsonb"`
	Timestamp  time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// BeforeUpdate refuses updates.
func (m *AuditEntryModel) BeforeUpdate(*gorm.DB) error {
	return ErrAuditEntryImmutable
}

// BeforeDelete refuses deletes.
func (m *AuditEntryModel) BeforeDelete(*gorm.DB) error {
	return ErrAuditEntryImmutable
}

// ToDomain converts the persistence model to a domain audit Entry.
func (m *AuditEntryModel) ToDomain() audit.Entry {
	return audit.Entry{
		Sequence:   m.Sequence,
		ID:         m.ID,
		Actor:      m.Actor,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Before:     rawJSON(m.Before),
		After:      rawJSON(m.After),
		Timestamp:  m.Timestamp,
	}
}

// AuditEntryModelFromDomain creates a new persistence model from a domain Entry.
// Sequence is left zero so the database assigns it.
func AuditEntryModelFromDomain(e *audit.Entry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:         e.ID,
		Actor:      e.Actor,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Before:     jsonText(e.Before),
		After:      jsonText(e.After),
		Timestamp:  e.Timestamp,
	}
}

func jsonText(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func rawJSON(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}
