// Package audit exposes the audit trail and forwards entries to the
// compliance sink.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"go.uber.org/zap"
)

// EntryResponse represents an audit entry in API responses
type EntryResponse struct {
	Sequence   int64           `json:"sequence"`
	ID         uuid.UUID       `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ToEntryResponse converts a domain Entry to a response DTO
func ToEntryResponse(e audit.Entry) EntryResponse {
	return EntryResponse{
		Sequence:   e.Sequence,
		ID:         e.ID,
		Actor:      e.Actor,
		Action:     string(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Before:     e.Before,
		After:      e.After,
		Timestamp:  e.Timestamp,
	}
}

// AuditService reads the audit trail.
type AuditService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(scope appshared.TransactionScope, logger *zap.Logger) *AuditService {
	return &AuditService{scope: scope, logger: logger}
}

// ListForEntity returns an entity's entries in the order they were written.
func (s *AuditService) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]EntryResponse, error) {
	var out []EntryResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		entries, err := repos.AuditEntries().ListForEntity(ctx, entityType, entityID)
		if err != nil {
			return err
		}
		out = make([]EntryResponse, len(entries))
		for i, e := range entries {
			out[i] = ToEntryResponse(e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountAttemptedModifications counts rejected changes to a locked record.
func (s *AuditService) CountAttemptedModifications(ctx context.Context, entityType string, entityID uuid.UUID) (int64, error) {
	var n int64
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		n, err = repos.AuditEntries().CountForEntity(ctx, entityType, entityID, audit.ActionAttemptedModification)
		return err
	})
	return n, err
}
