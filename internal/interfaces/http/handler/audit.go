package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditapp "github.com/retailops/backend/internal/application/audit"
)

// AuditQueries reads the append-only audit log
type AuditQueries interface {
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]auditapp.EntryResponse, error)
}

// AuditHandler lists audit entries of one entity
type AuditHandler struct {
	audit AuditQueries
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit AuditQueries) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListForEntity handles GET /ops/audit/:entity_type/:id
func (h *AuditHandler) ListForEntity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a UUID")
		return
	}
	entries, err := h.audit.ListForEntity(c.Request.Context(), c.Param("entity_type"), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entries)
}

var _ AuditQueries = (*auditapp.AuditService)(nil)
