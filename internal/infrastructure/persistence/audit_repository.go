package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM. It only ever
// inserts; the model's hooks reject updates and deletes.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append stores the entry and copies the assigned sequence back
func (r *GormAuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	m := models.AuditEntryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, "audit entry "+entry.ID.String())
	}
	entry.Sequence = m.Sequence
	return nil
}

// ListForEntity lists an entity's entries in sequence order
func (r *GormAuditRepository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]audit.Entry, error) {
	var ms []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("sequence").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Entry, len(ms))
	for i := range ms {
		out[i] = ms[i].ToDomain()
	}
	return out, nil
}

// CountForEntity counts an entity's entries. An empty action counts all.
func (r *GormAuditRepository) CountForEntity(ctx context.Context, entityType string, entityID uuid.UUID, action audit.Action) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.AuditEntryModel{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
