package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransferRepository implements inventory.TransferRepository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a transfer with its lines
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Transfer, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a transfer and locks its header row
func (r *GormTransferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Transfer, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormTransferRepository) find(q *gorm.DB, id uuid.UUID) (*inventory.Transfer, error) {
	var m models.TransferModel
	if err := q.Preload("Lines", orderedLines).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "transfer "+id.String())
	}
	return m.ToDomain(), nil
}

// Save inserts a new transfer with its lines
func (r *GormTransferRepository) Save(ctx context.Context, t *inventory.Transfer) error {
	m := models.TransferModelFromDomain(t)
	return translateError(r.db.WithContext(ctx).Create(m).Error, "transfer "+t.TransferNumber)
}

// SaveWithLock updates the header when the stored version matches, bumps
// the version and rewrites the lines
func (r *GormTransferRepository) SaveWithLock(ctx context.Context, t *inventory.Transfer) error {
	db := r.db.WithContext(ctx)
	m := models.TransferModelFromDomain(t)
	m.Version = t.Version + 1

	n, err := updateVersioned(db, &models.TransferModel{}, t.ID, t.Version, m, "Lines")
	if err != nil {
		return err
	}
	if n == 0 {
		return optimisticLockError("transfer", t.ID, t.Version)
	}

	keep := make([]uuid.UUID, len(m.Lines))
	for i, l := range m.Lines {
		keep[i] = l.ID
	}
	if err := syncLines(db, m.Lines, "transfer_id", t.ID, keep); err != nil {
		return err
	}
	t.IncrementVersion()
	return nil
}

// Delete removes a transfer and its lines
func (r *GormTransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("transfer_id = ?", id).Delete(&models.TransferLineModel{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.TransferModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountOpenByWarehouse counts open transfers from or to a warehouse
func (r *GormTransferRepository) CountOpenByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TransferModel{}).
		Where("status IN ?", inventory.OpenTransferStatuses).
		Where("from_warehouse_id = ? OR to_warehouse_id = ?", warehouseID, warehouseID).
		Count(&n).Error
	return n, err
}

var _ inventory.TransferRepository = (*GormTransferRepository)(nil)
