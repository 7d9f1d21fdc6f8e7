package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLocationRepository implements inventory.LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindWarehouse finds a warehouse by its ID
func (r *GormLocationRepository) FindWarehouse(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	var m models.WarehouseModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "warehouse "+id.String())
	}
	return m.ToDomain(), nil
}

// FindWarehouseByCode finds a warehouse by its unique code
func (r *GormLocationRepository) FindWarehouseByCode(ctx context.Context, code string) (*inventory.Warehouse, error) {
	var m models.WarehouseModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		return nil, translateError(err, "warehouse "+code)
	}
	return m.ToDomain(), nil
}

// ListWarehouses returns the warehouses with the given IDs, or every
// warehouse when ids is empty
func (r *GormLocationRepository) ListWarehouses(ctx context.Context, ids []uuid.UUID) ([]inventory.Warehouse, error) {
	q := r.db.WithContext(ctx)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var ms []models.WarehouseModel
	if err := q.Order("priority, code").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.Warehouse, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out, nil
}

// SaveWarehouse creates or updates a warehouse
func (r *GormLocationRepository) SaveWarehouse(ctx context.Context, w *inventory.Warehouse) error {
	m := models.WarehouseModelFromDomain(w)
	return translateError(r.db.WithContext(ctx).Save(m).Error, "warehouse "+w.Code)
}

// DeleteWarehouse removes a warehouse together with its locations and bins
func (r *GormLocationRepository) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	locations := db.Model(&models.LocationModel{}).Select("id").Where("warehouse_id = ?", id)
	if err := db.Where("location_id IN (?)", locations).Delete(&models.BinModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("warehouse_id = ?", id).Delete(&models.LocationModel{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.WarehouseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindLocation finds a location by its ID
func (r *GormLocationRepository) FindLocation(ctx context.Context, id uuid.UUID) (*inventory.Location, error) {
	var m models.LocationModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "location "+id.String())
	}
	return m.ToDomain(), nil
}

// FindLocationByCode finds a location by its code within a warehouse
func (r *GormLocationRepository) FindLocationByCode(ctx context.Context, warehouseID uuid.UUID, code string) (*inventory.Location, error) {
	var m models.LocationModel
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND code = ?", warehouseID, code).
		First(&m).Error; err != nil {
		return nil, translateError(err, "location "+code)
	}
	return m.ToDomain(), nil
}

// SaveLocation creates or updates a location
func (r *GormLocationRepository) SaveLocation(ctx context.Context, l *inventory.Location) error {
	m := models.LocationModelFromDomain(l)
	return translateError(r.db.WithContext(ctx).Save(m).Error, "location "+l.Code)
}

// FindBin finds a bin by its ID
func (r *GormLocationRepository) FindBin(ctx context.Context, id uuid.UUID) (*inventory.Bin, error) {
	var m models.BinModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "bin "+id.String())
	}
	return m.ToDomain(), nil
}

// SaveBin creates or updates a bin
func (r *GormLocationRepository) SaveBin(ctx context.Context, b *inventory.Bin) error {
	m := models.BinModelFromDomain(b)
	return translateError(r.db.WithContext(ctx).Save(m).Error, "bin "+b.Code)
}

var _ inventory.LocationRepository = (*GormLocationRepository)(nil)
