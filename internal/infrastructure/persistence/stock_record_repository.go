package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var stockKeyColumns = []clause.Column{
	{Name: "product_id"},
	{Name: "variant_id"},
	{Name: "warehouse_id"},
	{Name: "location_id"},
	{Name: "bin_id"},
}

// GormStockRecordRepository implements inventory.StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

func whereKey(db *gorm.DB, key inventory.StockKey) *gorm.DB {
	return db.Where("product_id = ? AND variant_id = ? AND warehouse_id = ? AND location_id = ? AND bin_id = ?",
		key.ProductID, key.VariantID, key.WarehouseID, key.LocationID, key.BinID)
}

// FindByKey returns the record stored at key
func (r *GormStockRecordRepository) FindByKey(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	return r.find(whereKey(r.db.WithContext(ctx), key), key)
}

// FindByKeyForUpdate returns the record stored at key and locks its row
func (r *GormStockRecordRepository) FindByKeyForUpdate(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	return r.find(whereKey(forUpdate(r.db.WithContext(ctx)), key), key)
}

func (r *GormStockRecordRepository) find(q *gorm.DB, key inventory.StockKey) (*inventory.StockRecord, error) {
	var m models.StockRecordModel
	if err := q.First(&m).Error; err != nil {
		return nil, translateError(err, "stock record "+key.String())
	}
	return m.ToDomain(), nil
}

// GetOrCreate inserts a zero-baseline row unless one already exists and
// returns the stored row. ON CONFLICT DO NOTHING lets racing callers
// converge on the same record.
func (r *GormStockRecordRepository) GetOrCreate(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	rec, err := inventory.NewStockRecord(key)
	if err != nil {
		return nil, err
	}
	m := models.StockRecordModelFromDomain(rec)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: stockKeyColumns, DoNothing: true}).
		Create(m).Error; err != nil {
		return nil, translateError(err, "stock record "+key.String())
	}
	return r.FindByKey(ctx, key)
}

// SaveWithLock writes quantities when the stored version matches and bumps it
func (r *GormStockRecordRepository) SaveWithLock(ctx context.Context, record *inventory.StockRecord) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.StockRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]any{
			"qty_on_hand":     record.QtyOnHand,
			"qty_reserved":    record.QtyReserved,
			"min_stock_level": record.MinStockLevel,
			"last_updated":    record.LastUpdated,
			"version":         record.Version + 1,
			"updated_at":      now,
		})
	if result.Error != nil {
		return translateError(result.Error, "stock record "+record.Key.String())
	}
	if result.RowsAffected == 0 {
		return optimisticLockError("stock record", record.ID, record.Version)
	}
	record.IncrementVersion()
	record.UpdatedAt = now
	return nil
}

// FindCandidates lists records of a product variant holding at least
// minOnHand units, optionally limited to the given warehouses
func (r *GormStockRecordRepository) FindCandidates(
	ctx context.Context,
	productID, variantID uuid.UUID,
	minOnHand int64,
	warehouses []uuid.UUID,
) ([]inventory.StockRecord, error) {
	q := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ? AND qty_on_hand >= ?", productID, variantID, minOnHand)
	if len(warehouses) > 0 {
		q = q.Where("warehouse_id IN ?", warehouses)
	}

	var ms []models.StockRecordModel
	if err := q.Order("warehouse_id, location_id, bin_id").Find(&ms).Error; err != nil {
		return nil, err
	}
	return stockRecordsToDomain(ms), nil
}

// FindByWarehouse lists all records held at a warehouse
func (r *GormStockRecordRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventory.StockRecord, error) {
	var ms []models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("product_id, variant_id, location_id, bin_id").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return stockRecordsToDomain(ms), nil
}

// DeleteByWarehouse removes every record of a warehouse
func (r *GormStockRecordRepository) DeleteByWarehouse(ctx context.Context, warehouseID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Delete(&models.StockRecordModel{}).Error
}

func stockRecordsToDomain(ms []models.StockRecordModel) []inventory.StockRecord {
	out := make([]inventory.StockRecord, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out
}

var _ inventory.StockRecordRepository = (*GormStockRecordRepository)(nil)
