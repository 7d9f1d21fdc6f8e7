package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a purchase order and locks its header row
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormPurchaseOrderRepository) find(q *gorm.DB, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var m models.PurchaseOrderModel
	if err := q.Preload("Lines", orderedLines).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "purchase order "+id.String())
	}
	return m.ToDomain(), nil
}

// Save inserts a new purchase order with its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, o *trade.PurchaseOrder) error {
	m := models.PurchaseOrderModelFromDomain(o)
	return translateError(r.db.WithContext(ctx).Create(m).Error, "purchase order "+o.OrderNumber)
}

// SaveWithLock updates the order and its lines when the stored version
// matches and bumps the version
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, o *trade.PurchaseOrder) error {
	db := r.db.WithContext(ctx)
	m := models.PurchaseOrderModelFromDomain(o)
	m.Version = o.Version + 1

	n, err := updateVersioned(db, &models.PurchaseOrderModel{}, o.ID, o.Version, m, "Lines")
	if err != nil {
		return err
	}
	if n == 0 {
		return optimisticLockError("purchase order", o.ID, o.Version)
	}

	keep := make([]uuid.UUID, len(m.Lines))
	for i, l := range m.Lines {
		keep[i] = l.ID
	}
	if err := syncLines(db, m.Lines, "purchase_order_id", o.ID, keep); err != nil {
		return err
	}
	o.IncrementVersion()
	return nil
}

// Delete removes a purchase order and its lines
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderLineModel{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.PurchaseOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountOpenByWarehouse counts open purchase orders delivering to a warehouse
func (r *GormPurchaseOrderRepository) CountOpenByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("warehouse_id = ? AND status IN ?", warehouseID, trade.OpenPurchaseOrderStatuses).
		Count(&n).Error
	return n, err
}

// GormGoodsReceiptRepository implements trade.GoodsReceiptRepository using GORM
type GormGoodsReceiptRepository struct {
	db *gorm.DB
}

// NewGormGoodsReceiptRepository creates a new GormGoodsReceiptRepository
func NewGormGoodsReceiptRepository(db *gorm.DB) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{db: db}
}

// Save inserts a goods receipt with its lines
func (r *GormGoodsReceiptRepository) Save(ctx context.Context, g *trade.GoodsReceipt) error {
	m := models.GoodsReceiptModelFromDomain(g)
	return translateError(r.db.WithContext(ctx).Create(m).Error, "goods receipt "+g.ReceiptNumber)
}

// ListByPurchaseOrder lists the receipts of an order, oldest first
func (r *GormGoodsReceiptRepository) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]trade.GoodsReceipt, error) {
	var ms []models.GoodsReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("received_at, receipt_number").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]trade.GoodsReceipt, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out, nil
}

var (
	_ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
	_ trade.GoodsReceiptRepository  = (*GormGoodsReceiptRepository)(nil)
)
