package trade

import (
	"context"

	"github.com/google/uuid"
)

// SaleRepository persists sales with their lines and payments.
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindByIDForUpdate locks the sale header for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	// Save inserts a new sale.
	Save(ctx context.Context, sale *Sale) error
	// SaveWithLock updates the header if the stored version still equals
	// sale.Version, bumps it, and inserts payments not yet stored.
	SaveWithLock(ctx context.Context, sale *Sale) error
}

// ReturnRepository persists sales returns with their lines.
type ReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	Save(ctx context.Context, r *SalesReturn) error
	SaveWithLock(ctx context.Context, r *SalesReturn) error
	// ReturnedQuantities sums line quantities of the sale's returns that
	// were not rejected, keyed by sale line id.
	ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error)
}

// PurchaseOrderRepository persists purchase orders with their lines.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	Save(ctx context.Context, o *PurchaseOrder) error
	SaveWithLock(ctx context.Context, o *PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountOpenByWarehouse counts orders still expecting goods at the warehouse.
	CountOpenByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error)
}

// GoodsReceiptRepository stores goods received notes.
type GoodsReceiptRepository interface {
	Save(ctx context.Context, g *GoodsReceipt) error
	ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]GoodsReceipt, error)
}
