package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockRecordRepository persists ledger rows.
type StockRecordRepository interface {
	// FindByKey returns the record at key or shared.ErrNotFound.
	FindByKey(ctx context.Context, key StockKey) (*StockRecord, error)
	// FindByKeyForUpdate is FindByKey with a row lock held until the
	// surrounding transaction ends.
	FindByKeyForUpdate(ctx context.Context, key StockKey) (*StockRecord, error)
	// GetOrCreate inserts a zero-baseline record if none exists and returns
	// the stored record. Concurrent callers converge on one row.
	GetOrCreate(ctx context.Context, key StockKey) (*StockRecord, error)
	// SaveWithLock persists quantities if the stored version still equals
	// record.Version, bumping it; otherwise shared.ErrOptimisticLock.
	SaveWithLock(ctx context.Context, record *StockRecord) error
	// FindCandidates lists records for a product variant with on_hand >= minOnHand.
	// An empty warehouses slice means all warehouses.
	FindCandidates(ctx context.Context, productID, variantID uuid.UUID, minOnHand int64, warehouses []uuid.UUID) ([]StockRecord, error)
	// FindByWarehouse lists every record held at a warehouse.
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]StockRecord, error)
	// DeleteByWarehouse removes all records of a warehouse.
	DeleteByWarehouse(ctx context.Context, warehouseID uuid.UUID) error
}

// LocationRepository persists the warehouse → location → bin hierarchy.
type LocationRepository interface {
	FindWarehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindWarehouseByCode(ctx context.Context, code string) (*Warehouse, error)
	ListWarehouses(ctx context.Context, ids []uuid.UUID) ([]Warehouse, error)
	SaveWarehouse(ctx context.Context, w *Warehouse) error
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error

	FindLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	FindLocationByCode(ctx context.Context, warehouseID uuid.UUID, code string) (*Location, error)
	SaveLocation(ctx context.Context, l *Location) error

	FindBin(ctx context.Context, id uuid.UUID) (*Bin, error)
	SaveBin(ctx context.Context, b *Bin) error
}

// TransferRepository persists transfers with their lines.
type TransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	// FindByIDForUpdate locks the transfer header for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transfer, error)
	Save(ctx context.Context, t *Transfer) error
	SaveWithLock(ctx context.Context, t *Transfer) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountOpenByWarehouse counts transfers in an open status whose source
	// or destination is the warehouse.
	CountOpenByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error)
}
