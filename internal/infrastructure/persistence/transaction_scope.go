package persistence

import (
	"context"

	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// RecorderFactory builds the event recorder bound to one transaction.
type RecorderFactory func(tx *gorm.DB) shared.EventRecorder

// GormTransactionScope implements TransactionScope using GORM transactions.
// Repository writes and recorded events commit or roll back together.
type GormTransactionScope struct {
	db       *gorm.DB
	recorder RecorderFactory
}

// NewGormTransactionScope creates a new GormTransactionScope. A nil recorder
// discards events.
func NewGormTransactionScope(db *gorm.DB, recorder RecorderFactory) *GormTransactionScope {
	if recorder == nil {
		recorder = func(*gorm.DB) shared.EventRecorder { return discardRecorder{} }
	}
	return &GormTransactionScope{db: db, recorder: recorder}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, events: s.recorder(tx)})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	events shared.EventRecorder
}

func (r *gormTransactionalRepositories) StockRecords() inventory.StockRecordRepository {
	return NewGormStockRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) Locations() inventory.LocationRepository {
	return NewGormLocationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Transfers() inventory.TransferRepository {
	return NewGormTransferRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Returns() trade.ReturnRepository {
	return NewGormSalesReturnRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) GoodsReceipts() trade.GoodsReceiptRepository {
	return NewGormGoodsReceiptRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) AuditEntries() audit.Repository {
	return NewGormAuditRepository(r.tx)
}

func (r *gormTransactionalRepositories) Events() shared.EventRecorder {
	return r.events
}

type discardRecorder struct{}

func (discardRecorder) Record(context.Context, ...shared.DomainEvent) error { return nil }

var (
	_ appshared.TransactionScope          = (*GormTransactionScope)(nil)
	_ appshared.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
