package shared

import (
	"context"

	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/partner"
	domainshared "github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the engine's repositories.
// When a function is executed within a transaction scope, all repository operations
// are part of the same database transaction and are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Aggregate boundary notes:
//   - StockRecords is only handed to inventory.Ledger; workflows never write
//     quantities themselves.
//   - AuditEntries is append-only.
//   - Events writes to the outbox; handlers see the events after commit.
type TransactionalRepositories interface {
	StockRecords() inventory.StockRecordRepository
	Locations() inventory.LocationRepository
	Transfers() inventory.TransferRepository
	Sales() trade.SaleRepository
	Returns() trade.ReturnRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	GoodsReceipts() trade.GoodsReceiptRepository
	Customers() partner.CustomerRepository
	AuditEntries() audit.Repository
	Events() domainshared.EventRecorder
}

// NoOpTransactionScope runs the function directly against the given
// repositories without a transaction. Used with mocks in tests.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
