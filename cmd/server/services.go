package main

import (
	auditapp "github.com/retailops/backend/internal/application/audit"
	inventoryapp "github.com/retailops/backend/internal/application/inventory"
	appshared "github.com/retailops/backend/internal/application/shared"
	tradeapp "github.com/retailops/backend/internal/application/trade"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// services holds every application service over one transaction scope.
// All ledgers share the observer, and sales and transfers follow the
// configured fulfillment ordering and reservation policy.
type services struct {
	Stock     *inventoryapp.StockService
	Transfers *inventoryapp.TransferService
	Sales     *tradeapp.SaleService
	Returns   *tradeapp.ReturnService
	Purchases *tradeapp.PurchaseService
	Customers *tradeapp.CustomerService
	Audit     *auditapp.AuditService
}

func newServices(
	scope appshared.TransactionScope,
	cfg config.InventoryConfig,
	comparator inventory.WarehouseComparator,
	observer inventory.LedgerObserver,
	log *zap.Logger,
) *services {
	ledger := inventory.WithObserver(observer)
	inventoryOpts := []inventoryapp.Option{
		inventoryapp.WithLedgerOptions(ledger),
		inventoryapp.WithComparator(comparator),
		inventoryapp.WithAutoReserveTransfers(cfg.AutoReserveTransfers),
		inventoryapp.WithDefaultMinStockLevel(cfg.DefaultMinStockLevel),
	}
	tradeOpts := []tradeapp.Option{
		tradeapp.WithLedgerOptions(ledger),
		tradeapp.WithComparator(comparator),
	}
	return &services{
		Stock:     inventoryapp.NewStockService(scope, log.Named("stock"), inventoryOpts...),
		Transfers: inventoryapp.NewTransferService(scope, log.Named("transfer"), inventoryOpts...),
		Sales:     tradeapp.NewSaleService(scope, log.Named("sale"), tradeOpts...),
		Returns:   tradeapp.NewReturnService(scope, log.Named("return"), tradeOpts...),
		Purchases: tradeapp.NewPurchaseService(scope, log.Named("purchase"), tradeOpts...),
		Customers: tradeapp.NewCustomerService(scope, log.Named("customer")),
		Audit:     auditapp.NewAuditService(scope, log.Named("audit")),
	}
}
