package event

import (
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/retailops/backend/internal/domain/trade"
)

// RegisterAllEvents teaches the serializer every event type the engine
// writes to the outbox. Entries of an unregistered type fail every delivery
// attempt until they go dead.
func RegisterAllEvents(serializer *EventSerializer) {
	// Inventory ledger
	serializer.Register(inventory.EventTypeStockLevelChanged, &inventory.StockLevelChangedEvent{})
	serializer.Register(inventory.EventTypeStockBelowThreshold, &inventory.StockBelowThresholdEvent{})

	// Transfers
	serializer.Register(inventory.EventTypeTransferRequested, &inventory.TransferRequestedEvent{})
	serializer.Register(inventory.EventTypeTransferReceived, &inventory.TransferReceivedEvent{})
	serializer.Register(inventory.EventTypeTransferCancelled, &inventory.TransferCancelledEvent{})

	// Sales and returns
	serializer.Register(trade.EventTypeSaleCreated, &trade.SaleCreatedEvent{})
	serializer.Register(trade.EventTypeSaleCompleted, &trade.SaleCompletedEvent{})
	serializer.Register(trade.EventTypeSaleCancelled, &trade.SaleCancelledEvent{})
	serializer.Register(trade.EventTypeSaleRefunded, &trade.SaleRefundedEvent{})
	serializer.Register(trade.EventTypeReturnProcessed, &trade.ReturnProcessedEvent{})

	// Purchasing
	serializer.Register(trade.EventTypeGoodsReceived, &trade.GoodsReceivedEvent{})

	serializer.Register(partner.EventTypeStoreCreditChanged, &partner.StoreCreditChangedEvent{})
	serializer.Register(audit.EventTypeEntryRecorded, &audit.EntryRecordedEvent{})
}
