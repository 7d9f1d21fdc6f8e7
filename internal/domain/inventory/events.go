package inventory

import (
	"github.com/retailops/backend/internal/domain/shared"
)

// Aggregate type constants for inventory events
const (
	AggregateTypeStockRecord = "StockRecord"
	AggregateTypeTransfer    = "Transfer"
	AggregateTypeWarehouse   = "Warehouse"
)

// Event type constants
const (
	EventTypeStockLevelChanged   = "stock_level_changed"
	EventTypeStockBelowThreshold = "stock_below_threshold"
	EventTypeTransferRequested   = "transfer_requested"
	EventTypeTransferReceived    = "transfer_received"
	EventTypeTransferCancelled   = "transfer_cancelled"
)

// StockLevelChangedEvent carries before/after ledger snapshots for one
// mutation of a StockRecord.
type StockLevelChangedEvent struct {
	shared.BaseDomainEvent
	Key       StockKey      `json:"key"`
	Operation EffectOp      `json:"operation"`
	Quantity  int64         `json:"quantity"`
	Before    StockSnapshot `json:"before"`
	After     StockSnapshot `json:"after"`
}

// NewStockLevelChangedEvent creates a StockLevelChangedEvent
func NewStockLevelChangedEvent(r *StockRecord, op EffectOp, qty int64, before StockSnapshot) *StockLevelChangedEvent {
	return &StockLevelChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLevelChanged, AggregateTypeStockRecord, r.ID),
		Key:             r.Key,
		Operation:       op,
		Quantity:        qty,
		Before:          before,
		After:           r.Snapshot(),
	}
}

// StockBelowThresholdEvent is raised when available stock drops under the
// record's minimum level.
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	Key           StockKey `json:"key"`
	Available     int64    `json:"available"`
	MinStockLevel int64    `json:"min_stock_level"`
}

// NewStockBelowThresholdEvent creates a StockBelowThresholdEvent
func NewStockBelowThresholdEvent(r *StockRecord) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeStockRecord, r.ID),
		Key:             r.Key,
		Available:       r.Available(),
		MinStockLevel:   r.MinStockLevel,
	}
}

// TransferRequestedEvent is raised when a transfer is submitted.
type TransferRequestedEvent struct {
	shared.BaseDomainEvent
	TransferNumber string `json:"transfer_number"`
	From           Place  `json:"from"`
	To             Place  `json:"to"`
	Reserved       bool   `json:"reserved"`
	RequestedBy    string `json:"requested_by"`
}

// NewTransferRequestedEvent creates a TransferRequestedEvent
func NewTransferRequestedEvent(t *Transfer) *TransferRequestedEvent {
	return &TransferRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferRequested, AggregateTypeTransfer, t.ID),
		TransferNumber:  t.TransferNumber,
		From:            t.From,
		To:              t.To,
		Reserved:        t.StockReserved,
		RequestedBy:     t.RequestedBy,
	}
}

// TransferReceivedEvent is raised after stock has moved to the destination.
type TransferReceivedEvent struct {
	shared.BaseDomainEvent
	TransferNumber string         `json:"transfer_number"`
	From           Place          `json:"from"`
	To             Place          `json:"to"`
	Lines          []TransferLine `json:"lines"`
}

// NewTransferReceivedEvent creates a TransferReceivedEvent
func NewTransferReceivedEvent(t *Transfer) *TransferReceivedEvent {
	return &TransferReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferReceived, AggregateTypeTransfer, t.ID),
		TransferNumber:  t.TransferNumber,
		From:            t.From,
		To:              t.To,
		Lines:           t.Lines,
	}
}

// TransferCancelledEvent is raised on rejection or cancellation.
type TransferCancelledEvent struct {
	shared.BaseDomainEvent
	TransferNumber string         `json:"transfer_number"`
	Status         TransferStatus `json:"status"`
	Reason         string         `json:"reason"`
}

// NewTransferCancelledEvent creates a TransferCancelledEvent
func NewTransferCancelledEvent(t *Transfer) *TransferCancelledEvent {
	return &TransferCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCancelled, AggregateTypeTransfer, t.ID),
		TransferNumber:  t.TransferNumber,
		Status:          t.Status,
		Reason:          t.Reason,
	}
}
