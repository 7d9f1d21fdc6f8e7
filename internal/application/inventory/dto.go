package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
)

// ==================== Stock DTOs ====================

// StockKeyInput names a ledger row. Optional parts may be nil.
type StockKeyInput struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	VariantID   *uuid.UUID `json:"variant_id"`
	WarehouseID uuid.UUID  `json:"warehouse_id" validate:"required"`
	LocationID  *uuid.UUID `json:"location_id"`
	BinID       *uuid.UUID `json:"bin_id"`
}

// Key converts the input to a domain key.
func (in StockKeyInput) Key() inventory.StockKey {
	return inventory.NewStockKey(in.ProductID, in.VariantID, in.WarehouseID, in.LocationID, in.BinID)
}

// ReceiveStockRequest books stock into a place outside any workflow, e.g.
// opening balances.
type ReceiveStockRequest struct {
	StockKeyInput
	Quantity int64  `json:"quantity" validate:"gt=0"`
	Reason   string `json:"reason"`
}

// SetMinStockLevelRequest changes the low-stock threshold of a ledger row.
type SetMinStockLevelRequest struct {
	StockKeyInput
	MinStockLevel int64 `json:"min_stock_level" validate:"gte=0"`
}

// SelectWarehouseRequest asks the fulfillment selector for a place.
type SelectWarehouseRequest struct {
	ProductID           uuid.UUID   `json:"product_id" validate:"required"`
	VariantID           *uuid.UUID  `json:"variant_id"`
	Quantity            int64       `json:"quantity" validate:"gt=0"`
	CustomerLocation    string      `json:"customer_location"`
	PreferredWarehouses []uuid.UUID `json:"preferred_warehouses"`
}

// StockRecordResponse represents a ledger row in API responses
type StockRecordResponse struct {
	ID            uuid.UUID          `json:"id"`
	Key           inventory.StockKey `json:"key"`
	QtyOnHand     int64              `json:"qty_on_hand"`
	QtyReserved   int64              `json:"qty_reserved"`
	QtyAvailable  int64              `json:"qty_available"`
	MinStockLevel int64              `json:"min_stock_level"`
	BelowMinimum  bool               `json:"below_minimum"`
	LastUpdated   time.Time          `json:"last_updated"`
	Version       int                `json:"version"`
}

// ToStockRecordResponse converts a domain StockRecord to a response DTO
func ToStockRecordResponse(r *inventory.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:            r.ID,
		Key:           r.Key,
		QtyOnHand:     r.QtyOnHand,
		QtyReserved:   r.QtyReserved,
		QtyAvailable:  r.Available(),
		MinStockLevel: r.MinStockLevel,
		BelowMinimum:  r.IsBelowThreshold(),
		LastUpdated:   r.LastUpdated,
		Version:       r.Version,
	}
}

// ==================== Location DTOs ====================

// CreateWarehouseRequest represents a request to create a warehouse
type CreateWarehouseRequest struct {
	Code     string `json:"code" validate:"required,max=50"`
	Name     string `json:"name" validate:"required,max=200"`
	Priority int    `json:"priority" validate:"gte=0"`
}

// CreateLocationRequest represents a request to create a location
type CreateLocationRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
	Code        string    `json:"code" validate:"required,max=50"`
	Name        string    `json:"name" validate:"max=200"`
}

// CreateBinRequest represents a request to create a bin
type CreateBinRequest struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Code       string    `json:"code" validate:"required,max=50"`
}

// WarehouseResponse represents a warehouse with its default location
type WarehouseResponse struct {
	ID                uuid.UUID `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Priority          int       `json:"priority"`
	IsActive          bool      `json:"is_active"`
	DefaultLocationID uuid.UUID `json:"default_location_id,omitempty"`
}

// ==================== Transfer DTOs ====================

// PlaceInput is a warehouse → location → bin position.
type PlaceInput struct {
	WarehouseID uuid.UUID  `json:"warehouse_id" validate:"required"`
	LocationID  *uuid.UUID `json:"location_id"`
	BinID       *uuid.UUID `json:"bin_id"`
}

// Place converts the input to a domain place.
func (in PlaceInput) Place() inventory.Place {
	return inventory.NewPlace(in.WarehouseID, in.LocationID, in.BinID)
}

// CreateTransferRequest represents a request to create a transfer
type CreateTransferRequest struct {
	From  PlaceInput                `json:"from"`
	To    PlaceInput                `json:"to"`
	Lines []CreateTransferLineInput `json:"lines" validate:"required,min=1,dive"`
	// Submit moves the transfer straight to requested. Defaults to true.
	Submit *bool `json:"submit"`
}

// CreateTransferLineInput represents a line in the create transfer request
type CreateTransferLineInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int64      `json:"quantity" validate:"gt=0"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID             uuid.UUID                `json:"id"`
	TransferNumber string                   `json:"transfer_number"`
	From           inventory.Place          `json:"from"`
	To             inventory.Place          `json:"to"`
	Status         inventory.TransferStatus `json:"status"`
	StockReserved  bool                     `json:"stock_reserved"`
	RequestedBy    string                   `json:"requested_by"`
	ApprovedBy     string                   `json:"approved_by,omitempty"`
	RequestedAt    *time.Time               `json:"requested_at,omitempty"`
	ApprovedAt     *time.Time               `json:"approved_at,omitempty"`
	ShippedAt      *time.Time               `json:"shipped_at,omitempty"`
	ReceivedAt     *time.Time               `json:"received_at,omitempty"`
	CancelledAt    *time.Time               `json:"cancelled_at,omitempty"`
	Reason         string                   `json:"reason,omitempty"`
	Lines          []inventory.TransferLine `json:"lines"`
	Version        int                      `json:"version"`
}

// ToTransferResponse converts a domain Transfer to a response DTO
func ToTransferResponse(t *inventory.Transfer) TransferResponse {
	return TransferResponse{
		ID:             t.ID,
		TransferNumber: t.TransferNumber,
		From:           t.From,
		To:             t.To,
		Status:         t.Status,
		StockReserved:  t.StockReserved,
		RequestedBy:    t.RequestedBy,
		ApprovedBy:     t.ApprovedBy,
		RequestedAt:    t.RequestedAt,
		ApprovedAt:     t.ApprovedAt,
		ShippedAt:      t.ShippedAt,
		ReceivedAt:     t.ReceivedAt,
		CancelledAt:    t.CancelledAt,
		Reason:         t.Reason,
		Lines:          append([]inventory.TransferLine(nil), t.Lines...),
		Version:        t.Version,
	}
}
