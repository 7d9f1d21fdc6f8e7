package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/domain/inventory"
)

// ActorHeader names the operator performing a stock adjustment
const ActorHeader = "X-Actor"

// StockOperations is the subset of the stock service exposed to operators
type StockOperations interface {
	GetStock(ctx context.Context, in inventoryapp.StockKeyInput) (*inventoryapp.StockRecordResponse, error)
	ReceiveStock(ctx context.Context, actor string, req inventoryapp.ReceiveStockRequest) (*inventoryapp.StockRecordResponse, error)
	SelectWarehouse(ctx context.Context, req inventoryapp.SelectWarehouseRequest) (inventory.StockKey, error)
}

// StockHandler serves ledger lookups, opening-balance receipts and
// fulfillment previews
type StockHandler struct {
	stock StockOperations
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stock StockOperations) *StockHandler {
	return &StockHandler{stock: stock}
}

// GetStock returns one ledger row.
// Query: product_id, warehouse_id, and optionally variant_id, location_id, bin_id.
func (h *StockHandler) GetStock(c *gin.Context) {
	in, err := stockKeyFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, err := h.stock.GetStock(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rec)
}

// ReceiveStock adds on-hand quantity. The X-Actor header is required.
func (h *StockHandler) ReceiveStock(c *gin.Context) {
	actor := c.GetHeader(ActorHeader)
	if actor == "" {
		badRequest(c, ActorHeader+" header is required")
		return
	}
	var req inventoryapp.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, err := h.stock.ReceiveStock(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rec)
}

// SelectWarehouse previews the fulfillment choice without reserving
// anything. Absent key components are the nil UUID.
func (h *StockHandler) SelectWarehouse(c *gin.Context) {
	var req inventoryapp.SelectWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	key, err := h.stock.SelectWarehouse(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, key)
}

func stockKeyFromQuery(c *gin.Context) (inventoryapp.StockKeyInput, error) {
	var in inventoryapp.StockKeyInput
	var err error
	if in.ProductID, err = uuid.Parse(c.Query("product_id")); err != nil {
		return in, fmt.Errorf("product_id must be a UUID")
	}
	if in.WarehouseID, err = uuid.Parse(c.Query("warehouse_id")); err != nil {
		return in, fmt.Errorf("warehouse_id must be a UUID")
	}
	for name, dst := range map[string]**uuid.UUID{
		"variant_id":  &in.VariantID,
		"location_id": &in.LocationID,
		"bin_id":      &in.BinID,
	} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return in, fmt.Errorf("%s must be a UUID", name)
		}
		*dst = &id
	}
	return in, nil
}

var _ StockOperations = (*inventoryapp.StockService)(nil)
