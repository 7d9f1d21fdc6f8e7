package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// DefaultLocationCode is the code of the location created with every warehouse.
const DefaultLocationCode = "DEFAULT"

// Warehouse is the top of the storage hierarchy.
// Priority orders warehouses for fulfillment, lower first.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code     string
	Name     string
	Priority int
	IsActive bool
}

// NewWarehouse creates an active warehouse.
func NewWarehouse(code, name string, priority int) (*Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: warehouse code is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: warehouse name is required", shared.ErrInvalidInput)
	}
	if priority < 0 {
		return nil, fmt.Errorf("%w: priority cannot be negative", shared.ErrInvalidInput)
	}
	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Priority:          priority,
		IsActive:          true,
	}, nil
}

// DefaultLocation builds the DEFAULT location for the warehouse.
func (w *Warehouse) DefaultLocation() *Location {
	return &Location{
		BaseEntity:  shared.NewBaseEntity(),
		WarehouseID: w.ID,
		Code:        DefaultLocationCode,
		Name:        "Default location",
	}
}

// Deactivate removes the warehouse from fulfillment selection.
func (w *Warehouse) Deactivate() {
	w.IsActive = false
	w.Touch()
}

// Location is a zone inside a warehouse.
type Location struct {
	shared.BaseEntity
	WarehouseID uuid.UUID
	Code        string
	Name        string
}

// NewLocation creates a location inside warehouseID.
func NewLocation(warehouseID uuid.UUID, code, name string) (*Location, error) {
	if warehouseID == uuid.Nil {
		return nil, fmt.Errorf("%w: warehouse is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: location code is required", shared.ErrInvalidInput)
	}
	return &Location{
		BaseEntity:  shared.NewBaseEntity(),
		WarehouseID: warehouseID,
		Code:        strings.TrimSpace(code),
		Name:        name,
	}, nil
}

// Bin is a slot inside a location.
type Bin struct {
	shared.BaseEntity
	LocationID uuid.UUID
	Code       string
}

// NewBin creates a bin inside locationID.
func NewBin(locationID uuid.UUID, code string) (*Bin, error) {
	if locationID == uuid.Nil {
		return nil, fmt.Errorf("%w: location is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: bin code is required", shared.ErrInvalidInput)
	}
	return &Bin{
		BaseEntity: shared.NewBaseEntity(),
		LocationID: locationID,
		Code:       strings.TrimSpace(code),
	}, nil
}

// LocationGuard checks that a Place is consistent with the stored hierarchy.
type LocationGuard struct {
	locations LocationRepository
}

// NewLocationGuard creates a LocationGuard
func NewLocationGuard(locations LocationRepository) *LocationGuard {
	return &LocationGuard{locations: locations}
}

// Check verifies that the warehouse exists, the location (if any) belongs to
// the warehouse and the bin (if any) belongs to the location.
func (g *LocationGuard) Check(ctx context.Context, p Place) error {
	if p.WarehouseID == uuid.Nil {
		return fmt.Errorf("%w: warehouse is required", shared.ErrInvalidInput)
	}
	if _, err := g.locations.FindWarehouse(ctx, p.WarehouseID); err != nil {
		return fmt.Errorf("warehouse %s: %w", p.WarehouseID, err)
	}
	if p.LocationID == uuid.Nil {
		if p.BinID != uuid.Nil {
			return fmt.Errorf("%w: bin %s given without a location", shared.ErrInconsistentLocation, p.BinID)
		}
		return nil
	}
	loc, err := g.locations.FindLocation(ctx, p.LocationID)
	if err != nil {
		return fmt.Errorf("location %s: %w", p.LocationID, err)
	}
	if loc.WarehouseID != p.WarehouseID {
		return fmt.Errorf("%w: location %s belongs to warehouse %s, not %s",
			shared.ErrInconsistentLocation, loc.ID, loc.WarehouseID, p.WarehouseID)
	}
	if p.BinID == uuid.Nil {
		return nil
	}
	bin, err := g.locations.FindBin(ctx, p.BinID)
	if err != nil {
		return fmt.Errorf("bin %s: %w", p.BinID, err)
	}
	if bin.LocationID != p.LocationID {
		return fmt.Errorf("%w: bin %s belongs to location %s, not %s",
			shared.ErrInconsistentLocation, bin.ID, bin.LocationID, p.LocationID)
	}
	return nil
}

// CheckWarehouseIdle refuses deletion while transfers or purchase orders
// still expect to move stock through the warehouse.
func CheckWarehouseIdle(openTransfers, openPurchaseOrders int64) error {
	if openTransfers > 0 {
		return fmt.Errorf("%w: warehouse has %d open transfers", shared.ErrInvalidTransition, openTransfers)
	}
	if openPurchaseOrders > 0 {
		return fmt.Errorf("%w: warehouse has %d open purchase orders", shared.ErrInvalidTransition, openPurchaseOrders)
	}
	return nil
}

// CheckWarehouseDeletable refuses deletion while any record at the warehouse
// still holds stock or reservations.
func CheckWarehouseDeletable(records []StockRecord) error {
	for _, r := range records {
		if r.QtyOnHand != 0 || r.QtyReserved != 0 {
			return fmt.Errorf("%w: warehouse still holds stock for %s (on hand %d, reserved %d)",
				shared.ErrInvalidTransition, r.Key, r.QtyOnHand, r.QtyReserved)
		}
	}
	return nil
}
