package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// StockKey identifies one ledger row. VariantID, LocationID and BinID are
// optional; uuid.Nil means "not set" so that the key tuple stays comparable
// and uniquely indexable.
type StockKey struct {
	ProductID   uuid.UUID `json:"product_id"`
	VariantID   uuid.UUID `json:"variant_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	LocationID  uuid.UUID `json:"location_id"`
	BinID       uuid.UUID `json:"bin_id"`
}

// NewStockKey builds a key from optional components.
func NewStockKey(productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID, locationID, binID *uuid.UUID) StockKey {
	return StockKey{
		ProductID:   productID,
		VariantID:   deref(variantID),
		WarehouseID: warehouseID,
		LocationID:  deref(locationID),
		BinID:       deref(binID),
	}
}

// Validate checks the structural rules of the key. Ownership of location and
// bin is checked against the hierarchy by LocationGuard.
func (k StockKey) Validate() error {
	if k.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product is required", shared.ErrInvalidInput)
	}
	if k.WarehouseID == uuid.Nil {
		return fmt.Errorf("%w: warehouse is required", shared.ErrInvalidInput)
	}
	if k.BinID != uuid.Nil && k.LocationID == uuid.Nil {
		return fmt.Errorf("%w: bin set without location", shared.ErrInconsistentLocation)
	}
	return nil
}

// HasVariant reports whether the key names a product variant.
func (k StockKey) HasVariant() bool { return k.VariantID != uuid.Nil }

// HasLocation reports whether the key names a location inside the warehouse.
func (k StockKey) HasLocation() bool { return k.LocationID != uuid.Nil }

// HasBin reports whether the key names a bin.
func (k StockKey) HasBin() bool { return k.BinID != uuid.Nil }

// WithPlace returns a copy of the key moved to another warehouse/location/bin.
func (k StockKey) WithPlace(p Place) StockKey {
	k.WarehouseID = p.WarehouseID
	k.LocationID = p.LocationID
	k.BinID = p.BinID
	return k
}

// Place returns the warehouse/location/bin part of the key.
func (k StockKey) Place() Place {
	return Place{WarehouseID: k.WarehouseID, LocationID: k.LocationID, BinID: k.BinID}
}

// Less orders keys by warehouse, location, bin, product, variant.
// Used to acquire row locks in a stable order.
func (k StockKey) Less(o StockKey) bool {
	for _, pair := range [][2]uuid.UUID{
		{k.WarehouseID, o.WarehouseID},
		{k.LocationID, o.LocationID},
		{k.BinID, o.BinID},
		{k.ProductID, o.ProductID},
		{k.VariantID, o.VariantID},
	} {
		if c := compareUUID(pair[0], pair[1]); c != 0 {
			return c < 0
		}
	}
	return false
}

func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s@%s/%s/%s", k.ProductID, k.VariantID, k.WarehouseID, k.LocationID, k.BinID)
}

// Place is a warehouse → location → bin position. LocationID and BinID may
// be uuid.Nil.
type Place struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	LocationID  uuid.UUID `json:"location_id"`
	BinID       uuid.UUID `json:"bin_id"`
}

// NewPlace builds a place from optional location and bin.
func NewPlace(warehouseID uuid.UUID, locationID, binID *uuid.UUID) Place {
	return Place{WarehouseID: warehouseID, LocationID: deref(locationID), BinID: deref(binID)}
}

// IsZero reports whether no warehouse is set.
func (p Place) IsZero() bool { return p.WarehouseID == uuid.Nil }

// LocationPtr returns the location as a pointer, nil when unset.
func (p Place) LocationPtr() *uuid.UUID { return ptr(p.LocationID) }

// BinPtr returns the bin as a pointer, nil when unset.
func (p Place) BinPtr() *uuid.UUID { return ptr(p.BinID) }

func deref(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func ptr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
