package strategy

import (
	"github.com/retailops/backend/internal/domain/inventory"
)

// WarehouseIDComparator ignores priority and orders by warehouse id, then
// location and bin.
type WarehouseIDComparator struct{}

// Name returns the comparator name
func (WarehouseIDComparator) Name() string { return "warehouse_id" }

// Description returns a human-readable description
func (WarehouseIDComparator) Description() string {
	return "Warehouse id ascending, then location and bin id"
}

// Less implements inventory.WarehouseComparator
func (WarehouseIDComparator) Less(_ inventory.SelectionRequest, a, b inventory.Candidate) bool {
	return a.Record.Key.Less(b.Record.Key)
}

// DeepestStockComparator prefers the place with the most available stock,
// spreading demand away from nearly empty bins. Equal depth falls back to
// priority order.
type DeepestStockComparator struct{}

// Name returns the comparator name
func (DeepestStockComparator) Name() string { return "deepest_stock" }

// Description returns a human-readable description
func (DeepestStockComparator) Description() string {
	return "Most available stock first, ties broken by warehouse priority"
}

// Less implements inventory.WarehouseComparator
func (DeepestStockComparator) Less(req inventory.SelectionRequest, a, b inventory.Candidate) bool {
	if av, bv := a.Record.Available(), b.Record.Available(); av != bv {
		return av > bv
	}
	return inventory.PriorityComparator{}.Less(req, a, b)
}

var (
	_ inventory.WarehouseComparator = WarehouseIDComparator{}
	_ inventory.WarehouseComparator = DeepestStockComparator{}
)
