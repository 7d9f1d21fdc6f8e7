package strategy

import (
	"github.com/retailops/backend/internal/domain/inventory"
)

// NewRegistryWithDefaults registers the built-in comparators with
// "priority" as the default.
func NewRegistryWithDefaults() (*ComparatorRegistry, error) {
	r := NewComparatorRegistry()

	priority := inventory.PriorityComparator{}
	for _, c := range []inventory.WarehouseComparator{
		priority,
		WarehouseIDComparator{},
		DeepestStockComparator{},
	} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}

	if err := r.SetDefault(priority.Name()); err != nil {
		return nil, err
	}
	return r, nil
}
