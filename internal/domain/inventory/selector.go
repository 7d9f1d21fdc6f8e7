package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// SelectionRequest asks for a place that can ship Quantity of a product.
type SelectionRequest struct {
	ProductID           uuid.UUID
	VariantID           uuid.UUID
	Quantity            int64
	CustomerLocation    string
	PreferredWarehouses []uuid.UUID
}

// Candidate is a stock record considered for fulfillment together with its
// warehouse.
type Candidate struct {
	Record    StockRecord
	Warehouse Warehouse
}

// WarehouseComparator orders fulfillment candidates. Implementations are
// looked up by name, so proximity or cost based orderings can be plugged in
// without touching the selector.
type WarehouseComparator interface {
	Name() string
	Description() string
	Less(req SelectionRequest, a, b Candidate) bool
}

// PriorityComparator orders by warehouse priority, then warehouse id, then
// location and bin, which keeps ties deterministic.
type PriorityComparator struct{}

// Name returns the comparator name
func (PriorityComparator) Name() string { return "priority" }

// Description returns a human-readable description
func (PriorityComparator) Description() string {
	return "Warehouse priority ascending, ties broken by warehouse, location and bin id"
}

// Less implements WarehouseComparator
func (PriorityComparator) Less(_ SelectionRequest, a, b Candidate) bool {
	if a.Warehouse.Priority != b.Warehouse.Priority {
		return a.Warehouse.Priority < b.Warehouse.Priority
	}
	return a.Record.Key.Less(b.Record.Key)
}

// FulfillmentSelector picks the place to serve a sale from.
type FulfillmentSelector struct {
	records    StockRecordRepository
	locations  LocationRepository
	comparator WarehouseComparator
}

// NewFulfillmentSelector creates a selector. A nil comparator falls back to
// PriorityComparator.
func NewFulfillmentSelector(records StockRecordRepository, locations LocationRepository, comparator WarehouseComparator) *FulfillmentSelector {
	if comparator == nil {
		comparator = PriorityComparator{}
	}
	return &FulfillmentSelector{records: records, locations: locations, comparator: comparator}
}

// Comparator returns the ordering in use.
func (s *FulfillmentSelector) Comparator() WarehouseComparator {
	return s.comparator
}

// Select returns the key of the first candidate, in comparator order, whose
// on-hand and available stock both cover the quantity.
func (s *FulfillmentSelector) Select(ctx context.Context, req SelectionRequest) (StockKey, error) {
	candidates, err := s.Candidates(ctx, req)
	if err != nil {
		return StockKey{}, err
	}
	for _, c := range candidates {
		if c.Record.Available() >= req.Quantity {
			return c.Record.Key, nil
		}
	}
	return StockKey{}, fmt.Errorf("%w: product %s quantity %d", shared.ErrNoWarehouseAvailable, req.ProductID, req.Quantity)
}

// Candidates returns the ordered records with on_hand >= quantity in active
// (and, if given, preferred) warehouses.
func (s *FulfillmentSelector) Candidates(ctx context.Context, req SelectionRequest) ([]Candidate, error) {
	if req.ProductID == uuid.Nil || req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: product and positive quantity are required", shared.ErrInvalidInput)
	}
	records, err := s.records.FindCandidates(ctx, req.ProductID, req.VariantID, req.Quantity, req.PreferredWarehouses)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(records))
	seen := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		if !seen[r.Key.WarehouseID] {
			seen[r.Key.WarehouseID] = true
			ids = append(ids, r.Key.WarehouseID)
		}
	}
	warehouses, err := s.locations.ListWarehouses(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]Warehouse, len(warehouses))
	for _, w := range warehouses {
		byID[w.ID] = w
	}

	candidates := make([]Candidate, 0, len(records))
	for _, r := range records {
		w, ok := byID[r.Key.WarehouseID]
		if !ok || !w.IsActive || r.QtyOnHand < req.Quantity {
			continue
		}
		candidates = append(candidates, Candidate{Record: r, Warehouse: w})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return s.comparator.Less(req, candidates[i], candidates[j])
	})
	return candidates, nil
}

// SelectLine is one product/quantity that SelectForLines must cover.
type SelectLine struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int64
}

// SelectForLines finds the first place able to serve every line, trying
// places in the order the first line's candidates are ranked. Quantities of
// lines sharing a product are summed.
func (s *FulfillmentSelector) SelectForLines(ctx context.Context, lines []SelectLine, customerLocation string, preferred []uuid.UUID) (Place, error) {
	if len(lines) == 0 {
		return Place{}, fmt.Errorf("%w: no lines to fulfil", shared.ErrInvalidInput)
	}
	type pv struct{ product, variant uuid.UUID }
	need := make(map[pv]int64)
	order := make([]pv, 0, len(lines))
	for _, l := range lines {
		k := pv{l.ProductID, l.VariantID}
		if _, ok := need[k]; !ok {
			order = append(order, k)
		}
		need[k] += l.Quantity
	}

	first := order[0]
	base := SelectionRequest{
		ProductID:           first.product,
		VariantID:           first.variant,
		Quantity:            need[first],
		CustomerLocation:    customerLocation,
		PreferredWarehouses: preferred,
	}
	candidates, err := s.Candidates(ctx, base)
	if err != nil {
		return Place{}, err
	}

	for _, c := range candidates {
		if c.Record.Available() < base.Quantity {
			continue
		}
		place := c.Record.Key.Place()
		ok := true
		for _, k := range order[1:] {
			rec, err := s.records.FindByKey(ctx, StockKey{ProductID: k.product, VariantID: k.variant}.WithPlace(place))
			if err != nil {
				if isNotFound(err) {
					ok = false
					break
				}
				return Place{}, err
			}
			if rec.QtyOnHand < need[k] || rec.Available() < need[k] {
				ok = false
				break
			}
		}
		if ok {
			return place, nil
		}
	}
	return Place{}, fmt.Errorf("%w: no single place covers all %d products", shared.ErrNoWarehouseAvailable, len(order))
}
