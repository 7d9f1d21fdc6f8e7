package inventory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// fakeRecords is a map-backed StockRecordRepository. It hands out copies,
// so a failed mutation never leaks into the stored row.
type fakeRecords struct {
	rows   map[StockKey]StockRecord
	saves  int
	locked []StockKey
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: make(map[StockKey]StockRecord)}
}

func (f *fakeRecords) put(key StockKey, onHand, reserved int64) {
	rec, err := NewStockRecord(key)
	if err != nil {
		panic(err)
	}
	rec.QtyOnHand = onHand
	rec.QtyReserved = reserved
	f.rows[key] = *rec
}

func (f *fakeRecords) FindByKey(_ context.Context, key StockKey) (*StockRecord, error) {
	rec, ok := f.rows[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeRecords) FindByKeyForUpdate(ctx context.Context, key StockKey) (*StockRecord, error) {
	f.locked = append(f.locked, key)
	return f.FindByKey(ctx, key)
}

func (f *fakeRecords) GetOrCreate(ctx context.Context, key StockKey) (*StockRecord, error) {
	if _, ok := f.rows[key]; !ok {
		rec, err := NewStockRecord(key)
		if err != nil {
			return nil, err
		}
		f.rows[key] = *rec
	}
	return f.FindByKey(ctx, key)
}

func (f *fakeRecords) SaveWithLock(_ context.Context, record *StockRecord) error {
	stored, ok := f.rows[record.Key]
	if ok && stored.Version != record.Version {
		return shared.ErrOptimisticLock
	}
	next := *record
	next.ClearDomainEvents()
	next.Version++
	f.rows[record.Key] = next
	record.IncrementVersion()
	f.saves++
	return nil
}

func (f *fakeRecords) FindCandidates(_ context.Context, productID, variantID uuid.UUID, minOnHand int64, warehouses []uuid.UUID) ([]StockRecord, error) {
	var out []StockRecord
	for _, r := range f.rows {
		if r.Key.ProductID != productID || r.Key.VariantID != variantID || r.QtyOnHand < minOnHand {
			continue
		}
		if len(warehouses) > 0 && !slices.Contains(warehouses, r.Key.WarehouseID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRecords) FindByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]StockRecord, error) {
	var out []StockRecord
	for _, r := range f.rows {
		if r.Key.WarehouseID == warehouseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) DeleteByWarehouse(_ context.Context, warehouseID uuid.UUID) error {
	for k := range f.rows {
		if k.WarehouseID == warehouseID {
			delete(f.rows, k)
		}
	}
	return nil
}

type fakeLocations struct {
	warehouses map[uuid.UUID]Warehouse
	locations  map[uuid.UUID]Location
	bins       map[uuid.UUID]Bin
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{
		warehouses: make(map[uuid.UUID]Warehouse),
		locations:  make(map[uuid.UUID]Location),
		bins:       make(map[uuid.UUID]Bin),
	}
}

func (f *fakeLocations) addWarehouse(code string, priority int) *Warehouse {
	w, err := NewWarehouse(code, code, priority)
	if err != nil {
		panic(err)
	}
	f.warehouses[w.ID] = *w
	return w
}

func (f *fakeLocations) FindWarehouse(_ context.Context, id uuid.UUID) (*Warehouse, error) {
	w, ok := f.warehouses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &w, nil
}

func (f *fakeLocations) FindWarehouseByCode(_ context.Context, code string) (*Warehouse, error) {
	for _, w := range f.warehouses {
		if w.Code == code {
			return &w, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeLocations) ListWarehouses(_ context.Context, ids []uuid.UUID) ([]Warehouse, error) {
	var out []Warehouse
	for _, id := range ids {
		if w, ok := f.warehouses[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeLocations) SaveWarehouse(_ context.Context, w *Warehouse) error {
	f.warehouses[w.ID] = *w
	return nil
}

func (f *fakeLocations) DeleteWarehouse(_ context.Context, id uuid.UUID) error {
	delete(f.warehouses, id)
	return nil
}

func (f *fakeLocations) FindLocation(_ context.Context, id uuid.UUID) (*Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (f *fakeLocations) FindLocationByCode(_ context.Context, warehouseID uuid.UUID, code string) (*Location, error) {
	for _, l := range f.locations {
		if l.WarehouseID == warehouseID && l.Code == code {
			return &l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeLocations) SaveLocation(_ context.Context, l *Location) error {
	f.locations[l.ID] = *l
	return nil
}

func (f *fakeLocations) FindBin(_ context.Context, id uuid.UUID) (*Bin, error) {
	b, ok := f.bins[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (f *fakeLocations) SaveBin(_ context.Context, b *Bin) error {
	f.bins[b.ID] = *b
	return nil
}

type recordedEvents struct {
	events []shared.DomainEvent
}

func (r *recordedEvents) Record(_ context.Context, events ...shared.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *recordedEvents) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}
