package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selectorFixture struct {
	records   *fakeRecords
	locations *fakeLocations
	product   uuid.UUID
}

func newSelectorFixture() *selectorFixture {
	return &selectorFixture{
		records:   newFakeRecords(),
		locations: newFakeLocations(),
		product:   uuid.New(),
	}
}

func (f *selectorFixture) stock(w *Warehouse, product uuid.UUID, onHand, reserved int64) StockKey {
	key := StockKey{ProductID: product, WarehouseID: w.ID}
	f.records.put(key, onHand, reserved)
	return key
}

func TestFulfillmentSelector_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("picks the highest priority warehouse with enough stock", func(t *testing.T) {
		f := newSelectorFixture()
		main := f.locations.addWarehouse("MAIN", 1)
		backup := f.locations.addWarehouse("BACKUP", 2)
		f.stock(main, f.product, 10, 0)
		f.stock(backup, f.product, 50, 0)

		key, err := NewFulfillmentSelector(f.records, f.locations, nil).
			Select(ctx, SelectionRequest{ProductID: f.product, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, main.ID, key.WarehouseID)
	})

	t.Run("skips warehouses whose stock is reserved", func(t *testing.T) {
		f := newSelectorFixture()
		main := f.locations.addWarehouse("MAIN", 1)
		backup := f.locations.addWarehouse("BACKUP", 2)
		f.stock(main, f.product, 10, 8)
		f.stock(backup, f.product, 10, 0)

		key, err := NewFulfillmentSelector(f.records, f.locations, nil).
			Select(ctx, SelectionRequest{ProductID: f.product, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, backup.ID, key.WarehouseID)
	})

	t.Run("skips inactive warehouses", func(t *testing.T) {
		f := newSelectorFixture()
		closed := f.locations.addWarehouse("CLOSED", 0)
		closed.Deactivate()
		require.NoError(t, f.locations.SaveWarehouse(ctx, closed))
		open := f.locations.addWarehouse("OPEN", 5)
		f.stock(closed, f.product, 100, 0)
		f.stock(open, f.product, 10, 0)

		key, err := NewFulfillmentSelector(f.records, f.locations, nil).
			Select(ctx, SelectionRequest{ProductID: f.product, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, open.ID, key.WarehouseID)
	})

	t.Run("respects preferred warehouses", func(t *testing.T) {
		f := newSelectorFixture()
		main := f.locations.addWarehouse("MAIN", 1)
		store := f.locations.addWarehouse("STORE", 9)
		f.stock(main, f.product, 10, 0)
		f.stock(store, f.product, 10, 0)

		key, err := NewFulfillmentSelector(f.records, f.locations, nil).
			Select(ctx, SelectionRequest{ProductID: f.product, Quantity: 5, PreferredWarehouses: []uuid.UUID{store.ID}})
		require.NoError(t, err)
		assert.Equal(t, store.ID, key.WarehouseID)
	})

	t.Run("no warehouse covers the quantity", func(t *testing.T) {
		f := newSelectorFixture()
		main := f.locations.addWarehouse("MAIN", 1)
		f.stock(main, f.product, 3, 0)

		_, err := NewFulfillmentSelector(f.records, f.locations, nil).
			Select(ctx, SelectionRequest{ProductID: f.product, Quantity: 5})
		assert.ErrorIs(t, err, shared.ErrNoWarehouseAvailable)
	})

	t.Run("requires a product and positive quantity", func(t *testing.T) {
		f := newSelectorFixture()
		_, err := NewFulfillmentSelector(f.records, f.locations, nil).
			Select(ctx, SelectionRequest{Quantity: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

type reversePriority struct{}

func (reversePriority) Name() string        { return "reverse" }
func (reversePriority) Description() string { return "lowest priority first" }
func (reversePriority) Less(_ SelectionRequest, a, b Candidate) bool {
	return a.Warehouse.Priority > b.Warehouse.Priority
}

func TestFulfillmentSelector_CustomComparator(t *testing.T) {
	f := newSelectorFixture()
	main := f.locations.addWarehouse("MAIN", 1)
	outlet := f.locations.addWarehouse("OUTLET", 7)
	f.stock(main, f.product, 10, 0)
	f.stock(outlet, f.product, 10, 0)

	sel := NewFulfillmentSelector(f.records, f.locations, reversePriority{})
	assert.Equal(t, "reverse", sel.Comparator().Name())

	key, err := sel.Select(context.Background(), SelectionRequest{ProductID: f.product, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, outlet.ID, key.WarehouseID)
}

func TestFulfillmentSelector_SelectForLines(t *testing.T) {
	ctx := context.Background()
	other := uuid.New()

	t.Run("first place covering every product", func(t *testing.T) {
		f := newSelectorFixture()
		main := f.locations.addWarehouse("MAIN", 1)
		backup := f.locations.addWarehouse("BACKUP", 2)
		f.stock(main, f.product, 10, 0)
		f.stock(backup, f.product, 10, 0)
		f.stock(backup, other, 4, 0)

		place, err := NewFulfillmentSelector(f.records, f.locations, nil).SelectForLines(ctx, []SelectLine{
			{ProductID: f.product, Quantity: 2},
			{ProductID: other, Quantity: 4},
		}, "", nil)
		require.NoError(t, err)
		assert.Equal(t, backup.ID, place.WarehouseID)
	})

	t.Run("sums lines of the same product", func(t *testing.T) {
		f := newSelectorFixture()
		main := f.locations.addWarehouse("MAIN", 1)
		f.stock(main, f.product, 5, 0)

		_, err := NewFulfillmentSelector(f.records, f.locations, nil).SelectForLines(ctx, []SelectLine{
			{ProductID: f.product, Quantity: 3},
			{ProductID: f.product, Quantity: 3},
		}, "", nil)
		assert.ErrorIs(t, err, shared.ErrNoWarehouseAvailable)
	})

	t.Run("no lines", func(t *testing.T) {
		f := newSelectorFixture()
		_, err := NewFulfillmentSelector(f.records, f.locations, nil).SelectForLines(ctx, nil, "", nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
