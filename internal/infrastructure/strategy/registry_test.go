package strategy

import (
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedComparator struct {
	inventory.PriorityComparator
	name string
}

func (c namedComparator) Name() string { return c.name }

func TestComparatorRegistry_RegisterAndGet(t *testing.T) {
	r := NewComparatorRegistry()
	require.NoError(t, r.Register(namedComparator{name: "a"}))

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name())

	err = r.Register(namedComparator{name: "a"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = r.Get("")
	assert.ErrorIs(t, err, shared.ErrNotFound, "no default yet")
}

func TestComparatorRegistry_Default(t *testing.T) {
	r := NewComparatorRegistry()
	require.NoError(t, r.Register(namedComparator{name: "a"}))
	require.NoError(t, r.Register(namedComparator{name: "b"}))

	assert.ErrorIs(t, r.SetDefault("c"), shared.ErrNotFound)
	require.NoError(t, r.SetDefault("b"))
	assert.Equal(t, "b", r.Default())

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name())
	assert.Equal(t, "b", r.GetOrDefault("unknown").Name())
	assert.Equal(t, "a", r.GetOrDefault("a").Name())
}

func TestComparatorRegistry_Unregister(t *testing.T) {
	r := NewComparatorRegistry()
	require.NoError(t, r.Register(namedComparator{name: "a"}))
	require.NoError(t, r.Register(namedComparator{name: "b"}))
	require.NoError(t, r.SetDefault("a"))

	assert.ErrorIs(t, r.Unregister("a"), shared.ErrInvalidInput)
	assert.ErrorIs(t, r.Unregister("zzz"), shared.ErrNotFound)
	require.NoError(t, r.Unregister("b"))
	assert.Equal(t, []string{"a"}, r.List())
}

func TestComparatorRegistry_ConcurrentAccess(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, r.GetOrDefault(""))
			assert.Len(t, r.List(), 3)
		}()
	}
	wg.Wait()
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []string{"deepest_stock", "priority", "warehouse_id"}, r.List())
	assert.Equal(t, "priority", r.Default())
}

// candidate builds a candidate with the given warehouse priority and stock.
func candidate(warehouseID uuid.UUID, priority int, onHand, reserved int64) inventory.Candidate {
	return inventory.Candidate{
		Record: inventory.StockRecord{
			Key:         inventory.StockKey{ProductID: uuid.Nil, WarehouseID: warehouseID},
			QtyOnHand:   onHand,
			QtyReserved: reserved,
		},
		Warehouse: inventory.Warehouse{Priority: priority, IsActive: true},
	}
}

func sortedWarehouses(c inventory.WarehouseComparator, cs []inventory.Candidate) []uuid.UUID {
	req := inventory.SelectionRequest{Quantity: 1}
	sort.SliceStable(cs, func(i, j int) bool { return c.Less(req, cs[i], cs[j]) })
	out := make([]uuid.UUID, len(cs))
	for i, cand := range cs {
		out[i] = cand.Record.Key.WarehouseID
	}
	return out
}

func TestComparators(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	mid := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	candidates := func() []inventory.Candidate {
		return []inventory.Candidate{
			candidate(high, 1, 10, 0), // available 10
			candidate(low, 3, 50, 10), // available 40
			candidate(mid, 1, 40, 0),  // available 40
		}
	}

	tests := []struct {
		name       string
		comparator inventory.WarehouseComparator
		want       []uuid.UUID
	}{
		{"priority", inventory.PriorityComparator{}, []uuid.UUID{mid, high, low}},
		{"warehouse_id", WarehouseIDComparator{}, []uuid.UUID{low, mid, high}},
		{"deepest_stock", DeepestStockComparator{}, []uuid.UUID{mid, low, high}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sortedWarehouses(tt.comparator, candidates()))
			assert.NotEmpty(t, tt.comparator.Description())
		})
	}
}
