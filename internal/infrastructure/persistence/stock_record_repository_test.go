package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockRecordRepository_GetOrCreate(t *testing.T) {
	repo := NewGormStockRecordRepository(newTestDB(t))
	ctx := context.Background()
	key := inventory.StockKey{ProductID: uuid.New(), WarehouseID: uuid.New()}

	first, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.QtyOnHand)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, key, first.Key)

	second, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGormStockRecordRepository_FindByKey_NotFound(t *testing.T) {
	repo := NewGormStockRecordRepository(newTestDB(t))

	_, err := repo.FindByKey(context.Background(), inventory.StockKey{ProductID: uuid.New(), WarehouseID: uuid.New()})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStockRecordRepository_KeysWithOptionalParts(t *testing.T) {
	repo := NewGormStockRecordRepository(newTestDB(t))
	ctx := context.Background()

	product, warehouse, location := uuid.New(), uuid.New(), uuid.New()
	whole := inventory.StockKey{ProductID: product, WarehouseID: warehouse}
	located := inventory.StockKey{ProductID: product, WarehouseID: warehouse, LocationID: location}

	a, err := repo.GetOrCreate(ctx, whole)
	require.NoError(t, err)
	b, err := repo.GetOrCreate(ctx, located)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	found, err := repo.FindByKeyForUpdate(ctx, located)
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)
}

func TestGormStockRecordRepository_SaveWithLock(t *testing.T) {
	repo := NewGormStockRecordRepository(newTestDB(t))
	ctx := context.Background()
	key := inventory.StockKey{ProductID: uuid.New(), WarehouseID: uuid.New()}

	rec, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)
	stale, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)

	rec.QtyOnHand = 10
	rec.QtyReserved = 3
	require.NoError(t, rec.SetMinStockLevel(4))
	require.NoError(t, repo.SaveWithLock(ctx, rec))
	assert.Equal(t, 2, rec.Version)

	stored, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.QtyOnHand)
	assert.Equal(t, int64(3), stored.QtyReserved)
	assert.Equal(t, int64(4), stored.MinStockLevel)
	assert.Equal(t, 2, stored.Version)

	stale.QtyOnHand = 99
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrOptimisticLock)
	assert.Equal(t, 1, stale.Version)
}

func TestGormStockRecordRepository_FindCandidates(t *testing.T) {
	repo := NewGormStockRecordRepository(newTestDB(t))
	ctx := context.Background()
	product := uuid.New()
	wh1, wh2, wh3 := uuid.New(), uuid.New(), uuid.New()

	for wh, qty := range map[uuid.UUID]int64{wh1: 5, wh2: 1, wh3: 8} {
		rec, err := repo.GetOrCreate(ctx, inventory.StockKey{ProductID: product, WarehouseID: wh})
		require.NoError(t, err)
		rec.QtyOnHand = qty
		require.NoError(t, repo.SaveWithLock(ctx, rec))
	}
	// same warehouse, different product
	_, err := repo.GetOrCreate(ctx, inventory.StockKey{ProductID: uuid.New(), WarehouseID: wh1})
	require.NoError(t, err)

	all, err := repo.FindCandidates(ctx, product, uuid.Nil, 2, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	preferred, err := repo.FindCandidates(ctx, product, uuid.Nil, 2, []uuid.UUID{wh3, wh2})
	require.NoError(t, err)
	require.Len(t, preferred, 1)
	assert.Equal(t, wh3, preferred[0].Key.WarehouseID)
}

func TestGormStockRecordRepository_ByWarehouse(t *testing.T) {
	repo := NewGormStockRecordRepository(newTestDB(t))
	ctx := context.Background()
	wh := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := repo.GetOrCreate(ctx, inventory.StockKey{ProductID: uuid.New(), WarehouseID: wh})
		require.NoError(t, err)
	}
	_, err := repo.GetOrCreate(ctx, inventory.StockKey{ProductID: uuid.New(), WarehouseID: uuid.New()})
	require.NoError(t, err)

	records, err := repo.FindByWarehouse(ctx, wh)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	require.NoError(t, repo.DeleteByWarehouse(ctx, wh))
	records, err = repo.FindByWarehouse(ctx, wh)
	require.NoError(t, err)
	assert.Empty(t, records)
}
