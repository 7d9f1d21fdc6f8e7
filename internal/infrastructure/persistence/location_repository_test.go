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

func saveWarehouse(t *testing.T, repo *GormLocationRepository, code string, priority int) *inventory.Warehouse {
	t.Helper()
	w, err := inventory.NewWarehouse(code, "Warehouse "+code, priority)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWarehouse(context.Background(), w))
	return w
}

func TestGormLocationRepository_Warehouses(t *testing.T) {
	repo := NewGormLocationRepository(newTestDB(t))
	ctx := context.Background()

	north := saveWarehouse(t, repo, "NORTH", 2)
	south := saveWarehouse(t, repo, "SOUTH", 1)
	east := saveWarehouse(t, repo, "EAST", 2)

	found, err := repo.FindWarehouse(ctx, north.ID)
	require.NoError(t, err)
	assert.Equal(t, "NORTH", found.Code)
	assert.True(t, found.IsActive)

	byCode, err := repo.FindWarehouseByCode(ctx, "SOUTH")
	require.NoError(t, err)
	assert.Equal(t, south.ID, byCode.ID)

	all, err := repo.ListWarehouses(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"SOUTH", "EAST", "NORTH"}, []string{all[0].Code, all[1].Code, all[2].Code})

	some, err := repo.ListWarehouses(ctx, []uuid.UUID{north.ID, east.ID})
	require.NoError(t, err)
	assert.Len(t, some, 2)

	_, err = repo.FindWarehouse(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormLocationRepository_SaveWarehouse_Updates(t *testing.T) {
	repo := NewGormLocationRepository(newTestDB(t))
	ctx := context.Background()
	w := saveWarehouse(t, repo, "MAIN", 0)

	w.Deactivate()
	require.NoError(t, repo.SaveWarehouse(ctx, w))

	found, err := repo.FindWarehouse(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestGormLocationRepository_DuplicateWarehouseCode(t *testing.T) {
	repo := NewGormLocationRepository(newTestDB(t))
	saveWarehouse(t, repo, "MAIN", 0)

	dup, err := inventory.NewWarehouse("MAIN", "Another", 1)
	require.NoError(t, err)
	err = repo.SaveWarehouse(context.Background(), dup)

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormLocationRepository_Hierarchy(t *testing.T) {
	repo := NewGormLocationRepository(newTestDB(t))
	ctx := context.Background()
	w := saveWarehouse(t, repo, "MAIN", 0)

	loc, err := inventory.NewLocation(w.ID, "A1", "Aisle 1")
	require.NoError(t, err)
	require.NoError(t, repo.SaveLocation(ctx, loc))
	bin, err := inventory.NewBin(loc.ID, "A1-01")
	require.NoError(t, err)
	require.NoError(t, repo.SaveBin(ctx, bin))

	foundLoc, err := repo.FindLocationByCode(ctx, w.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, loc.ID, foundLoc.ID)

	foundBin, err := repo.FindBin(ctx, bin.ID)
	require.NoError(t, err)
	assert.Equal(t, loc.ID, foundBin.LocationID)

	guard := inventory.NewLocationGuard(repo)
	assert.NoError(t, guard.Check(ctx, inventory.NewPlace(w.ID, &loc.ID, &bin.ID)))

	other := saveWarehouse(t, repo, "OTHER", 1)
	err = guard.Check(ctx, inventory.NewPlace(other.ID, &loc.ID, nil))
	assert.ErrorIs(t, err, shared.ErrInconsistentLocation)
}

func TestGormLocationRepository_DeleteWarehouse(t *testing.T) {
	repo := NewGormLocationRepository(newTestDB(t))
	ctx := context.Background()
	w := saveWarehouse(t, repo, "MAIN", 0)
	loc := w.DefaultLocation()
	require.NoError(t, repo.SaveLocation(ctx, loc))
	bin, err := inventory.NewBin(loc.ID, "B-1")
	require.NoError(t, err)
	require.NoError(t, repo.SaveBin(ctx, bin))

	require.NoError(t, repo.DeleteWarehouse(ctx, w.ID))

	_, err = repo.FindWarehouse(ctx, w.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindLocation(ctx, loc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindBin(ctx, bin.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteWarehouse(ctx, w.ID), shared.ErrNotFound)
}
