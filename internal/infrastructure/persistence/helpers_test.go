package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory sqlite database on a single connection
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.AutoMigrate())
	return d.DB
}

func testSale(t *testing.T, warehouseID uuid.UUID, prices ...string) *trade.Sale {
	t.Helper()
	lines := make([]trade.SaleLineInput, len(prices))
	for i, p := range prices {
		lines[i] = trade.SaleLineInput{
			ProductID: uuid.New(),
			Quantity:  2,
			UnitPrice: decimal.RequireFromString(p),
		}
	}
	sale, err := trade.NewSale(nil, inventory.NewPlace(warehouseID, nil, nil), "cashier-1", lines, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	return sale
}
