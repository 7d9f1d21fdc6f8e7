package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderedPurchaseOrder(t *testing.T, qty ...int64) *PurchaseOrder {
	t.Helper()
	lines := make([]PurchaseOrderLineInput, len(qty))
	for i, q := range qty {
		lines[i] = PurchaseOrderLineInput{ProductID: uuid.New(), Quantity: q, UnitCost: dec("2.00")}
	}
	po, err := NewPurchaseOrder(uuid.New(), uuid.New(), "buyer", lines, dec("1.00"))
	require.NoError(t, err)
	for _, s := range []PurchaseOrderStatus{PurchaseOrderStatusPending, PurchaseOrderStatusApproved, PurchaseOrderStatusOrdered} {
		require.NoError(t, po.Advance(s, "manager"))
	}
	return po
}

func TestNewPurchaseOrder(t *testing.T) {
	po, err := NewPurchaseOrder(uuid.New(), uuid.New(), "buyer", []PurchaseOrderLineInput{
		{ProductID: uuid.New(), Quantity: 3, UnitCost: dec("2.00")},
	}, dec("0.60"))
	require.NoError(t, err)
	assert.True(t, dec("6.60").Equal(po.TotalAmount))
	assert.Equal(t, PurchaseOrderStatusDraft, po.Status)
	assert.True(t, po.CanDelete())

	_, err = NewPurchaseOrder(uuid.Nil, uuid.New(), "buyer", nil, decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewPurchaseOrder(uuid.New(), uuid.New(), "buyer", nil, decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPurchaseOrder_Receive(t *testing.T) {
	t.Run("partial then full receipt with put-away", func(t *testing.T) {
		po := orderedPurchaseOrder(t, 10)
		line := po.Lines[0]

		grn, effects, err := po.Receive("dock", []ReceiptLineInput{{LineID: line.ID, Quantity: 4}}, true)
		require.NoError(t, err)
		assert.Equal(t, PurchaseOrderStatusPartiallyReceived, po.Status)
		assert.Equal(t, int64(4), grn.TotalQuantity())
		assert.Equal(t, []inventory.LedgerEffect{
			inventory.Receive(inventory.StockKey{ProductID: line.ProductID, WarehouseID: po.WarehouseID}, 4),
		}, effects)

		_, _, err = po.Receive("dock", []ReceiptLineInput{{LineID: line.ID, Quantity: 6}}, true)
		require.NoError(t, err)
		assert.Equal(t, PurchaseOrderStatusReceived, po.Status)
		assert.NotNil(t, po.ReceivedAt)
		assert.NoError(t, po.Lines[0].CheckQuantities())
		assert.Equal(t, []string{EventTypeGoodsReceived, EventTypeGoodsReceived}, eventTypes(po.GetDomainEvents()))
	})

	t.Run("over-receipt leaves the order unchanged", func(t *testing.T) {
		po := orderedPurchaseOrder(t, 5, 5)
		_, _, err := po.Receive("dock", []ReceiptLineInput{
			{LineID: po.Lines[0].ID, Quantity: 5},
			{LineID: po.Lines[1].ID, Quantity: 6},
		}, true)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Zero(t, po.TotalReceived())
		assert.Equal(t, PurchaseOrderStatusOrdered, po.Status)
	})

	t.Run("draft orders cannot receive", func(t *testing.T) {
		po, err := NewPurchaseOrder(uuid.New(), uuid.New(), "buyer",
			[]PurchaseOrderLineInput{{ProductID: uuid.New(), Quantity: 1}}, decimal.Zero)
		require.NoError(t, err)
		_, _, err = po.Receive("dock", []ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: 1}}, true)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("bin without location", func(t *testing.T) {
		po := orderedPurchaseOrder(t, 5)
		_, _, err := po.Receive("dock", []ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: 1, BinID: uuid.New()}}, true)
		assert.ErrorIs(t, err, shared.ErrInconsistentLocation)
	})
}

func TestPurchaseOrder_PutAway(t *testing.T) {
	po := orderedPurchaseOrder(t, 8)
	line := po.Lines[0]
	loc := uuid.New()

	_, effects, err := po.Receive("dock", []ReceiptLineInput{{LineID: line.ID, Quantity: 8}}, false)
	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, int64(8), po.Lines[0].PendingPutAway())

	effects, err = po.PutAway([]ReceiptLineInput{{LineID: line.ID, Quantity: 5, LocationID: loc}})
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, loc, effects[0].Key.LocationID)
	assert.Equal(t, int64(3), po.Lines[0].PendingPutAway())

	_, err = po.PutAway([]ReceiptLineInput{{LineID: line.ID, Quantity: 4}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPurchaseOrder_Cancel(t *testing.T) {
	po := orderedPurchaseOrder(t, 3)
	_, _, err := po.Receive("dock", []ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: 1}}, true)
	require.NoError(t, err)
	assert.ErrorIs(t, po.Cancel(), shared.ErrInvalidTransition)

	fresh := orderedPurchaseOrder(t, 3)
	require.NoError(t, fresh.Advance(PurchaseOrderStatusCancelled, "manager"))
	assert.Equal(t, PurchaseOrderStatusCancelled, fresh.Status)
	assert.NotNil(t, fresh.CancelledAt)
}

func eventTypes(events []shared.DomainEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}
