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

func completedSale(t *testing.T, customer *uuid.UUID) *Sale {
	t.Helper()
	s := newTestSale(t)
	s.CustomerID = customer
	_, _, err := s.ApplyPayment(s.TotalAmount, PaymentMethodCash, "")
	require.NoError(t, err)
	return s
}

func TestNewSalesReturn(t *testing.T) {
	t.Run("defaults the refund to the returned value", func(t *testing.T) {
		sale := completedSale(t, nil)
		r, err := NewSalesReturn(sale, ReturnTypeRefund, "broken", "clerk",
			[]ReturnLineInput{{SaleLineID: sale.Lines[0].ID, Quantity: 1}}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, ReturnStatusPending, r.Status)
		assert.True(t, dec("10.00").Equal(r.TotalAmount))
		assert.True(t, dec("10.00").Equal(r.RefundAmount))
		assert.Equal(t, sale.Lines[0].ProductID, r.Lines[0].ProductID)
	})

	t.Run("sale must be completed", func(t *testing.T) {
		_, err := NewSalesReturn(newTestSale(t), ReturnTypeRefund, "", "clerk", nil, nil, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("cannot return more than remains", func(t *testing.T) {
		sale := completedSale(t, nil)
		line := sale.Lines[0].ID
		_, err := NewSalesReturn(sale, ReturnTypeReturn, "", "clerk",
			[]ReturnLineInput{{SaleLineID: line, Quantity: 1}}, nil, map[uuid.UUID]int64{line: 2})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewSalesReturn(sale, ReturnTypeReturn, "", "clerk", []ReturnLineInput{
			{SaleLineID: line, Quantity: 1},
			{SaleLineID: line, Quantity: 2},
		}, nil, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown sale line", func(t *testing.T) {
		sale := completedSale(t, nil)
		_, err := NewSalesReturn(sale, ReturnTypeReturn, "", "clerk",
			[]ReturnLineInput{{SaleLineID: uuid.New(), Quantity: 1}}, nil, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("refund above total", func(t *testing.T) {
		sale := completedSale(t, nil)
		refund := dec("50")
		_, err := NewSalesReturn(sale, ReturnTypeRefund, "", "clerk",
			[]ReturnLineInput{{SaleLineID: sale.Lines[1].ID, Quantity: 1}}, &refund, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("exchange needs a replacement", func(t *testing.T) {
		sale := completedSale(t, nil)
		_, err := NewSalesReturn(sale, ReturnTypeExchange, "", "clerk",
			[]ReturnLineInput{{SaleLineID: sale.Lines[1].ID, Quantity: 1}}, nil, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestSalesReturn_Process(t *testing.T) {
	restock := inventory.Place{WarehouseID: uuid.New()}

	newApproved := func(t *testing.T, customer *uuid.UUID) *SalesReturn {
		sale := completedSale(t, customer)
		r, err := NewSalesReturn(sale, ReturnTypeReturn, "", "clerk", []ReturnLineInput{
			{SaleLineID: sale.Lines[0].ID, Quantity: 2},
			{SaleLineID: sale.Lines[1].ID, Quantity: 1},
		}, nil, nil)
		require.NoError(t, err)
		require.NoError(t, r.Approve("manager"))
		return r
	}

	t.Run("normal restock receives every line and locks", func(t *testing.T) {
		r := newApproved(t, nil)
		effects, err := r.Process("manager", ProcessOptions{Action: ReturnActionRefund, Place: restock})
		require.NoError(t, err)

		require.Len(t, effects, 2)
		assert.Equal(t, inventory.EffectReceive, effects[0].Op)
		assert.Equal(t, int64(2), effects[0].Quantity)
		assert.Equal(t, restock.WarehouseID, effects[0].Key.WarehouseID)
		assert.Equal(t, ReturnStatusProcessed, r.Status)
		assert.True(t, r.IsLocked)
		assert.True(t, r.Lines[0].Returned)
		assert.Equal(t, RestockNormal, r.RestockType)
	})

	t.Run("quality control restock produces no effects", func(t *testing.T) {
		r := newApproved(t, nil)
		effects, err := r.Process("manager", ProcessOptions{Action: ReturnActionRefund, Place: restock, RestockType: RestockQualityControl})
		require.NoError(t, err)
		assert.Empty(t, effects)
		assert.True(t, r.Lines[1].Returned)
	})

	t.Run("store credit needs a customer", func(t *testing.T) {
		r := newApproved(t, nil)
		_, err := r.Process("manager", ProcessOptions{Action: ReturnActionStoreCredit, Place: restock})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		customer := uuid.New()
		r = newApproved(t, &customer)
		assert.Equal(t, ReturnActionStoreCredit, r.DefaultAction())
		_, err = r.Process("manager", ProcessOptions{Action: ReturnActionStoreCredit, Place: restock})
		assert.NoError(t, err)
	})

	t.Run("pending returns cannot be processed", func(t *testing.T) {
		sale := completedSale(t, nil)
		r, err := NewSalesReturn(sale, ReturnTypeRefund, "", "clerk",
			[]ReturnLineInput{{SaleLineID: sale.Lines[0].ID, Quantity: 1}}, nil, nil)
		require.NoError(t, err)

		_, err = r.Process("manager", ProcessOptions{Action: ReturnActionRefund, Place: restock})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("processed returns refuse amount changes", func(t *testing.T) {
		r := newApproved(t, nil)
		_, err := r.Process("manager", ProcessOptions{Action: ReturnActionRefund, Place: restock})
		require.NoError(t, err)
		before := r.Amounts()

		err = r.UpdateAmounts(decimal.Zero, decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, before, r.Amounts())
	})

	t.Run("processed returns refuse status changes", func(t *testing.T) {
		r := newApproved(t, nil)
		_, err := r.Process("manager", ProcessOptions{Action: ReturnActionRefund, Place: restock})
		require.NoError(t, err)

		assert.ErrorIs(t, r.Approve("eve"), shared.ErrLockedRecordModification)
		assert.ErrorIs(t, r.Reject("eve", "late"), shared.ErrLockedRecordModification)
		_, err = r.Process("eve", ProcessOptions{Action: ReturnActionRefund, Place: restock})
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, ReturnStatusProcessed, r.Status)
		assert.Equal(t, "manager", r.ProcessedBy)
	})
}

func TestSalesReturn_Exchange(t *testing.T) {
	sale := completedSale(t, nil)
	replacement := uuid.New()
	r, err := NewSalesReturn(sale, ReturnTypeExchange, "wrong size", "clerk", []ReturnLineInput{
		{SaleLineID: sale.Lines[0].ID, Quantity: 1, ExchangeProductID: replacement, ExchangeQuantity: 1, ExchangePrice: dec("12.00")},
	}, nil, nil)
	require.NoError(t, err)

	lines := r.ExchangeLines()
	require.Len(t, lines, 1)
	assert.Equal(t, replacement, lines[0].ProductID)
	assert.True(t, dec("12.00").Equal(lines[0].UnitPrice))
	assert.Equal(t, ReturnActionExchange, r.DefaultAction())

	require.NoError(t, r.Reject("manager", "outside window"))
	assert.Equal(t, "outside window", r.Reason)
	assert.ErrorIs(t, r.Approve("manager"), shared.ErrInvalidTransition)
}
