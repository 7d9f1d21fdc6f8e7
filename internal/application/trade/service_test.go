package trade

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	inventoryapp "github.com/retailops/backend/internal/application/inventory"
	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

type harness struct {
	scope     appshared.TransactionScope
	stock     *inventoryapp.StockService
	sales     *SaleService
	returns   *ReturnService
	purchases *PurchaseService
	customers *CustomerService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d, err := persistence.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.AutoMigrate())

	scope := persistence.NewGormTransactionScope(d.DB, nil)
	log := zaptest.NewLogger(t)
	return &harness{
		scope:     scope,
		stock:     inventoryapp.NewStockService(scope, log),
		sales:     NewSaleService(scope, log),
		returns:   NewReturnService(scope, log),
		purchases: NewPurchaseService(scope, log),
		customers: NewCustomerService(scope, log),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (h *harness) warehouse(t *testing.T, code string, priority int) uuid.UUID {
	t.Helper()
	w, err := h.stock.CreateWarehouse(context.Background(), "admin", inventoryapp.CreateWarehouseRequest{Code: code, Name: code, Priority: priority})
	require.NoError(t, err)
	return w.ID
}

func (h *harness) receive(t *testing.T, product, warehouse uuid.UUID, qty int64) {
	t.Helper()
	_, err := h.stock.ReceiveStock(context.Background(), "admin", inventoryapp.ReceiveStockRequest{
		StockKeyInput: inventoryapp.StockKeyInput{ProductID: product, WarehouseID: warehouse},
		Quantity:      qty,
	})
	require.NoError(t, err)
}

func (h *harness) level(t *testing.T, product, warehouse uuid.UUID) (onHand, reserved int64) {
	t.Helper()
	rec, err := h.stock.GetStock(context.Background(), inventoryapp.StockKeyInput{ProductID: product, WarehouseID: warehouse})
	require.NoError(t, err)
	return rec.QtyOnHand, rec.QtyReserved
}

func (h *harness) countAttempts(t *testing.T, entityType string, id uuid.UUID) int64 {
	t.Helper()
	var n int64
	err := h.scope.Execute(context.Background(), func(repos appshared.TransactionalRepositories) error {
		var err error
		n, err = repos.AuditEntries().CountForEntity(context.Background(), entityType, id, audit.ActionAttemptedModification)
		return err
	})
	require.NoError(t, err)
	return n
}

// sale of qty units at 50.00 each, served from warehouse
func (h *harness) sale(t *testing.T, customer *uuid.UUID, product, warehouse uuid.UUID, qty int64) *SaleResponse {
	t.Helper()
	s, err := h.sales.CreateSale(context.Background(), "cashier", CreateSaleRequest{
		CustomerID:  customer,
		WarehouseID: &warehouse,
		Lines:       []CreateSaleLineInput{{ProductID: product, Quantity: qty, UnitPrice: dec("50.00")}},
	})
	require.NoError(t, err)
	return s
}

func TestSaleService_Checkout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 10)

	sale := h.sale(t, nil, product, wh, 2)
	assert.True(t, dec("100.00").Equal(sale.TotalAmount))
	_, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(2), reserved)

	paid, err := h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("60.00"), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "partially_paid", paid.PaymentStatus)
	assert.False(t, paid.IsLocked)

	paid, err = h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("40.00"), Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, "completed", paid.PaymentStatus)
	assert.True(t, paid.IsLocked)
	require.NotNil(t, paid.OriginalTotal)
	assert.True(t, dec("100.00").Equal(*paid.OriginalTotal))
	assert.Len(t, paid.Payments, 2)

	onHand, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(8), onHand)
	assert.Zero(t, reserved)
}

func TestSaleService_LockedSale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)

	sale := h.sale(t, nil, product, wh, 1)
	_, err := h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("50.00"), Method: "cash"})
	require.NoError(t, err)

	_, err = h.sales.UpdateSaleFinancials(ctx, "eve", sale.ID, UpdateSaleFinancialsRequest{DiscountAmount: dec("50.00")})
	assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
	_, err = h.sales.ApplyPayment(ctx, "eve", sale.ID, ApplyPaymentRequest{Amount: dec("1.00"), Method: "cash"})
	assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
	assert.Equal(t, int64(2), h.countAttempts(t, audit.EntitySale, sale.ID))

	stored, err := h.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(stored.TotalAmount))
	assert.True(t, stored.DiscountAmount.IsZero())
	assert.Len(t, stored.Payments, 1)

	onHand, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(4), onHand)
	assert.Zero(t, reserved)

	t.Run("status changes are rejected and audited", func(t *testing.T) {
		_, err := h.sales.CancelSale(ctx, "eve", sale.ID, "too late")
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, int64(3), h.countAttempts(t, audit.EntitySale, sale.ID))

		_, err = h.sales.RefundSale(ctx, "eve", sale.ID, "too late")
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, int64(4), h.countAttempts(t, audit.EntitySale, sale.ID))

		_, err = h.sales.UpdateSalePaymentStatus(ctx, "eve", sale.ID)
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, int64(5), h.countAttempts(t, audit.EntitySale, sale.ID))

		stored, err := h.sales.GetSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "completed", stored.PaymentStatus)
		assert.True(t, stored.IsLocked)
		assert.True(t, dec("50.00").Equal(stored.AmountPaid))
		assert.Len(t, stored.Payments, 1)

		onHand, reserved := h.level(t, product, wh)
		assert.Equal(t, int64(4), onHand)
		assert.Zero(t, reserved)
	})
}

func TestSaleService_RefundSale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)

	sale := h.sale(t, nil, product, wh, 3)
	_, err := h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("60.00"), Method: "cash"})
	require.NoError(t, err)

	refunded, err := h.sales.RefundSale(ctx, "manager", sale.ID, "damaged")
	require.NoError(t, err)
	assert.Equal(t, "refunded", refunded.PaymentStatus)
	assert.True(t, refunded.IsLocked)
	assert.True(t, refunded.AmountPaid.IsZero())
	require.Len(t, refunded.Payments, 2)
	assert.True(t, dec("-60.00").Equal(refunded.Payments[1].Amount))
	assert.Equal(t, "refund", refunded.Payments[1].Method)

	onHand, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(5), onHand)
	assert.Zero(t, reserved)

	_, err = h.sales.ApplyPayment(ctx, "eve", sale.ID, ApplyPaymentRequest{Amount: dec("10.00"), Method: "cash"})
	assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
	_, err = h.sales.CancelSale(ctx, "eve", sale.ID, "again")
	assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
	assert.Equal(t, int64(2), h.countAttempts(t, audit.EntitySale, sale.ID))

	stored, err := h.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "refunded", stored.PaymentStatus)
	assert.Len(t, stored.Payments, 2)
}

func TestSaleService_UpdateSalePaymentStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)

	sale := h.sale(t, nil, product, wh, 2)
	unpaid, err := h.sales.UpdateSalePaymentStatus(ctx, "cashier", sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", unpaid.PaymentStatus)

	_, err = h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("30.00"), Method: "cash"})
	require.NoError(t, err)
	partial, err := h.sales.UpdateSalePaymentStatus(ctx, "cashier", sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "partially_paid", partial.PaymentStatus)
	assert.False(t, partial.IsLocked)

	_, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(2), reserved)
	assert.Zero(t, h.countAttempts(t, audit.EntitySale, sale.ID))
}

func TestSaleService_CancelReleases(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)

	sale := h.sale(t, nil, product, wh, 3)
	_, err := h.sales.CancelSale(ctx, "cashier", sale.ID, "customer left")
	require.NoError(t, err)

	onHand, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(5), onHand)
	assert.Zero(t, reserved)
}

func TestSaleService_FulfillmentSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	a := h.warehouse(t, "A", 1)
	b := h.warehouse(t, "B", 2)
	h.receive(t, product, a, 3)
	h.receive(t, product, b, 12)

	sale, err := h.sales.CreateSale(ctx, "cashier", CreateSaleRequest{
		Lines: []CreateSaleLineInput{{ProductID: product, Quantity: 10, UnitPrice: dec("1.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, b, sale.Place.WarehouseID)

	_, err = h.sales.CreateSale(ctx, "cashier", CreateSaleRequest{
		Lines: []CreateSaleLineInput{{ProductID: product, Quantity: 4, UnitPrice: dec("1.00")}},
	})
	assert.ErrorIs(t, err, shared.ErrNoWarehouseAvailable)
}

func TestSaleService_ConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 7)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.sales.CreateSale(ctx, "cashier", CreateSaleRequest{
				WarehouseID: &wh,
				Lines:       []CreateSaleLineInput{{ProductID: product, Quantity: 2, UnitPrice: dec("1.00")}},
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	_, reserved := h.level(t, product, wh)
	assert.Equal(t, int64(6), reserved)
}

func TestReturnService_StoreCredit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)

	customer, err := h.customers.CreateCustomer(ctx, "admin", CreateCustomerRequest{Code: "C-1", Name: "Ada"})
	require.NoError(t, err)
	sale := h.sale(t, &customer.ID, product, wh, 2)
	_, err = h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("100.00"), Method: "cash"})
	require.NoError(t, err)

	refund := dec("25.00")
	r, err := h.returns.CreateReturn(ctx, "clerk", CreateReturnRequest{
		SaleID:       sale.ID,
		ReturnType:   "return",
		Lines:        []CreateReturnLineInput{{SaleLineID: sale.Lines[0].ID, Quantity: 1}},
		RefundAmount: &refund,
	})
	require.NoError(t, err)
	_, err = h.returns.ApproveReturn(ctx, "manager", r.ID)
	require.NoError(t, err)

	done, err := h.returns.ProcessReturn(ctx, "manager", r.ID, ProcessReturnRequest{Action: "store_credit"})
	require.NoError(t, err)
	assert.Equal(t, "processed", done.Status)
	assert.True(t, done.IsLocked)

	c, err := h.customers.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, dec("25.00").Equal(c.StoreCredit))

	stored, err := h.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Payments, 2)
	assert.True(t, dec("-25.00").Equal(stored.Payments[1].Amount))
	assert.True(t, dec("100.00").Equal(stored.TotalAmount))

	onHand, _ := h.level(t, product, wh)
	assert.Equal(t, int64(4), onHand)

	_, err = h.returns.UpdateReturnAmounts(ctx, "eve", r.ID, UpdateReturnAmountsRequest{TotalAmount: dec("50"), RefundAmount: dec("50")})
	assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
	assert.Equal(t, int64(1), h.countAttempts(t, audit.EntityReturn, r.ID))

	t.Run("processed return refuses further transitions", func(t *testing.T) {
		_, err := h.returns.ApproveReturn(ctx, "eve", r.ID)
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, int64(2), h.countAttempts(t, audit.EntityReturn, r.ID))

		_, err = h.returns.ProcessReturn(ctx, "eve", r.ID, ProcessReturnRequest{Action: "refund"})
		assert.ErrorIs(t, err, shared.ErrLockedRecordModification)
		assert.Equal(t, int64(3), h.countAttempts(t, audit.EntityReturn, r.ID))

		stored, err := h.returns.GetReturn(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "processed", stored.Status)
		assert.Equal(t, "store_credit", stored.Action)
		assert.True(t, dec("25.00").Equal(stored.RefundAmount))

		c, err := h.customers.GetCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, dec("25.00").Equal(c.StoreCredit))
		onHand, _ := h.level(t, product, wh)
		assert.Equal(t, int64(4), onHand)
	})
}

func TestReturnService_ReturnableQuantity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)
	sale := h.sale(t, nil, product, wh, 2)
	_, err := h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("100.00"), Method: "cash"})
	require.NoError(t, err)

	req := CreateReturnRequest{
		SaleID:     sale.ID,
		ReturnType: "refund",
		Lines:      []CreateReturnLineInput{{SaleLineID: sale.Lines[0].ID, Quantity: 2}},
	}
	first, err := h.returns.CreateReturn(ctx, "clerk", req)
	require.NoError(t, err)
	_, err = h.returns.CreateReturn(ctx, "clerk", req)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = h.returns.RejectReturn(ctx, "manager", first.ID, "no receipt")
	require.NoError(t, err)
	_, err = h.returns.CreateReturn(ctx, "clerk", req)
	assert.NoError(t, err)
}

func TestReturnService_Exchange(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	replacement := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	h.receive(t, product, wh, 5)
	h.receive(t, replacement, wh, 5)

	sale := h.sale(t, nil, product, wh, 1)
	_, err := h.sales.ApplyPayment(ctx, "cashier", sale.ID, ApplyPaymentRequest{Amount: dec("50.00"), Method: "cash"})
	require.NoError(t, err)

	r, err := h.returns.CreateReturn(ctx, "clerk", CreateReturnRequest{
		SaleID:     sale.ID,
		ReturnType: "exchange",
		Lines: []CreateReturnLineInput{{
			SaleLineID:        sale.Lines[0].ID,
			Quantity:          1,
			ExchangeProductID: &replacement,
			ExchangeQuantity:  1,
			ExchangePrice:     dec("60.00"),
		}},
	})
	require.NoError(t, err)
	_, err = h.returns.ApproveReturn(ctx, "manager", r.ID)
	require.NoError(t, err)

	t.Run("unpaid difference aborts the whole process", func(t *testing.T) {
		_, err := h.returns.ProcessReturn(ctx, "manager", r.ID, ProcessReturnRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		stored, err := h.returns.GetReturn(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "approved", stored.Status)
		_, reserved := h.level(t, replacement, wh)
		assert.Zero(t, reserved)
	})

	t.Run("additional payment completes the exchange", func(t *testing.T) {
		done, err := h.returns.ProcessReturn(ctx, "manager", r.ID, ProcessReturnRequest{
			AdditionalPayment:       dec("10.00"),
			AdditionalPaymentMethod: "card",
		})
		require.NoError(t, err)
		require.NotNil(t, done.ExchangeSaleID)

		exchange, err := h.sales.GetSale(ctx, *done.ExchangeSaleID)
		require.NoError(t, err)
		assert.Equal(t, "completed", exchange.PaymentStatus)

		onHand, _ := h.level(t, replacement, wh)
		assert.Equal(t, int64(4), onHand)
		onHand, _ = h.level(t, product, wh)
		assert.Equal(t, int64(5), onHand)
	})
}

func TestPurchaseService_ReceiptPlaceMustBelongToWarehouse(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)
	other := h.warehouse(t, "OTHER", 2)
	foreign, err := h.stock.CreateLocation(ctx, inventoryapp.CreateLocationRequest{WarehouseID: other, Code: "F1"})
	require.NoError(t, err)

	po, err := h.purchases.CreatePurchaseOrder(ctx, "buyer", CreatePurchaseOrderRequest{
		SupplierID:  uuid.New(),
		WarehouseID: wh,
		Lines:       []CreatePurchaseOrderLineInput{{ProductID: product, Quantity: 5, UnitCost: dec("2.00")}},
	})
	require.NoError(t, err)
	for _, status := range []string{"pending", "approved", "ordered"} {
		_, err = h.purchases.AdvancePurchaseOrder(ctx, "manager", po.ID, status)
		require.NoError(t, err)
	}

	_, err = h.purchases.ReceiveGoods(ctx, "dock", ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		Lines:           []ReceiptLineRequest{{LineID: po.Lines[0].ID, Quantity: 2, LocationID: &foreign.ID}},
	})
	assert.ErrorIs(t, err, shared.ErrInconsistentLocation)

	stored, err := h.purchases.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "ordered", stored.Status)
	receipts, err := h.purchases.ListGoodsReceipts(ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestPurchaseService_ReceiveAndPutAway(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	product := uuid.New()
	wh := h.warehouse(t, "MAIN", 1)

	po, err := h.purchases.CreatePurchaseOrder(ctx, "buyer", CreatePurchaseOrderRequest{
		SupplierID:  uuid.New(),
		WarehouseID: wh,
		Lines:       []CreatePurchaseOrderLineInput{{ProductID: product, Quantity: 10, UnitCost: dec("3.00")}},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, h.stock.DeleteWarehouse(ctx, "admin", wh), shared.ErrInvalidTransition)
	for _, status := range []string{"pending", "approved", "ordered"} {
		_, err = h.purchases.AdvancePurchaseOrder(ctx, "manager", po.ID, status)
		require.NoError(t, err)
	}
	line := po.Lines[0].ID

	_, err = h.purchases.ReceiveGoods(ctx, "dock", ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		Lines:           []ReceiptLineRequest{{LineID: line, Quantity: 6}},
		PutAway:         true,
	})
	require.NoError(t, err)
	onHand, _ := h.level(t, product, wh)
	assert.Equal(t, int64(6), onHand)

	_, err = h.purchases.ReceiveGoods(ctx, "dock", ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		Lines:           []ReceiptLineRequest{{LineID: line, Quantity: 4}},
	})
	require.NoError(t, err)
	stored, err := h.purchases.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "received", stored.Status)
	onHand, _ = h.level(t, product, wh)
	assert.Equal(t, int64(6), onHand)

	_, err = h.purchases.PutAwayGoods(ctx, "dock", po.ID, PutAwayGoodsRequest{Lines: []ReceiptLineRequest{{LineID: line, Quantity: 4}}})
	require.NoError(t, err)
	onHand, _ = h.level(t, product, wh)
	assert.Equal(t, int64(10), onHand)

	receipts, err := h.purchases.ListGoodsReceipts(ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	_, err = h.purchases.ReceiveGoods(ctx, "dock", ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		Lines:           []ReceiptLineRequest{{LineID: line, Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.ErrorIs(t, h.purchases.DeletePurchaseOrder(ctx, "buyer", po.ID), shared.ErrInvalidTransition)
}
