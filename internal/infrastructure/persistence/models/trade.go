package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	SaleNumber     string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID     *uuid.UUID          `gorm:"type:uuid;index"`
	WarehouseID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	LocationID     uuid.UUID           `gorm:"type:uuid;not null"`
	BinID          uuid.UUID           `gorm:"type:uuid;not null"`
	TotalAmount    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus  trade.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	IsLocked       bool                `gorm:"not null;default:false"`
	LockedAt       *time.Time
	OriginalTotal  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	CreatedBy      string              `gorm:"type:varchar(100)"`
	CancelReason   string              `gorm:"type:text"`
	CompletedAt    *time.Time
	Lines          []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
	Payments       []PaymentModel  `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *trade.Sale {
	s := &trade.Sale{
		BaseAggregateRoot: m.Root(),
		SaleNumber:        m.SaleNumber,
		CustomerID:        m.CustomerID,
		Place:             inventory.Place{WarehouseID: m.WarehouseID, LocationID: m.LocationID, BinID: m.BinID},
		TotalAmount:       m.TotalAmount,
		TaxAmount:         m.TaxAmount,
		DiscountAmount:    m.DiscountAmount,
		AmountPaid:        m.AmountPaid,
		PaymentStatus:     m.PaymentStatus,
		IsLocked:          m.IsLocked,
		LockedAt:          m.LockedAt,
		CreatedBy:         m.CreatedBy,
		CancelReason:      m.CancelReason,
		CompletedAt:       m.CompletedAt,
		Lines:             make([]trade.SaleLine, len(m.Lines)),
		Payments:          make([]trade.Payment, len(m.Payments)),
	}
	if m.OriginalTotal.Valid {
		total := m.OriginalTotal.Decimal
		s.OriginalTotal = &total
	}
	for i, l := range m.Lines {
		s.Lines[i] = l.ToDomain()
	}
	for i, p := range m.Payments {
		s.Payments[i] = p.ToDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.SetRoot(s.BaseAggregateRoot)
	m.SaleNumber = s.SaleNumber
	m.CustomerID = s.CustomerID
	m.WarehouseID = s.Place.WarehouseID
	m.LocationID = s.Place.LocationID
	m.BinID = s.Place.BinID
	m.TotalAmount = s.TotalAmount
	m.TaxAmount = s.TaxAmount
	m.DiscountAmount = s.DiscountAmount
	m.AmountPaid = s.AmountPaid
	m.PaymentStatus = s.PaymentStatus
	m.IsLocked = s.IsLocked
	m.LockedAt = s.LockedAt
	m.OriginalTotal = decimal.NullDecimal{}
	if s.OriginalTotal != nil {
		m.OriginalTotal = decimal.NewNullDecimal(*s.OriginalTotal)
	}
	m.CreatedBy = s.CreatedBy
	m.CancelReason = s.CancelReason
	m.CompletedAt = s.CompletedAt
	m.Lines = make([]SaleLineModel, len(s.Lines))
	for i, l := range s.Lines {
		m.Lines[i] = SaleLineModelFromDomain(s.ID, l)
	}
	m.Payments = make([]PaymentModel, len(s.Payments))
	for i, p := range s.Payments {
		m.Payments[i] = PaymentModelFromDomain(p)
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleLineModel is the persistence model for a sale line.
type SaleLineModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SaleID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	LineNo     int                 `gorm:"not null"`
	ProductID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	VariantID  uuid.UUID           `gorm:"type:uuid;not null"`
	Quantity   int64               `gorm:"not null"`
	UnitPrice  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	TotalPrice decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	CostPrice  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine.
func (m SaleLineModel) ToDomain() trade.SaleLine {
	l := trade.SaleLine{
		ID:         m.ID,
		LineNo:     m.LineNo,
		ProductID:  m.ProductID,
		VariantID:  m.VariantID,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		TotalPrice: m.TotalPrice,
	}
	if m.CostPrice.Valid {
		cost := m.CostPrice.Decimal
		l.CostPrice = &cost
	}
	return l
}

// SaleLineModelFromDomain creates a line model owned by saleID.
func SaleLineModelFromDomain(saleID uuid.UUID, l trade.SaleLine) SaleLineModel {
	m := SaleLineModel{
		ID:         l.ID,
		SaleID:     saleID,
		LineNo:     l.LineNo,
		ProductID:  l.ProductID,
		VariantID:  l.VariantID,
		Quantity:   l.Quantity,
		UnitPrice:  l.UnitPrice,
		TotalPrice: l.TotalPrice,
	}
	if l.CostPrice != nil {
		m.CostPrice = decimal.NewNullDecimal(*l.CostPrice)
	}
	return m
}

// PaymentModel is the persistence model for a payment or refund against a sale.
// Rows are insert-only.
type PaymentModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Method    trade.PaymentMethod `gorm:"type:varchar(30);not null"`
	Reference string              `gorm:"type:varchar(200)"`
	CreatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m PaymentModel) ToDomain() trade.Payment {
	return trade.Payment{
		ID:        m.ID,
		SaleID:    m.SaleID,
		Amount:    m.Amount,
		Method:    m.Method,
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p trade.Payment) PaymentModel {
	return PaymentModel{
		ID:        p.ID,
		SaleID:    p.SaleID,
		Amount:    p.Amount,
		Method:    p.Method,
		Reference: p.Reference,
		CreatedAt: p.CreatedAt,
	}
}

// SalesReturnModel is the persistence model for the SalesReturn aggregate root.
type SalesReturnModel struct {
	AggregateModel
	ReturnNumber       string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	SaleID             uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerID         *uuid.UUID         `gorm:"type:uuid;index"`
	ReturnType         trade.ReturnType   `gorm:"type:varchar(20);not null"`
	Status             trade.ReturnStatus `gorm:"type:varchar(20);not null;index"`
	TotalAmount        decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	RefundAmount       decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Reason             string             `gorm:"type:text"`
	Action             trade.ReturnAction `gorm:"type:varchar(20)"`
	RestockType        trade.RestockType  `gorm:"type:varchar(20)"`
	RestockWarehouseID uuid.UUID          `gorm:"type:uuid;not null"`
	RestockLocationID  uuid.UUID          `gorm:"type:uuid;not null"`
	RestockBinID       uuid.UUID          `gorm:"type:uuid;not null"`
	ExchangeSaleID     *uuid.UUID         `gorm:"type:uuid"`
	CreatedBy          string             `gorm:"type:varchar(100)"`
	ApprovedBy         string             `gorm:"type:varchar(100)"`
	ApprovedAt         *time.Time
	ProcessedBy        string `gorm:"type:varchar(100)"`
	ProcessedAt        *time.Time
	IsLocked           bool `gorm:"not null;default:false"`
	LockedAt           *time.Time
	Lines              []ReturnLineModel `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesReturnModel) TableName() string {
	return "sales_returns"
}

// ToDomain converts the persistence model to a domain SalesReturn.
func (m *SalesReturnModel) ToDomain() *trade.SalesReturn {
	r := &trade.SalesReturn{
		BaseAggregateRoot: m.Root(),
		ReturnNumber:      m.ReturnNumber,
		SaleID:            m.SaleID,
		CustomerID:        m.CustomerID,
		ReturnType:        m.ReturnType,
		Status:            m.Status,
		TotalAmount:       m.TotalAmount,
		RefundAmount:      m.RefundAmount,
		Reason:            m.Reason,
		Action:            m.Action,
		RestockType:       m.RestockType,
		Restock:           inventory.Place{WarehouseID: m.RestockWarehouseID, LocationID: m.RestockLocationID, BinID: m.RestockBinID},
		ExchangeSaleID:    m.ExchangeSaleID,
		CreatedBy:         m.CreatedBy,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		ProcessedBy:       m.ProcessedBy,
		ProcessedAt:       m.ProcessedAt,
		IsLocked:          m.IsLocked,
		LockedAt:          m.LockedAt,
		Lines:             make([]trade.ReturnLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		r.Lines[i] = l.ToDomain()
	}
	return r
}

// FromDomain populates the persistence model from a domain SalesReturn.
func (m *SalesReturnModel) FromDomain(r *trade.SalesReturn) {
	m.SetRoot(r.BaseAggregateRoot)
	m.ReturnNumber = r.ReturnNumber
	m.SaleID = r.SaleID
	m.CustomerID = r.CustomerID
	m.ReturnType = r.ReturnType
	m.Status = r.Status
	m.TotalAmount = r.TotalAmount
	m.RefundAmount = r.RefundAmount
	m.Reason = r.Reason
	m.Action = r.Action
	m.RestockType = r.RestockType
	m.RestockWarehouseID = r.Restock.WarehouseID
	m.RestockLocationID = r.Restock.LocationID
	m.RestockBinID = r.Restock.BinID
	m.ExchangeSaleID = r.ExchangeSaleID
	m.CreatedBy = r.CreatedBy
	m.ApprovedBy = r.ApprovedBy
	m.ApprovedAt = r.ApprovedAt
	m.ProcessedBy = r.ProcessedBy
	m.ProcessedAt = r.ProcessedAt
	m.IsLocked = r.IsLocked
	m.LockedAt = r.LockedAt
	m.Lines = make([]ReturnLineModel, len(r.Lines))
	for i, l := range r.Lines {
		m.Lines[i] = ReturnLineModelFromDomain(r.ID, l)
	}
}

// SalesReturnModelFromDomain creates a new persistence model from a domain SalesReturn.
func SalesReturnModelFromDomain(r *trade.SalesReturn) *SalesReturnModel {
	m := &SalesReturnModel{}
	m.FromDomain(r)
	return m
}

// ReturnLineModel is the persistence model for a return line.
type ReturnLineModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReturnID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo            int             `gorm:"not null"`
	SaleLineID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID         uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity          int64           `gorm:"not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Returned          bool            `gorm:"not null;default:false"`
	ExchangeProductID uuid.UUID       `gorm:"type:uuid;not null"`
	ExchangeVariantID uuid.UUID       `gorm:"type:uuid;not null"`
	ExchangeQuantity  int64           `gorm:"not null;default:0"`
	ExchangePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ReturnLineModel) TableName() string {
	return "return_lines"
}

// ToDomain converts the persistence model to a domain ReturnLine.
func (m ReturnLineModel) ToDomain() trade.ReturnLine {
	return trade.ReturnLine{
		ID:                m.ID,
		LineNo:            m.LineNo,
		SaleLineID:        m.SaleLineID,
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		Returned:          m.Returned,
		ExchangeProductID: m.ExchangeProductID,
		ExchangeVariantID: m.ExchangeVariantID,
		ExchangeQuantity:  m.ExchangeQuantity,
		ExchangePrice:     m.ExchangePrice,
	}
}

// ReturnLineModelFromDomain creates a line model owned by returnID.
func ReturnLineModelFromDomain(returnID uuid.UUID, l trade.ReturnLine) ReturnLineModel {
	return ReturnLineModel{
		ID:                l.ID,
		ReturnID:          returnID,
		LineNo:            l.LineNo,
		SaleLineID:        l.SaleLineID,
		ProductID:         l.ProductID,
		VariantID:         l.VariantID,
		Quantity:          l.Quantity,
		UnitPrice:         l.UnitPrice,
		Returned:          l.Returned,
		ExchangeProductID: l.ExchangeProductID,
		ExchangeVariantID: l.ExchangeVariantID,
		ExchangeQuantity:  l.ExchangeQuantity,
		ExchangePrice:     l.ExchangePrice,
	}
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID  uuid.UUID                 `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Status      trade.PurchaseOrderStatus `gorm:"type:varchar(20);not null;index"`
	TotalAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount   decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedBy   string                    `gorm:"type:varchar(100)"`
	ApprovedBy  string                    `gorm:"type:varchar(100)"`
	OrderedAt   *time.Time
	ReceivedAt  *time.Time
	CancelledAt *time.Time
	Lines       []PurchaseOrderLineModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	o := &trade.PurchaseOrder{
		BaseAggregateRoot: m.Root(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		WarehouseID:       m.WarehouseID,
		Status:            m.Status,
		TotalAmount:       m.TotalAmount,
		TaxAmount:         m.TaxAmount,
		CreatedBy:         m.CreatedBy,
		ApprovedBy:        m.ApprovedBy,
		OrderedAt:         m.OrderedAt,
		ReceivedAt:        m.ReceivedAt,
		CancelledAt:       m.CancelledAt,
		Lines:             make([]trade.PurchaseOrderLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		o.Lines[i] = l.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.SetRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.WarehouseID = o.WarehouseID
	m.Status = o.Status
	m.TotalAmount = o.TotalAmount
	m.TaxAmount = o.TaxAmount
	m.CreatedBy = o.CreatedBy
	m.ApprovedBy = o.ApprovedBy
	m.OrderedAt = o.OrderedAt
	m.ReceivedAt = o.ReceivedAt
	m.CancelledAt = o.CancelledAt
	m.Lines = make([]PurchaseOrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i] = PurchaseOrderLineModelFromDomain(o.ID, l)
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderLineModel is the persistence model for a purchase order line.
type PurchaseOrderLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null"`
	OrderedQty      int64           `gorm:"not null"`
	ReceivedQty     int64           `gorm:"not null;default:0"`
	ProcessedQty    int64           `gorm:"not null;default:0"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain PurchaseOrderLine.
func (m PurchaseOrderLineModel) ToDomain() trade.PurchaseOrderLine {
	return trade.PurchaseOrderLine{
		ID:           m.ID,
		LineNo:       m.LineNo,
		ProductID:    m.ProductID,
		VariantID:    m.VariantID,
		OrderedQty:   m.OrderedQty,
		ReceivedQty:  m.ReceivedQty,
		ProcessedQty: m.ProcessedQty,
		UnitCost:     m.UnitCost,
	}
}

// PurchaseOrderLineModelFromDomain creates a line model owned by orderID.
func PurchaseOrderLineModelFromDomain(orderID uuid.UUID, l trade.PurchaseOrderLine) PurchaseOrderLineModel {
	return PurchaseOrderLineModel{
		ID:              l.ID,
		PurchaseOrderID: orderID,
		LineNo:          l.LineNo,
		ProductID:       l.ProductID,
		VariantID:       l.VariantID,
		OrderedQty:      l.OrderedQty,
		ReceivedQty:     l.ReceivedQty,
		ProcessedQty:    l.ProcessedQty,
		UnitCost:        l.UnitCost,
	}
}

// GoodsReceiptModel is the persistence model for a goods received note.
type GoodsReceiptModel struct {
	ID              uuid.UUID               `gorm:"type:uuid;primaryKey"`
	ReceiptNumber   string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID               `gorm:"type:uuid;not null;index"`
	ReceivedBy      string                  `gorm:"type:varchar(100)"`
	ReceivedAt      time.Time               `gorm:"not null"`
	PutAway         bool                    `gorm:"not null;default:false"`
	Lines           []GoodsReceiptLineModel `gorm:"foreignKey:GoodsReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsReceiptModel) TableName() string {
	return "goods_receipts"
}

// ToDomain converts the persistence model to a domain GoodsReceipt.
func (m *GoodsReceiptModel) ToDomain() *trade.GoodsReceipt {
	g := &trade.GoodsReceipt{
		ID:              m.ID,
		ReceiptNumber:   m.ReceiptNumber,
		PurchaseOrderID: m.PurchaseOrderID,
		ReceivedBy:      m.ReceivedBy,
		ReceivedAt:      m.ReceivedAt,
		PutAway:         m.PutAway,
		Lines:           make([]trade.GoodsReceiptLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		g.Lines[i] = l.ToDomain()
	}
	return g
}

// GoodsReceiptModelFromDomain creates a new persistence model from a domain GoodsReceipt.
func GoodsReceiptModelFromDomain(g *trade.GoodsReceipt) *GoodsReceiptModel {
	m := &GoodsReceiptModel{
		ID:              g.ID,
		ReceiptNumber:   g.ReceiptNumber,
		PurchaseOrderID: g.PurchaseOrderID,
		ReceivedBy:      g.ReceivedBy,
		ReceivedAt:      g.ReceivedAt,
		PutAway:         g.PutAway,
		Lines:           make([]GoodsReceiptLineModel, len(g.Lines)),
	}
	for i, l := range g.Lines {
		m.Lines[i] = GoodsReceiptLineModel{
			ID:                  l.ID,
			GoodsReceiptID:      g.ID,
			PurchaseOrderLineID: l.PurchaseOrderLineID,
			ProductID:           l.ProductID,
			VariantID:           l.VariantID,
			Quantity:            l.Quantity,
			WarehouseID:         l.Place.WarehouseID,
			LocationID:          l.Place.LocationID,
			BinID:               l.Place.BinID,
		}
	}
	return m
}

// GoodsReceiptLineModel is the persistence model for a goods receipt line.
type GoodsReceiptLineModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	GoodsReceiptID      uuid.UUID `gorm:"type:uuid;not null;index"`
	PurchaseOrderLineID uuid.UUID `gorm:"type:uuid;not null"`
	ProductID           uuid.UUID `gorm:"type:uuid;not null"`
	VariantID           uuid.UUID `gorm:"type:uuid;not null"`
	Quantity            int64     `gorm:"not null"`
	WarehouseID         uuid.UUID `gorm:"type:uuid;not null"`
	LocationID          uuid.UUID `gorm:"type:uuid;not null"`
	BinID               uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (GoodsReceiptLineModel) TableName() string {
	return "goods_receipt_lines"
}

// ToDomain converts the persistence model to a domain GoodsReceiptLine.
func (m GoodsReceiptLineModel) ToDomain() trade.GoodsReceiptLine {
	return trade.GoodsReceiptLine{
		ID:                  m.ID,
		PurchaseOrderLineID: m.PurchaseOrderLineID,
		ProductID:           m.ProductID,
		VariantID:           m.VariantID,
		Quantity:            m.Quantity,
		Place:               inventory.Place{WarehouseID: m.WarehouseID, LocationID: m.LocationID, BinID: m.BinID},
	}
}
