package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
)

// StockRecordModel is the persistence model for one ledger row.
type StockRecordModel struct {
	AggregateModel
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:1;index:idx_stock_record_product,priority:1"`
	VariantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:2;index:idx_stock_record_product,priority:2"`
	WarehouseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:3;index"`
	LocationID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:4"`
	BinID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:5"`
	QtyOnHand     int64     `gorm:"not null;default:0"`
	QtyReserved   int64     `gorm:"not null;default:0"`
	MinStockLevel int64     `gorm:"not null;default:0"`
	LastUpdated   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// ToDomain converts the persistence model to a domain StockRecord.
func (m *StockRecordModel) ToDomain() *inventory.StockRecord {
	return &inventory.StockRecord{
		BaseAggregateRoot: m.Root(),
		Key:               m.Key(),
		QtyOnHand:         m.QtyOnHand,
		QtyReserved:       m.QtyReserved,
		MinStockLevel:     m.MinStockLevel,
		LastUpdated:       m.LastUpdated,
	}
}

// Key returns the stock key stored in the row.
func (m *StockRecordModel) Key() inventory.StockKey {
	return inventory.StockKey{
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		WarehouseID: m.WarehouseID,
		LocationID:  m.LocationID,
		BinID:       m.BinID,
	}
}

// FromDomain populates the persistence model from a domain StockRecord.
func (m *StockRecordModel) FromDomain(r *inventory.StockRecord) {
	m.SetRoot(r.BaseAggregateRoot)
	m.ProductID = r.Key.ProductID
	m.VariantID = r.Key.VariantID
	m.WarehouseID = r.Key.WarehouseID
	m.LocationID = r.Key.LocationID
	m.BinID = r.Key.BinID
	m.QtyOnHand = r.QtyOnHand
	m.QtyReserved = r.QtyReserved
	m.MinStockLevel = r.MinStockLevel
	m.LastUpdated = r.LastUpdated
}

// StockRecordModelFromDomain creates a new persistence model from a domain StockRecord.
func StockRecordModelFromDomain(r *inventory.StockRecord) *StockRecordModel {
	m := &StockRecordModel{}
	m.FromDomain(r)
	return m
}

// WarehouseModel is the persistence model for a warehouse.
type WarehouseModel struct {
	AggregateModel
	Code     string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(200);not null"`
	Priority int    `gorm:"not null;default:0"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse.
func (m *WarehouseModel) ToDomain() *inventory.Warehouse {
	return &inventory.Warehouse{
		BaseAggregateRoot: m.Root(),
		Code:              m.Code,
		Name:              m.Name,
		Priority:          m.Priority,
		IsActive:          m.IsActive,
	}
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse.
func WarehouseModelFromDomain(w *inventory.Warehouse) *WarehouseModel {
	m := &WarehouseModel{
		Code:     w.Code,
		Name:     w.Name,
		Priority: w.Priority,
		IsActive: w.IsActive,
	}
	m.SetRoot(w.BaseAggregateRoot)
	return m
}

// LocationModel is the persistence model for a location inside a warehouse.
type LocationModel struct {
	BaseModel
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_warehouse_code,priority:1"`
	Code        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_location_warehouse_code,priority:2"`
	Name        string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "locations"
}

// ToDomain converts the persistence model to a domain Location.
func (m *LocationModel) ToDomain() *inventory.Location {
	return &inventory.Location{
		BaseEntity:  m.Entity(),
		WarehouseID: m.WarehouseID,
		Code:        m.Code,
		Name:        m.Name,
	}
}

// LocationModelFromDomain creates a new persistence model from a domain Location.
func LocationModelFromDomain(l *inventory.Location) *LocationModel {
	m := &LocationModel{WarehouseID: l.WarehouseID, Code: l.Code, Name: l.Name}
	m.SetEntity(l.BaseEntity)
	return m
}

// BinModel is the persistence model for a bin inside a location.
type BinModel struct {
	BaseModel
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bin_location_code,priority:1"`
	Code       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_bin_location_code,priority:2"`
}

// TableName returns the table name for GORM
func (BinModel) TableName() string {
	return "bins"
}

// ToDomain converts the persistence model to a domain Bin.
func (m *BinModel) ToDomain() *inventory.Bin {
	return &inventory.Bin{
		BaseEntity: m.Entity(),
		LocationID: m.LocationID,
		Code:       m.Code,
	}
}

// BinModelFromDomain creates a new persistence model from a domain Bin.
func BinModelFromDomain(b *inventory.Bin) *BinModel {
	m := &BinModel{LocationID: b.LocationID, Code: b.Code}
	m.SetEntity(b.BaseEntity)
	return m
}

// TransferModel is the persistence model for the Transfer aggregate root.
type TransferModel struct {
	AggregateModel
	TransferNumber  string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	FromWarehouseID uuid.UUID                `gorm:"type:uuid;not null;index"`
	FromLocationID  uuid.UUID                `gorm:"type:uuid;not null"`
	FromBinID       uuid.UUID                `gorm:"type:uuid;not null"`
	ToWarehouseID   uuid.UUID                `gorm:"type:uuid;not null;index"`
	ToLocationID    uuid.UUID                `gorm:"type:uuid;not null"`
	ToBinID         uuid.UUID                `gorm:"type:uuid;not null"`
	Status          inventory.TransferStatus `gorm:"type:varchar(20);not null;index"`
	StockReserved   bool                     `gorm:"not null;default:false"`
	RequestedBy     string                   `gorm:"type:varchar(100)"`
	ApprovedBy      string                   `gorm:"type:varchar(100)"`
	RequestedAt     *time.Time
	ApprovedAt      *time.Time
	ShippedAt       *time.Time
	ReceivedAt      *time.Time
	CancelledAt     *time.Time
	Reason          string              `gorm:"type:text"`
	Lines           []TransferLineModel `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (TransferModel) TableName() string {
	return "transfers"
}

// ToDomain converts the persistence model to a domain Transfer.
func (m *TransferModel) ToDomain() *inventory.Transfer {
	t := &inventory.Transfer{
		BaseAggregateRoot: m.Root(),
		TransferNumber:    m.TransferNumber,
		From:              inventory.Place{WarehouseID: m.FromWarehouseID, LocationID: m.FromLocationID, BinID: m.FromBinID},
		To:                inventory.Place{WarehouseID: m.ToWarehouseID, LocationID: m.ToLocationID, BinID: m.ToBinID},
		Status:            m.Status,
		StockReserved:     m.StockReserved,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		RequestedAt:       m.RequestedAt,
		ApprovedAt:        m.ApprovedAt,
		ShippedAt:         m.ShippedAt,
		ReceivedAt:        m.ReceivedAt,
		CancelledAt:       m.CancelledAt,
		Reason:            m.Reason,
		Lines:             make([]inventory.TransferLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		t.Lines[i] = l.ToDomain()
	}
	return t
}

// FromDomain populates the persistence model from a domain Transfer.
func (m *TransferModel) FromDomain(t *inventory.Transfer) {
	m.SetRoot(t.BaseAggregateRoot)
	m.TransferNumber = t.TransferNumber
	m.FromWarehouseID = t.From.WarehouseID
	m.FromLocationID = t.From.LocationID
	m.FromBinID = t.From.BinID
	m.ToWarehouseID = t.To.WarehouseID
	m.ToLocationID = t.To.LocationID
	m.ToBinID = t.To.BinID
	m.Status = t.Status
	m.StockReserved = t.StockReserved
	m.RequestedBy = t.RequestedBy
	m.ApprovedBy = t.ApprovedBy
	m.RequestedAt = t.RequestedAt
	m.ApprovedAt = t.ApprovedAt
	m.ShippedAt = t.ShippedAt
	m.ReceivedAt = t.ReceivedAt
	m.CancelledAt = t.CancelledAt
	m.Reason = t.Reason
	m.Lines = make([]TransferLineModel, len(t.Lines))
	for i, l := range t.Lines {
		m.Lines[i] = TransferLineModelFromDomain(t.ID, l)
	}
}

// TransferModelFromDomain creates a new persistence model from a domain Transfer.
func TransferModelFromDomain(t *inventory.Transfer) *TransferModel {
	m := &TransferModel{}
	m.FromDomain(t)
	return m
}

// TransferLineModel is the persistence model for a transfer line.
type TransferLineModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransferID     uuid.UUID `gorm:"type:uuid;not null;index"`
	LineNo         int       `gorm:"not null"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	VariantID      uuid.UUID `gorm:"type:uuid;not null"`
	RequestedQty   int64     `gorm:"not null"`
	TransferredQty int64     `gorm:"not null;default:0"`
	ReceivedQty    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TransferLineModel) TableName() string {
	return "transfer_lines"
}

// ToDomain converts the persistence model to a domain TransferLine.
func (m TransferLineModel) ToDomain() inventory.TransferLine {
	return inventory.TransferLine{
		ID:             m.ID,
		LineNo:         m.LineNo,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		RequestedQty:   m.RequestedQty,
		TransferredQty: m.TransferredQty,
		ReceivedQty:    m.ReceivedQty,
	}
}

// TransferLineModelFromDomain creates a line model owned by transferID.
func TransferLineModelFromDomain(transferID uuid.UUID, l inventory.TransferLine) TransferLineModel {
	return TransferLineModel{
		ID:             l.ID,
		TransferID:     transferID,
		LineNo:         l.LineNo,
		ProductID:      l.ProductID,
		VariantID:      l.VariantID,
		RequestedQty:   l.RequestedQty,
		TransferredQty: l.TransferredQty,
		ReceivedQty:    l.ReceivedQty,
	}
}
