package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// BaseModel holds the columns every table shares.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) SetEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// AggregateModel adds the optimistic lock column. Repositories update with
// WHERE version = ? and treat zero affected rows as a lost race.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) SetRoot(a shared.BaseAggregateRoot) {
	m.SetEntity(a.BaseEntity)
	m.Version = a.Version
}

// Root rebuilds the aggregate header. Pending events are never stored, so
// the result has none.
func (m *AggregateModel) Root() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.Entity(), Version: m.Version}
}

// All lists the models in dependency order for AutoMigrate. Postgres
// deployments use the embedded SQL migrations instead.
func All() []any {
	return []any{
		// locations and the ledger
		&WarehouseModel{}, &LocationModel{}, &BinModel{},
		&StockRecordModel{},
		&TransferModel{}, &TransferLineModel{},
		// documents
		&CustomerModel{},
		&SaleModel{}, &SaleLineModel{}, &PaymentModel{},
		&SalesReturnModel{}, &ReturnLineModel{},
		&PurchaseOrderModel{}, &PurchaseOrderLineModel{},
		&GoodsReceiptModel{}, &GoodsReceiptLineModel{},
		// bookkeeping
		&AuditEntryModel{},
		&OutboxEntryModel{},
	}
}
