package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its lines and payments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a sale and locks its header row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormSaleRepository) find(q *gorm.DB, id uuid.UUID) (*trade.Sale, error) {
	var m models.SaleModel
	err := q.
		Preload("Lines", orderedLines).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "sale "+id.String())
	}
	return m.ToDomain(), nil
}

// Save inserts a new sale with its lines and payments
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	m := models.SaleModelFromDomain(sale)
	return translateError(r.db.WithContext(ctx).Create(m).Error, "sale "+sale.SaleNumber)
}

// SaveWithLock updates the header and lines when the stored version matches,
// bumps the version and appends payments that are not stored yet. Stored
// payments are never rewritten.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	db := r.db.WithContext(ctx)
	m := models.SaleModelFromDomain(sale)
	m.Version = sale.Version + 1

	n, err := updateVersioned(db, &models.SaleModel{}, sale.ID, sale.Version, m, "Lines", "Payments")
	if err != nil {
		return err
	}
	if n == 0 {
		return optimisticLockError("sale", sale.ID, sale.Version)
	}

	keep := make([]uuid.UUID, len(m.Lines))
	for i, l := range m.Lines {
		keep[i] = l.ID
	}
	if err := syncLines(db, m.Lines, "sale_id", sale.ID, keep); err != nil {
		return err
	}
	if len(m.Payments) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m.Payments).Error; err != nil {
			return err
		}
	}
	sale.IncrementVersion()
	return nil
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
