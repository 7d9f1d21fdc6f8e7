package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalesReturnRepository implements trade.ReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// FindByID finds a return with its lines
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a return and locks its header row
func (r *GormSalesReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormSalesReturnRepository) find(q *gorm.DB, id uuid.UUID) (*trade.SalesReturn, error) {
	var m models.SalesReturnModel
	if err := q.Preload("Lines", orderedLines).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "sales return "+id.String())
	}
	return m.ToDomain(), nil
}

// Save inserts a new return with its lines
func (r *GormSalesReturnRepository) Save(ctx context.Context, ret *trade.SalesReturn) error {
	m := models.SalesReturnModelFromDomain(ret)
	return translateError(r.db.WithContext(ctx).Create(m).Error, "sales return "+ret.ReturnNumber)
}

// SaveWithLock updates the return when the stored version matches and bumps it
func (r *GormSalesReturnRepository) SaveWithLock(ctx context.Context, ret *trade.SalesReturn) error {
	db := r.db.WithContext(ctx)
	m := models.SalesReturnModelFromDomain(ret)
	m.Version = ret.Version + 1

	n, err := updateVersioned(db, &models.SalesReturnModel{}, ret.ID, ret.Version, m, "Lines")
	if err != nil {
		return err
	}
	if n == 0 {
		return optimisticLockError("sales return", ret.ID, ret.Version)
	}

	keep := make([]uuid.UUID, len(m.Lines))
	for i, l := range m.Lines {
		keep[i] = l.ID
	}
	if err := syncLines(db, m.Lines, "return_id", ret.ID, keep); err != nil {
		return err
	}
	ret.IncrementVersion()
	return nil
}

// ReturnedQuantities sums the quantities already claimed against each line
// of a sale by returns that were not rejected
func (r *GormSalesReturnRepository) ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		SaleLineID uuid.UUID
		Total      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ReturnLineModel{}).
		Select("return_lines.sale_line_id AS sale_line_id, SUM(return_lines.quantity) AS total").
		Joins("JOIN sales_returns ON sales_returns.id = return_lines.return_id").
		Where("sales_returns.sale_id = ? AND sales_returns.status <> ?", saleID, trade.ReturnStatusRejected).
		Group("return_lines.sale_line_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.SaleLineID] = row.Total
	}
	return out, nil
}

var _ trade.ReturnRepository = (*GormSalesReturnRepository)(nil)
