package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var m models.CustomerModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "customer "+id.String())
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate finds a customer and locks the row
func (r *GormCustomerRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var m models.CustomerModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "customer "+id.String())
	}
	return m.ToDomain(), nil
}

// FindByCode finds a customer by its unique code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	var m models.CustomerModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		return nil, translateError(err, "customer "+code)
	}
	return m.ToDomain(), nil
}

// Save inserts a new customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *partner.Customer) error {
	m := models.CustomerModelFromDomain(c)
	return translateError(r.db.WithContext(ctx).Create(m).Error, "customer "+c.Code)
}

// SaveWithLock updates the customer when the stored version matches and bumps it
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, c *partner.Customer) error {
	m := models.CustomerModelFromDomain(c)
	m.Version = c.Version + 1

	n, err := updateVersioned(r.db.WithContext(ctx), &models.CustomerModel{}, c.ID, c.Version, m)
	if err != nil {
		return translateError(err, "customer "+c.Code)
	}
	if n == 0 {
		return optimisticLockError("customer", c.ID, c.Version)
	}
	c.IncrementVersion()
	return nil
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
