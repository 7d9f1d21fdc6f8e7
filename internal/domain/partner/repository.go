package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository persists customers.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindByIDForUpdate locks the customer row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, code string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
	// SaveWithLock updates the customer if the stored version still equals
	// c.Version and then bumps c.Version.
	SaveWithLock(ctx context.Context, c *Customer) error
}
