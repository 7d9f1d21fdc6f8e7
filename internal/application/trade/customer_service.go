package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService manages customers and their store credit.
type CustomerService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(scope appshared.TransactionScope, logger *zap.Logger) *CustomerService {
	return &CustomerService{scope: scope, logger: logger}
}

// CreateCustomer creates a customer with no store credit.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor string, req CreateCustomerRequest) (*CustomerResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	c, err := partner.NewCustomer(req.Code, req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.Customers().FindByCode(ctx, c.Code); err == nil {
			return fmt.Errorf("%w: customer code %s", shared.ErrAlreadyExists, c.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := repos.Customers().Save(ctx, c); err != nil {
			return err
		}
		_, err := appshared.NewUnit(repos).Audit.Record(ctx, actor, audit.ActionCreate, audit.EntityCustomer, c.ID, nil, ToCustomerResponse(c))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer created", zap.String("customer_id", c.ID.String()), zap.String("code", c.Code))
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// GetCustomer returns a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	var resp CustomerResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		c, err := repos.Customers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToCustomerResponse(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
