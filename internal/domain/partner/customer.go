package partner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer is a buyer that can hold store credit.
type Customer struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Email       string
	StoreCredit decimal.Decimal
}

// NewCustomer creates a customer with zero store credit.
func NewCustomer(code, name, email string) (*Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: customer code is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", shared.ErrInvalidInput)
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Email:             email,
		StoreCredit:       decimal.Zero,
	}, nil
}

// IssueStoreCredit adds amount to the customer's credit balance.
func (c *Customer) IssueStoreCredit(amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: store credit amount must be positive", shared.ErrInvalidInput)
	}
	old := c.StoreCredit
	c.StoreCredit = c.StoreCredit.Add(amount)
	c.Touch()
	c.AddDomainEvent(NewStoreCreditChangedEvent(c, old, reason))
	return nil
}

// RedeemStoreCredit spends amount of the customer's credit.
func (c *Customer) RedeemStoreCredit(amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: store credit amount must be positive", shared.ErrInvalidInput)
	}
	if c.StoreCredit.LessThan(amount) {
		return shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("store credit %s is less than %s", c.StoreCredit, amount))
	}
	old := c.StoreCredit
	c.StoreCredit = c.StoreCredit.Sub(amount)
	c.Touch()
	c.AddDomainEvent(NewStoreCreditChangedEvent(c, old, reason))
	return nil
}

const (
	AggregateTypeCustomer       = "Customer"
	EventTypeStoreCreditChanged = "store_credit_changed"
)

// StoreCreditChangedEvent is raised when a customer's credit balance moves.
type StoreCreditChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	Code       string          `json:"code"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Reason     string          `json:"reason"`
}

// NewStoreCreditChangedEvent creates a StoreCreditChangedEvent
func NewStoreCreditChangedEvent(c *Customer, old decimal.Decimal, reason string) *StoreCreditChangedEvent {
	return &StoreCreditChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStoreCreditChanged, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		Code:            c.Code,
		OldBalance:      old,
		NewBalance:      c.StoreCredit,
		Reason:          reason,
	}
}
