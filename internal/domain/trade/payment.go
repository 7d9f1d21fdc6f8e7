package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod tells how money moved.
type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "cash"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodStoreCredit    PaymentMethod = "store_credit"
	PaymentMethodExchangeCredit PaymentMethod = "exchange_credit"
	PaymentMethodRefund         PaymentMethod = "refund"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodStoreCredit,
		PaymentMethodExchangeCredit, PaymentMethodRefund:
		return true
	}
	return false
}

// Payment is money received for, or returned against, a sale. Refunds are
// negative.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewPayment creates a payment record.
func NewPayment(saleID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string) (*Payment, error) {
	if saleID == uuid.Nil {
		return nil, fmt.Errorf("%w: payment needs a sale", shared.ErrInvalidInput)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: payment amount cannot be zero", shared.ErrInvalidInput)
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrInvalidInput, method)
	}
	return &Payment{
		ID:        uuid.New(),
		SaleID:    saleID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
		CreatedAt: time.Now(),
	}, nil
}

// IsRefund reports whether the payment gives money back.
func (p Payment) IsRefund() bool {
	return p.Amount.IsNegative()
}
