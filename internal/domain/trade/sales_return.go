package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReturnType is what the customer asked for.
type ReturnType string

const (
	ReturnTypeReturn   ReturnType = "return"
	ReturnTypeExchange ReturnType = "exchange"
	ReturnTypeRefund   ReturnType = "refund"
)

// IsValid checks if the type is known
func (t ReturnType) IsValid() bool {
	return t == ReturnTypeReturn || t == ReturnTypeExchange || t == ReturnTypeRefund
}

// ReturnStatus represents the status of a sales return
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusProcessed ReturnStatus = "processed"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusProcessed:
		return true
	}
	return false
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return target == ReturnStatusApproved || target == ReturnStatusRejected
	case ReturnStatusApproved:
		return target == ReturnStatusProcessed
	}
	return false
}

// ReturnAction is how a processed return settles with the customer.
type ReturnAction string

const (
	ReturnActionRefund      ReturnAction = "refund"
	ReturnActionStoreCredit ReturnAction = "store_credit"
	ReturnActionExchange    ReturnAction = "exchange"
)

// IsValid checks if the action is known
func (a ReturnAction) IsValid() bool {
	return a == ReturnActionRefund || a == ReturnActionStoreCredit || a == ReturnActionExchange
}

// RestockType decides whether returned goods go straight back on hand.
type RestockType string

const (
	RestockNormal         RestockType = "normal"
	RestockQualityControl RestockType = "quality_control"
)

// ReturnLine returns part of one sale line, optionally swapping it for
// another product.
type ReturnLine struct {
	ID                uuid.UUID       `json:"id"`
	LineNo            int             `json:"line_no"`
	SaleLineID        uuid.UUID       `json:"sale_line_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	VariantID         uuid.UUID       `json:"variant_id"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Returned          bool            `json:"returned"`
	ExchangeProductID uuid.UUID       `json:"exchange_product_id"`
	ExchangeVariantID uuid.UUID       `json:"exchange_variant_id"`
	ExchangeQuantity  int64           `json:"exchange_quantity"`
	ExchangePrice     decimal.Decimal `json:"exchange_price"`
}

// HasExchange reports whether the line names a replacement product.
func (l ReturnLine) HasExchange() bool {
	return l.ExchangeProductID != uuid.Nil && l.ExchangeQuantity > 0
}

// ReturnLineInput describes a line to return.
type ReturnLineInput struct {
	SaleLineID        uuid.UUID
	Quantity          int64
	ExchangeProductID uuid.UUID
	ExchangeVariantID uuid.UUID
	ExchangeQuantity  int64
	ExchangePrice     decimal.Decimal
}

// ReturnAmounts is the money part of a return frozen by the lock.
type ReturnAmounts struct {
	TotalAmount  decimal.Decimal `json:"total_amount"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// ProcessOptions controls how an approved return is processed.
type ProcessOptions struct {
	Action      ReturnAction
	Place       inventory.Place
	RestockType RestockType
}

// SalesReturn takes goods back from a completed sale.
type SalesReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber   string
	SaleID         uuid.UUID
	CustomerID     *uuid.UUID
	ReturnType     ReturnType
	Status         ReturnStatus
	TotalAmount    decimal.Decimal
	RefundAmount   decimal.Decimal
	Reason         string
	Action         ReturnAction
	RestockType    RestockType
	Restock        inventory.Place
	ExchangeSaleID *uuid.UUID
	CreatedBy      string
	ApprovedBy     string
	ApprovedAt     *time.Time
	ProcessedBy    string
	ProcessedAt    *time.Time
	IsLocked       bool
	LockedAt       *time.Time
	Lines          []ReturnLine
}

// NewSalesReturn creates a pending return against a completed sale.
// alreadyReturned maps sale line ids to quantities on earlier, not rejected
// returns. A nil refund defaults to the full total.
func NewSalesReturn(
	sale *Sale,
	returnType ReturnType,
	reason, createdBy string,
	lines []ReturnLineInput,
	refund *decimal.Decimal,
	alreadyReturned map[uuid.UUID]int64,
) (*SalesReturn, error) {
	if sale == nil {
		return nil, fmt.Errorf("%w: original sale is required", shared.ErrInvalidInput)
	}
	if sale.PaymentStatus != PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: sale %s is %s, only completed sales can be returned",
			shared.ErrInvalidTransition, sale.SaleNumber, sale.PaymentStatus)
	}
	if !returnType.IsValid() {
		return nil, fmt.Errorf("%w: unknown return type %q", shared.ErrInvalidInput, returnType)
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, fmt.Errorf("%w: creator is required", shared.ErrInvalidInput)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: return needs at least one line", shared.ErrInvalidInput)
	}

	r := &SalesReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SaleID:            sale.ID,
		CustomerID:        sale.CustomerID,
		ReturnType:        returnType,
		Status:            ReturnStatusPending,
		Reason:            reason,
		CreatedBy:         createdBy,
		RestockType:       RestockNormal,
		Lines:             make([]ReturnLine, 0, len(lines)),
	}
	r.ReturnNumber = shared.NewDocumentNumber("RT", r.ID, r.CreatedAt)

	requested := make(map[uuid.UUID]int64, len(lines))
	total := decimal.Zero
	for i, in := range lines {
		sl, ok := sale.FindLine(in.SaleLineID)
		if !ok {
			return nil, fmt.Errorf("%w: sale line %s is not part of sale %s", shared.ErrNotFound, in.SaleLineID, sale.SaleNumber)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be positive", shared.ErrInvalidInput, i+1)
		}
		requested[sl.ID] += in.Quantity
		if left := sl.Quantity - alreadyReturned[sl.ID]; requested[sl.ID] > left {
			return nil, fmt.Errorf("%w: line %d returns %d but only %d remain returnable",
				shared.ErrInvalidInput, i+1, requested[sl.ID], left)
		}
		if (in.ExchangeProductID != uuid.Nil) != (in.ExchangeQuantity > 0) {
			return nil, fmt.Errorf("%w: line %d exchange needs both product and quantity", shared.ErrInvalidInput, i+1)
		}
		if in.ExchangePrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d exchange price cannot be negative", shared.ErrInvalidInput, i+1)
		}
		line := ReturnLine{
			ID:                uuid.New(),
			LineNo:            i + 1,
			SaleLineID:        sl.ID,
			ProductID:         sl.ProductID,
			VariantID:         sl.VariantID,
			Quantity:          in.Quantity,
			UnitPrice:         sl.UnitPrice,
			ExchangeProductID: in.ExchangeProductID,
			ExchangeVariantID: in.ExchangeVariantID,
			ExchangeQuantity:  in.ExchangeQuantity,
			ExchangePrice:     in.ExchangePrice,
		}
		r.Lines = append(r.Lines, line)
		total = total.Add(sl.UnitPrice.Mul(decimal.NewFromInt(in.Quantity)))
	}
	if returnType == ReturnTypeExchange && len(r.ExchangeLines()) == 0 {
		return nil, fmt.Errorf("%w: exchange return needs at least one replacement product", shared.ErrInvalidInput)
	}

	refundAmount := total
	if refund != nil {
		refundAmount = *refund
	}
	if err := r.setAmounts(total, refundAmount); err != nil {
		return nil, err
	}
	return r, nil
}

// Amounts returns the current money fields.
func (r *SalesReturn) Amounts() ReturnAmounts {
	return ReturnAmounts{TotalAmount: r.TotalAmount, RefundAmount: r.RefundAmount}
}

// ExchangeLines returns the replacement products as sale lines.
func (r *SalesReturn) ExchangeLines() []SaleLineInput {
	var out []SaleLineInput
	for _, l := range r.Lines {
		if l.HasExchange() {
			out = append(out, SaleLineInput{
				ProductID: l.ExchangeProductID,
				VariantID: l.ExchangeVariantID,
				Quantity:  l.ExchangeQuantity,
				UnitPrice: l.ExchangePrice,
			})
		}
	}
	return out
}

// DefaultAction maps the return type to a settlement when the caller does
// not pick one.
func (r *SalesReturn) DefaultAction() ReturnAction {
	switch r.ReturnType {
	case ReturnTypeExchange:
		return ReturnActionExchange
	case ReturnTypeReturn:
		if r.CustomerID != nil {
			return ReturnActionStoreCredit
		}
	}
	return ReturnActionRefund
}

// Approve moves pending → approved.
func (r *SalesReturn) Approve(actor string) error {
	if err := r.GuardUnlocked(); err != nil {
		return err
	}
	if err := r.transition(ReturnStatusApproved); err != nil {
		return err
	}
	now := time.Now()
	r.ApprovedBy = actor
	r.ApprovedAt = &now
	return nil
}

// Reject moves pending → rejected. Nothing was restocked, so there is no
// ledger effect.
func (r *SalesReturn) Reject(actor, reason string) error {
	if err := r.GuardUnlocked(); err != nil {
		return err
	}
	if err := r.transition(ReturnStatusRejected); err != nil {
		return err
	}
	r.ApprovedBy = actor
	if reason != "" {
		r.Reason = reason
	}
	return nil
}

// Process settles an approved return. Lines are marked returned and, unless
// the goods go to quality control, the returned effects receive them at
// opts.Place. The caller applies the refund, credit or exchange side effects.
func (r *SalesReturn) Process(actor string, opts ProcessOptions) ([]inventory.LedgerEffect, error) {
	if err := r.GuardUnlocked(); err != nil {
		return nil, err
	}
	if r.Status != ReturnStatusApproved {
		return nil, fmt.Errorf("%w: return %s is %s, only approved returns can be processed",
			shared.ErrInvalidTransition, r.ReturnNumber, r.Status)
	}
	if !opts.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown return action %q", shared.ErrInvalidInput, opts.Action)
	}
	if opts.Action == ReturnActionStoreCredit && r.CustomerID == nil {
		return nil, fmt.Errorf("%w: store credit needs a customer", shared.ErrInvalidInput)
	}
	if opts.Action == ReturnActionExchange && len(r.ExchangeLines()) == 0 {
		return nil, fmt.Errorf("%w: return %s has no replacement products", shared.ErrInvalidInput, r.ReturnNumber)
	}
	if opts.Place.IsZero() {
		return nil, fmt.Errorf("%w: restock warehouse is required", shared.ErrInvalidInput)
	}
	restock := opts.RestockType
	if restock == "" {
		restock = RestockNormal
	}

	var effects []inventory.LedgerEffect
	for i := range r.Lines {
		l := &r.Lines[i]
		if restock == RestockNormal {
			key := inventory.StockKey{ProductID: l.ProductID, VariantID: l.VariantID}.WithPlace(opts.Place)
			effects = append(effects, inventory.Receive(key, l.Quantity))
		}
		l.Returned = true
	}

	if err := r.transition(ReturnStatusProcessed); err != nil {
		return nil, err
	}
	now := time.Now()
	r.Action = opts.Action
	r.RestockType = restock
	r.Restock = opts.Place
	r.ProcessedBy = actor
	r.ProcessedAt = &now
	r.IsLocked = true
	r.LockedAt = &now
	r.AddDomainEvent(NewReturnProcessedEvent(r))
	return effects, nil
}

// LinkExchangeSale records the sale opened for the replacement goods.
func (r *SalesReturn) LinkExchangeSale(saleID uuid.UUID) {
	r.ExchangeSaleID = &saleID
}

// GuardUnlocked fails with ErrLockedRecordModification once processed.
func (r *SalesReturn) GuardUnlocked() error {
	if r.IsLocked {
		return fmt.Errorf("%w: return %s is %s", shared.ErrLockedRecordModification, r.ReturnNumber, r.Status)
	}
	return nil
}

// UpdateAmounts changes total and refund on an unlocked return.
func (r *SalesReturn) UpdateAmounts(total, refund decimal.Decimal) error {
	if err := r.GuardUnlocked(); err != nil {
		return err
	}
	if err := r.setAmounts(total, refund); err != nil {
		return err
	}
	r.Touch()
	return nil
}

func (r *SalesReturn) setAmounts(total, refund decimal.Decimal) error {
	if total.IsNegative() || refund.IsNegative() {
		return fmt.Errorf("%w: amounts cannot be negative", shared.ErrInvalidInput)
	}
	if refund.GreaterThan(total) {
		return fmt.Errorf("%w: refund %s exceeds total %s", shared.ErrInvalidInput, refund, total)
	}
	r.TotalAmount = total
	r.RefundAmount = refund
	return nil
}

func (r *SalesReturn) transition(target ReturnStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: return %s cannot move from %s to %s",
			shared.ErrInvalidTransition, r.ReturnNumber, r.Status, target)
	}
	r.Status = target
	r.Touch()
	return nil
}
