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

// PaymentStatus represents the status of a sale
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusCompleted     PaymentStatus = "completed"
	PaymentStatusCancelled     PaymentStatus = "cancelled"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusCompleted,
		PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status locks the sale.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCancelled || s == PaymentStatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusPartiallyPaid || target == PaymentStatusCompleted ||
			target == PaymentStatusCancelled || target == PaymentStatusRefunded
	case PaymentStatusPartiallyPaid:
		return target == PaymentStatusPending || target == PaymentStatusCompleted ||
			target == PaymentStatusCancelled || target == PaymentStatusRefunded
	}
	return false
}

// SaleLine is one product sold.
type SaleLine struct {
	ID         uuid.UUID        `json:"id"`
	LineNo     int              `json:"line_no"`
	ProductID  uuid.UUID        `json:"product_id"`
	VariantID  uuid.UUID        `json:"variant_id"`
	Quantity   int64            `json:"quantity"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	CostPrice  *decimal.Decimal `json:"cost_price,omitempty"`
}

// SaleLineInput describes a line to sell.
type SaleLineInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int64
	UnitPrice decimal.Decimal
	CostPrice *decimal.Decimal
}

// SaleFinancials is the set of money fields frozen by the terminal lock.
type SaleFinancials struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
}

// Sale is a checkout. Stock for every line is reserved at Place while the
// sale is open, committed when it completes and released when it is
// cancelled or refunded.
type Sale struct {
	shared.BaseAggregateRoot
	SaleNumber     string
	CustomerID     *uuid.UUID
	Place          inventory.Place
	TotalAmount    decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	AmountPaid     decimal.Decimal
	PaymentStatus  PaymentStatus
	IsLocked       bool
	LockedAt       *time.Time
	OriginalTotal  *decimal.Decimal
	CreatedBy      string
	CancelReason   string
	CompletedAt    *time.Time
	Lines          []SaleLine
	Payments       []Payment
}

// NewSale creates a pending sale. The place may be left empty and assigned
// later with AssignPlace, before any stock is reserved.
func NewSale(customerID *uuid.UUID, place inventory.Place, createdBy string, lines []SaleLineInput, tax, discount decimal.Decimal) (*Sale, error) {
	if strings.TrimSpace(createdBy) == "" {
		return nil, fmt.Errorf("%w: creator is required", shared.ErrInvalidInput)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: sale needs at least one line", shared.ErrInvalidInput)
	}
	if tax.IsNegative() || discount.IsNegative() {
		return nil, fmt.Errorf("%w: tax and discount cannot be negative", shared.ErrInvalidInput)
	}

	s := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Place:             place,
		TaxAmount:         tax,
		DiscountAmount:    discount,
		AmountPaid:        decimal.Zero,
		PaymentStatus:     PaymentStatusPending,
		CreatedBy:         createdBy,
		Lines:             make([]SaleLine, 0, len(lines)),
		Payments:          make([]Payment, 0),
	}
	s.SaleNumber = shared.NewDocumentNumber("SO", s.ID, s.CreatedAt)

	for i, in := range lines {
		if in.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: line %d has no product", shared.ErrInvalidInput, i+1)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be positive", shared.ErrInvalidInput, i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d unit price cannot be negative", shared.ErrInvalidInput, i+1)
		}
		s.Lines = append(s.Lines, SaleLine{
			ID:         uuid.New(),
			LineNo:     i + 1,
			ProductID:  in.ProductID,
			VariantID:  in.VariantID,
			Quantity:   in.Quantity,
			UnitPrice:  in.UnitPrice,
			TotalPrice: in.UnitPrice.Mul(decimal.NewFromInt(in.Quantity)),
			CostPrice:  in.CostPrice,
		})
	}
	if err := s.recalculateTotal(); err != nil {
		return nil, err
	}
	s.AddDomainEvent(NewSaleCreatedEvent(s))
	return s, nil
}

// AssignPlace sets the fulfillment place of a sale that has none yet.
func (s *Sale) AssignPlace(p inventory.Place) error {
	if !s.Place.IsZero() {
		return fmt.Errorf("%w: sale %s already has a warehouse", shared.ErrInvalidInput, s.SaleNumber)
	}
	if p.IsZero() {
		return fmt.Errorf("%w: warehouse is required", shared.ErrInvalidInput)
	}
	s.Place = p
	return nil
}

// LineKey is the ledger key a line is served from.
func (s *Sale) LineKey(l SaleLine) inventory.StockKey {
	return inventory.StockKey{ProductID: l.ProductID, VariantID: l.VariantID}.WithPlace(s.Place)
}

// ReservationEffects holds stock for every line. Applied once, at creation.
func (s *Sale) ReservationEffects() ([]inventory.LedgerEffect, error) {
	if s.Place.IsZero() {
		return nil, fmt.Errorf("%w: sale %s has no warehouse", shared.ErrInvalidInput, s.SaleNumber)
	}
	effects := make([]inventory.LedgerEffect, 0, len(s.Lines))
	for _, l := range s.Lines {
		effects = append(effects, inventory.Reserve(s.LineKey(l), l.Quantity))
	}
	return effects, nil
}

// Financials returns the current money fields.
func (s *Sale) Financials() SaleFinancials {
	return SaleFinancials{
		TotalAmount:    s.TotalAmount,
		TaxAmount:      s.TaxAmount,
		DiscountAmount: s.DiscountAmount,
		AmountPaid:     s.AmountPaid,
		PaymentStatus:  s.PaymentStatus,
	}
}

// Subtotal is the sum of line totals.
func (s *Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.TotalPrice)
	}
	return sum
}

// Outstanding is what remains to be paid.
func (s *Sale) Outstanding() decimal.Decimal {
	if s.AmountPaid.GreaterThanOrEqual(s.TotalAmount) {
		return decimal.Zero
	}
	return s.TotalAmount.Sub(s.AmountPaid)
}

// FindLine returns the line with the given id.
func (s *Sale) FindLine(id uuid.UUID) (*SaleLine, bool) {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return &s.Lines[i], true
		}
	}
	return nil, false
}

// GuardUnlocked fails with ErrLockedRecordModification once the sale is locked.
func (s *Sale) GuardUnlocked() error {
	if s.IsLocked {
		return fmt.Errorf("%w: sale %s is %s", shared.ErrLockedRecordModification, s.SaleNumber, s.PaymentStatus)
	}
	return nil
}

// ApplyPayment records a payment and recomputes the status. Reaching
// completed returns commit effects for every line.
func (s *Sale) ApplyPayment(amount decimal.Decimal, method PaymentMethod, reference string) (*Payment, []inventory.LedgerEffect, error) {
	if err := s.GuardUnlocked(); err != nil {
		return nil, nil, err
	}
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: payment amount must be positive", shared.ErrInvalidInput)
	}
	p, err := NewPayment(s.ID, amount, method, reference)
	if err != nil {
		return nil, nil, err
	}
	s.Payments = append(s.Payments, *p)
	s.AmountPaid = s.AmountPaid.Add(amount)
	effects, err := s.RecomputeStatus()
	if err != nil {
		return nil, nil, err
	}
	return p, effects, nil
}

// RecomputeStatus derives the status from amount paid against total:
// nothing paid is pending, part paid is partially_paid, and paid in full is
// completed. The first entry into completed locks the sale, snapshots the
// original total and returns commit effects.
func (s *Sale) RecomputeStatus() ([]inventory.LedgerEffect, error) {
	if err := s.GuardUnlocked(); err != nil {
		return nil, err
	}
	var target PaymentStatus
	switch {
	case !s.AmountPaid.IsPositive():
		target = PaymentStatusPending
	case s.AmountPaid.LessThan(s.TotalAmount):
		target = PaymentStatusPartiallyPaid
	default:
		target = PaymentStatusCompleted
	}
	if target == s.PaymentStatus {
		return nil, nil
	}
	if err := s.transition(target); err != nil {
		return nil, err
	}
	if target != PaymentStatusCompleted {
		return nil, nil
	}

	effects := make([]inventory.LedgerEffect, 0, len(s.Lines))
	for _, l := range s.Lines {
		effects = append(effects, inventory.Commit(s.LineKey(l), l.Quantity))
	}
	now := time.Now()
	s.CompletedAt = &now
	s.lock(now)
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return effects, nil
}

// Cancel abandons an open sale and releases its reservations.
func (s *Sale) Cancel(reason string) ([]inventory.LedgerEffect, error) {
	if err := s.GuardUnlocked(); err != nil {
		return nil, err
	}
	if err := s.transition(PaymentStatusCancelled); err != nil {
		return nil, err
	}
	s.CancelReason = reason
	s.lock(time.Now())
	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return s.releaseEffects(), nil
}

// Refund voids an open sale: whatever was paid is returned as a negative
// payment and reservations are released.
func (s *Sale) Refund(reason string) (*Payment, []inventory.LedgerEffect, error) {
	if err := s.GuardUnlocked(); err != nil {
		return nil, nil, err
	}
	if err := s.transition(PaymentStatusRefunded); err != nil {
		return nil, nil, err
	}
	var refund *Payment
	if s.AmountPaid.IsPositive() {
		p, err := NewPayment(s.ID, s.AmountPaid.Neg(), PaymentMethodRefund, "Refund for sale "+s.SaleNumber)
		if err != nil {
			return nil, nil, err
		}
		s.Payments = append(s.Payments, *p)
		s.AmountPaid = decimal.Zero
		refund = p
	}
	s.CancelReason = reason
	s.lock(time.Now())
	s.AddDomainEvent(NewSaleRefundedEvent(s))
	return refund, s.releaseEffects(), nil
}

// AttachRefund appends a negative payment to a sale regardless of its lock.
// Refunds issued by a processed return are the one money movement allowed
// after completion; they do not change the frozen financial fields.
func (s *Sale) AttachRefund(amount decimal.Decimal, method PaymentMethod, reference string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", shared.ErrInvalidInput)
	}
	p, err := NewPayment(s.ID, amount.Neg(), method, reference)
	if err != nil {
		return nil, err
	}
	s.Payments = append(s.Payments, *p)
	return p, nil
}

// UpdateFinancials changes tax and discount on an unlocked sale. The guard
// runs before anything is touched, so a locked sale is never modified.
func (s *Sale) UpdateFinancials(tax, discount decimal.Decimal) ([]inventory.LedgerEffect, error) {
	if err := s.GuardUnlocked(); err != nil {
		return nil, err
	}
	if tax.IsNegative() || discount.IsNegative() {
		return nil, fmt.Errorf("%w: tax and discount cannot be negative", shared.ErrInvalidInput)
	}
	s.TaxAmount = tax
	s.DiscountAmount = discount
	if err := s.recalculateTotal(); err != nil {
		return nil, err
	}
	s.Touch()
	return s.RecomputeStatus()
}

// NetPaid sums all payments, refunds included.
func (s *Sale) NetPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range s.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

func (s *Sale) releaseEffects() []inventory.LedgerEffect {
	if s.Place.IsZero() {
		return nil
	}
	effects := make([]inventory.LedgerEffect, 0, len(s.Lines))
	for _, l := range s.Lines {
		effects = append(effects, inventory.Release(s.LineKey(l), l.Quantity))
	}
	return effects
}

func (s *Sale) recalculateTotal() error {
	total := s.Subtotal().Add(s.TaxAmount).Sub(s.DiscountAmount)
	if total.IsNegative() {
		return fmt.Errorf("%w: discount exceeds subtotal plus tax", shared.ErrInvalidInput)
	}
	s.TotalAmount = total
	return nil
}

func (s *Sale) lock(at time.Time) {
	if s.IsLocked {
		return
	}
	s.IsLocked = true
	s.LockedAt = &at
	original := s.TotalAmount
	s.OriginalTotal = &original
}

func (s *Sale) transition(target PaymentStatus) error {
	if !s.PaymentStatus.CanTransitionTo(target) {
		return fmt.Errorf("%w: sale %s cannot move from %s to %s",
			shared.ErrInvalidTransition, s.SaleNumber, s.PaymentStatus, target)
	}
	s.PaymentStatus = target
	s.Touch()
	return nil
}
