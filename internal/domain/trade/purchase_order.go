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

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusPending           PurchaseOrderStatus = "pending"
	PurchaseOrderStatusApproved          PurchaseOrderStatus = "approved"
	PurchaseOrderStatusOrdered           PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusInTransit         PurchaseOrderStatus = "in_transit"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPending, PurchaseOrderStatusApproved,
		PurchaseOrderStatusOrdered, PurchaseOrderStatusInTransit, PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks the manual transitions. Receipt driven moves
// between ordered, partially_received and received go through Receive.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusPending || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusPending:
		return target == PurchaseOrderStatusApproved || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusApproved:
		return target == PurchaseOrderStatusOrdered || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusOrdered:
		return target == PurchaseOrderStatusInTransit || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusInTransit:
		return target == PurchaseOrderStatusCancelled
	}
	return false
}

// OpenPurchaseOrderStatuses are the statuses in which goods may still
// arrive at the order's warehouse.
var OpenPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft, PurchaseOrderStatusPending, PurchaseOrderStatusApproved,
	PurchaseOrderStatusOrdered, PurchaseOrderStatusInTransit, PurchaseOrderStatusPartiallyReceived,
}

// CanReceive reports whether goods may be received in this status.
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusOrdered || s == PurchaseOrderStatusInTransit || s == PurchaseOrderStatusPartiallyReceived
}

// PurchaseOrderLine is one product ordered from the supplier.
// Invariant: ProcessedQty <= ReceivedQty <= OrderedQty.
type PurchaseOrderLine struct {
	ID           uuid.UUID       `json:"id"`
	LineNo       int             `json:"line_no"`
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    uuid.UUID       `json:"variant_id"`
	OrderedQty   int64           `json:"ordered_qty"`
	ReceivedQty  int64           `json:"received_qty"`
	ProcessedQty int64           `json:"processed_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// RemainingQty is what the supplier still owes.
func (l PurchaseOrderLine) RemainingQty() int64 {
	return l.OrderedQty - l.ReceivedQty
}

// PendingPutAway is received stock not yet placed into inventory.
func (l PurchaseOrderLine) PendingPutAway() int64 {
	return l.ReceivedQty - l.ProcessedQty
}

// CheckQuantities verifies the line quantity chain.
func (l PurchaseOrderLine) CheckQuantities() error {
	if l.ProcessedQty < 0 || l.ProcessedQty > l.ReceivedQty || l.ReceivedQty > l.OrderedQty {
		return fmt.Errorf("%w: line %d quantities ordered=%d received=%d processed=%d",
			shared.ErrInvalidInput, l.LineNo, l.OrderedQty, l.ReceivedQty, l.ProcessedQty)
	}
	return nil
}

// PurchaseOrderLineInput describes a line to order.
type PurchaseOrderLineInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int64
	UnitCost  decimal.Decimal
}

// ReceiptLineInput is one line of a goods received note.
type ReceiptLineInput struct {
	LineID     uuid.UUID
	Quantity   int64
	LocationID uuid.UUID
	BinID      uuid.UUID
}

// PurchaseOrder is an order placed with a supplier for delivery to a warehouse.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber string
	SupplierID  uuid.UUID
	WarehouseID uuid.UUID
	Status      PurchaseOrderStatus
	TotalAmount decimal.Decimal
	TaxAmount   decimal.Decimal
	CreatedBy   string
	ApprovedBy  string
	OrderedAt   *time.Time
	ReceivedAt  *time.Time
	CancelledAt *time.Time
	Lines       []PurchaseOrderLine
}

// NewPurchaseOrder creates a draft purchase order.
func NewPurchaseOrder(supplierID, warehouseID uuid.UUID, createdBy string, lines []PurchaseOrderLineInput, tax decimal.Decimal) (*PurchaseOrder, error) {
	if supplierID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, fmt.Errorf("%w: supplier and warehouse are required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, fmt.Errorf("%w: creator is required", shared.ErrInvalidInput)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: purchase order needs at least one line", shared.ErrInvalidInput)
	}
	if tax.IsNegative() {
		return nil, fmt.Errorf("%w: tax cannot be negative", shared.ErrInvalidInput)
	}
	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		WarehouseID:       warehouseID,
		Status:            PurchaseOrderStatusDraft,
		TaxAmount:         tax,
		CreatedBy:         createdBy,
		Lines:             make([]PurchaseOrderLine, 0, len(lines)),
	}
	po.OrderNumber = shared.NewDocumentNumber("PO", po.ID, po.CreatedAt)

	total := tax
	for i, in := range lines {
		if in.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: line %d has no product", shared.ErrInvalidInput, i+1)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be positive", shared.ErrInvalidInput, i+1)
		}
		if in.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: line %d unit cost cannot be negative", shared.ErrInvalidInput, i+1)
		}
		po.Lines = append(po.Lines, PurchaseOrderLine{
			ID:         uuid.New(),
			LineNo:     i + 1,
			ProductID:  in.ProductID,
			VariantID:  in.VariantID,
			OrderedQty: in.Quantity,
			UnitCost:   in.UnitCost,
		})
		total = total.Add(in.UnitCost.Mul(decimal.NewFromInt(in.Quantity)))
	}
	po.TotalAmount = total
	return po, nil
}

// Advance performs a manual status move (submit, approve, order, ship).
func (o *PurchaseOrder) Advance(target PurchaseOrderStatus, actor string) error {
	if target == PurchaseOrderStatusCancelled {
		return o.Cancel()
	}
	if err := o.transition(target); err != nil {
		return err
	}
	now := time.Now()
	switch target {
	case PurchaseOrderStatusApproved:
		o.ApprovedBy = actor
	case PurchaseOrderStatusOrdered:
		o.OrderedAt = &now
	}
	return nil
}

// Cancel is allowed until the first receipt.
func (o *PurchaseOrder) Cancel() error {
	if o.TotalReceived() > 0 {
		return fmt.Errorf("%w: purchase order %s already has receipts", shared.ErrInvalidTransition, o.OrderNumber)
	}
	if err := o.transition(PurchaseOrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	return nil
}

// Receive books a goods received note against the order. Every line is
// checked against what is still owed before anything changes; with putAway
// the returned effects place the goods into inventory at once.
func (o *PurchaseOrder) Receive(actor string, lines []ReceiptLineInput, putAway bool) (*GoodsReceipt, []inventory.LedgerEffect, error) {
	if !o.Status.CanReceive() {
		return nil, nil, fmt.Errorf("%w: purchase order %s is %s and cannot receive goods",
			shared.ErrInvalidTransition, o.OrderNumber, o.Status)
	}
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: goods receipt needs at least one line", shared.ErrInvalidInput)
	}

	pending := make(map[uuid.UUID]int64, len(lines))
	for i, in := range lines {
		l, ok := o.findLine(in.LineID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: line %s is not part of purchase order %s", shared.ErrNotFound, in.LineID, o.OrderNumber)
		}
		if in.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: receipt line %d quantity must be positive", shared.ErrInvalidInput, i+1)
		}
		if in.BinID != uuid.Nil && in.LocationID == uuid.Nil {
			return nil, nil, fmt.Errorf("%w: receipt line %d has a bin without a location", shared.ErrInconsistentLocation, i+1)
		}
		pending[l.ID] += in.Quantity
		if pending[l.ID] > l.RemainingQty() {
			return nil, nil, fmt.Errorf("%w: receipt for line %d is %d but only %d remain",
				shared.ErrInvalidInput, l.LineNo, pending[l.ID], l.RemainingQty())
		}
	}

	grn := newGoodsReceipt(o, actor, putAway)
	var effects []inventory.LedgerEffect
	for _, in := range lines {
		l, _ := o.findLine(in.LineID)
		l.ReceivedQty += in.Quantity
		place := inventory.Place{WarehouseID: o.WarehouseID, LocationID: in.LocationID, BinID: in.BinID}
		if putAway {
			l.ProcessedQty += in.Quantity
			effects = append(effects, inventory.Receive(o.lineKey(*l, place), in.Quantity))
		}
		grn.addLine(*l, in.Quantity, place)
	}
	o.RecomputeStatus()
	o.AddDomainEvent(NewGoodsReceivedEvent(o, grn))
	return grn, effects, nil
}

// PutAway moves received goods into inventory.
func (o *PurchaseOrder) PutAway(lines []ReceiptLineInput) ([]inventory.LedgerEffect, error) {
	if o.Status != PurchaseOrderStatusPartiallyReceived && o.Status != PurchaseOrderStatusReceived {
		return nil, fmt.Errorf("%w: purchase order %s is %s, nothing to put away",
			shared.ErrInvalidTransition, o.OrderNumber, o.Status)
	}
	pending := make(map[uuid.UUID]int64, len(lines))
	for i, in := range lines {
		l, ok := o.findLine(in.LineID)
		if !ok {
			return nil, fmt.Errorf("%w: line %s is not part of purchase order %s", shared.ErrNotFound, in.LineID, o.OrderNumber)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: put-away line %d quantity must be positive", shared.ErrInvalidInput, i+1)
		}
		pending[l.ID] += in.Quantity
		if pending[l.ID] > l.PendingPutAway() {
			return nil, fmt.Errorf("%w: put-away for line %d is %d but only %d are waiting",
				shared.ErrInvalidInput, l.LineNo, pending[l.ID], l.PendingPutAway())
		}
	}

	effects := make([]inventory.LedgerEffect, 0, len(lines))
	for _, in := range lines {
		l, _ := o.findLine(in.LineID)
		l.ProcessedQty += in.Quantity
		place := inventory.Place{WarehouseID: o.WarehouseID, LocationID: in.LocationID, BinID: in.BinID}
		effects = append(effects, inventory.Receive(o.lineKey(*l, place), in.Quantity))
	}
	o.Touch()
	return effects, nil
}

// RecomputeStatus derives the receipt status from line totals: nothing
// received is ordered, part received is partially_received and everything
// received is received.
func (o *PurchaseOrder) RecomputeStatus() {
	received, ordered := o.TotalReceived(), o.TotalOrdered()
	switch {
	case received == 0:
		o.Status = PurchaseOrderStatusOrdered
	case received < ordered:
		o.Status = PurchaseOrderStatusPartiallyReceived
	default:
		o.Status = PurchaseOrderStatusReceived
		if o.ReceivedAt == nil {
			now := time.Now()
			o.ReceivedAt = &now
		}
	}
	o.Touch()
}

// TotalOrdered sums ordered quantities.
func (o *PurchaseOrder) TotalOrdered() int64 {
	var n int64
	for _, l := range o.Lines {
		n += l.OrderedQty
	}
	return n
}

// TotalReceived sums received quantities.
func (o *PurchaseOrder) TotalReceived() int64 {
	var n int64
	for _, l := range o.Lines {
		n += l.ReceivedQty
	}
	return n
}

// CanDelete reports whether the order and its lines may be removed.
func (o *PurchaseOrder) CanDelete() bool {
	return o.Status == PurchaseOrderStatusDraft
}

func (o *PurchaseOrder) lineKey(l PurchaseOrderLine, p inventory.Place) inventory.StockKey {
	return inventory.StockKey{ProductID: l.ProductID, VariantID: l.VariantID}.WithPlace(p)
}

func (o *PurchaseOrder) findLine(id uuid.UUID) (*PurchaseOrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

func (o *PurchaseOrder) transition(target PurchaseOrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: purchase order %s cannot move from %s to %s",
			shared.ErrInvalidTransition, o.OrderNumber, o.Status, target)
	}
	o.Status = target
	o.Touch()
	return nil
}
