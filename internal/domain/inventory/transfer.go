package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// TransferStatus represents the status of a warehouse transfer
type TransferStatus string

const (
	TransferStatusDraft     TransferStatus = "draft"
	TransferStatusRequested TransferStatus = "requested"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusReceived  TransferStatus = "received"
	TransferStatusRejected  TransferStatus = "rejected"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusDraft, TransferStatusRequested, TransferStatusApproved, TransferStatusInTransit,
		TransferStatusReceived, TransferStatusRejected, TransferStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusReceived || s == TransferStatusRejected || s == TransferStatusCancelled
}

// OpenTransferStatuses are the statuses in which a transfer still expects
// to move stock between its warehouses.
var OpenTransferStatuses = []TransferStatus{
	TransferStatusDraft, TransferStatusRequested, TransferStatusApproved, TransferStatusInTransit,
}

// CanTransitionTo checks if the status can transition to the target status
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusDraft:
		return target == TransferStatusRequested || target == TransferStatusRejected || target == TransferStatusCancelled
	case TransferStatusRequested:
		return target == TransferStatusApproved || target == TransferStatusRejected || target == TransferStatusCancelled
	case TransferStatusApproved:
		return target == TransferStatusInTransit || target == TransferStatusReceived ||
			target == TransferStatusRejected || target == TransferStatusCancelled
	case TransferStatusInTransit:
		return target == TransferStatusReceived
	}
	return false
}

// TransferLine is one product moved by a transfer.
// Invariant: ReceivedQty <= TransferredQty <= RequestedQty.
type TransferLine struct {
	ID             uuid.UUID `json:"id"`
	LineNo         int       `json:"line_no"`
	ProductID      uuid.UUID `json:"product_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	RequestedQty   int64     `json:"requested_qty"`
	TransferredQty int64     `json:"transferred_qty"`
	ReceivedQty    int64     `json:"received_qty"`
}

// CheckQuantities verifies the line quantity chain.
func (l TransferLine) CheckQuantities() error {
	if l.ReceivedQty < 0 || l.ReceivedQty > l.TransferredQty || l.TransferredQty > l.RequestedQty {
		return fmt.Errorf("%w: line %d quantities requested=%d transferred=%d received=%d",
			shared.ErrInvalidInput, l.LineNo, l.RequestedQty, l.TransferredQty, l.ReceivedQty)
	}
	return nil
}

// TransferLineInput describes a requested line.
type TransferLineInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int64
}

// Transfer moves stock between two places.
type Transfer struct {
	shared.BaseAggregateRoot
	TransferNumber string
	From           Place
	To             Place
	Status         TransferStatus
	StockReserved  bool
	RequestedBy    string
	ApprovedBy     string
	RequestedAt    *time.Time
	ApprovedAt     *time.Time
	ShippedAt      *time.Time
	ReceivedAt     *time.Time
	CancelledAt    *time.Time
	Reason         string
	Lines          []TransferLine
}

// NewTransfer creates a draft transfer.
func NewTransfer(number string, from, to Place, createdBy string, lines []TransferLineInput) (*Transfer, error) {
	if strings.TrimSpace(number) == "" {
		return nil, fmt.Errorf("%w: transfer number is required", shared.ErrInvalidInput)
	}
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: source and destination warehouses are required", shared.ErrInvalidInput)
	}
	if from == to {
		return nil, fmt.Errorf("%w: source and destination are the same place", shared.ErrInconsistentLocation)
	}
	if from.BinID != uuid.Nil && from.LocationID == uuid.Nil || to.BinID != uuid.Nil && to.LocationID == uuid.Nil {
		return nil, fmt.Errorf("%w: bin given without a location", shared.ErrInconsistentLocation)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: transfer needs at least one line", shared.ErrInvalidInput)
	}

	t := &Transfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransferNumber:    number,
		From:              from,
		To:                to,
		Status:            TransferStatusDraft,
		RequestedBy:       createdBy,
		Lines:             make([]TransferLine, 0, len(lines)),
	}
	for i, in := range lines {
		if in.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: line %d has no product", shared.ErrInvalidInput, i+1)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be positive", shared.ErrInvalidInput, i+1)
		}
		t.Lines = append(t.Lines, TransferLine{
			ID:           uuid.New(),
			LineNo:       i + 1,
			ProductID:    in.ProductID,
			VariantID:    in.VariantID,
			RequestedQty: in.Quantity,
		})
	}
	return t, nil
}

// SourceKey is the ledger key a line draws from.
func (t *Transfer) SourceKey(l TransferLine) StockKey {
	return StockKey{ProductID: l.ProductID, VariantID: l.VariantID}.WithPlace(t.From)
}

// DestinationKey is the ledger key a line lands in.
func (t *Transfer) DestinationKey(l TransferLine) StockKey {
	return StockKey{ProductID: l.ProductID, VariantID: l.VariantID}.WithPlace(t.To)
}

// Submit moves draft → requested. With reserve set, the returned effects hold
// every line at the source.
func (t *Transfer) Submit(actor string, reserve bool) ([]LedgerEffect, error) {
	if err := t.transition(TransferStatusRequested); err != nil {
		return nil, err
	}
	now := time.Now()
	t.RequestedAt = &now
	if actor != "" {
		t.RequestedBy = actor
	}
	var effects []LedgerEffect
	if reserve {
		effects = t.reserveEffects()
	}
	t.AddDomainEvent(NewTransferRequestedEvent(t))
	return effects, nil
}

// Approve moves requested → approved, reserving now if Submit did not.
func (t *Transfer) Approve(actor string) ([]LedgerEffect, error) {
	if err := t.transition(TransferStatusApproved); err != nil {
		return nil, err
	}
	now := time.Now()
	t.ApprovedAt = &now
	t.ApprovedBy = actor
	return t.reserveEffects(), nil
}

// Ship moves approved → in_transit; all requested quantity leaves the source.
func (t *Transfer) Ship() error {
	if err := t.transition(TransferStatusInTransit); err != nil {
		return err
	}
	now := time.Now()
	t.ShippedAt = &now
	for i := range t.Lines {
		t.Lines[i].TransferredQty = t.Lines[i].RequestedQty
	}
	return nil
}

// Receive completes the transfer. For every line, in line order, the
// effects commit at the source and then receive at the destination. A
// transfer that was never reserved commits straight from on-hand stock.
func (t *Transfer) Receive() ([]LedgerEffect, error) {
	if err := t.transition(TransferStatusReceived); err != nil {
		return nil, err
	}
	effects := make([]LedgerEffect, 0, 2*len(t.Lines))
	for i := range t.Lines {
		l := &t.Lines[i]
		effects = append(effects,
			Commit(t.SourceKey(*l), l.RequestedQty),
			Receive(t.DestinationKey(*l), l.RequestedQty),
		)
		l.TransferredQty = l.RequestedQty
		l.ReceivedQty = l.RequestedQty
	}
	now := time.Now()
	t.ReceivedAt = &now
	t.StockReserved = false
	t.AddDomainEvent(NewTransferReceivedEvent(t))
	return effects, nil
}

// Reject moves draft/requested/approved → rejected and releases any hold.
func (t *Transfer) Reject(actor, reason string) ([]LedgerEffect, error) {
	return t.abort(TransferStatusRejected, actor, reason)
}

// Cancel moves draft/requested/approved → cancelled and releases any hold.
func (t *Transfer) Cancel(actor, reason string) ([]LedgerEffect, error) {
	return t.abort(TransferStatusCancelled, actor, reason)
}

func (t *Transfer) abort(target TransferStatus, actor, reason string) ([]LedgerEffect, error) {
	if err := t.transition(target); err != nil {
		return nil, err
	}
	now := time.Now()
	t.CancelledAt = &now
	t.Reason = reason
	if target == TransferStatusRejected {
		t.ApprovedBy = actor
	}
	var effects []LedgerEffect
	if t.StockReserved {
		for _, l := range t.Lines {
			effects = append(effects, Release(t.SourceKey(l), l.RequestedQty))
		}
		t.StockReserved = false
	}
	t.AddDomainEvent(NewTransferCancelledEvent(t))
	return effects, nil
}

// CanDelete reports whether the transfer and its lines may be removed.
func (t *Transfer) CanDelete() bool {
	return t.Status == TransferStatusDraft
}

func (t *Transfer) reserveEffects() []LedgerEffect {
	if t.StockReserved {
		return nil
	}
	effects := make([]LedgerEffect, 0, len(t.Lines))
	for _, l := range t.Lines {
		effects = append(effects, Reserve(t.SourceKey(l), l.RequestedQty))
	}
	t.StockReserved = true
	return effects
}

func (t *Transfer) transition(target TransferStatus) error {
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: transfer %s cannot move from %s to %s",
			shared.ErrInvalidTransition, t.TransferNumber, t.Status, target)
	}
	t.Status = target
	t.Touch()
	return nil
}
