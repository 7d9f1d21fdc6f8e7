package inventory

import (
	"fmt"
	"time"

	"github.com/retailops/backend/internal/domain/shared"
)

// StockRecord is the ledger row for one StockKey.
// Mutation goes through Ledger only; the methods below are unexported so no
// workflow can adjust quantities directly.
type StockRecord struct {
	shared.BaseAggregateRoot
	Key           StockKey
	QtyOnHand     int64
	QtyReserved   int64
	MinStockLevel int64
	LastUpdated   time.Time
}

// StockSnapshot captures the quantities of a record at a point in time.
type StockSnapshot struct {
	QtyOnHand   int64 `json:"qty_on_hand"`
	QtyReserved int64 `json:"qty_reserved"`
}

// Available returns the snapshot's unreserved quantity.
func (s StockSnapshot) Available() int64 { return s.QtyOnHand - s.QtyReserved }

// NewStockRecord creates an empty record with a zero baseline.
func NewStockRecord(key StockKey) (*StockRecord, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	r := &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Key:               key,
	}
	r.LastUpdated = r.CreatedAt
	return r, nil
}

// Available returns on_hand - reserved.
func (r *StockRecord) Available() int64 {
	return r.QtyOnHand - r.QtyReserved
}

// Snapshot returns the current quantities.
func (r *StockRecord) Snapshot() StockSnapshot {
	return StockSnapshot{QtyOnHand: r.QtyOnHand, QtyReserved: r.QtyReserved}
}

// IsBelowThreshold reports whether available stock is under MinStockLevel.
func (r *StockRecord) IsBelowThreshold() bool {
	return r.MinStockLevel > 0 && r.Available() < r.MinStockLevel
}

// CheckInvariant verifies 0 <= reserved <= on_hand.
func (r *StockRecord) CheckInvariant() error {
	if r.QtyReserved < 0 || r.QtyOnHand < 0 || r.QtyReserved > r.QtyOnHand {
		return fmt.Errorf("%w: on_hand=%d reserved=%d at %s",
			shared.ErrInsufficientStock, r.QtyOnHand, r.QtyReserved, r.Key)
	}
	return nil
}

// SetMinStockLevel changes the low-stock threshold.
func (r *StockRecord) SetMinStockLevel(level int64) error {
	if level < 0 {
		return fmt.Errorf("%w: min stock level cannot be negative", shared.ErrInvalidInput)
	}
	r.MinStockLevel = level
	r.touch()
	return nil
}

func (r *StockRecord) reserve(qty int64) error {
	if err := positive(qty); err != nil {
		return err
	}
	if r.Available() < qty {
		return fmt.Errorf("%w: requested %d, available %d at %s",
			shared.ErrInsufficientStock, qty, r.Available(), r.Key)
	}
	before := r.Snapshot()
	r.QtyReserved += qty
	r.changed(EffectReserve, qty, before)
	return nil
}

// release never drives reserved below zero, so repeating a release for the
// same cancellation is harmless.
func (r *StockRecord) release(qty int64) error {
	if err := positive(qty); err != nil {
		return err
	}
	before := r.Snapshot()
	released := min(qty, r.QtyReserved)
	if released == 0 {
		return nil
	}
	r.QtyReserved -= released
	r.changed(EffectRelease, released, before)
	return nil
}

func (r *StockRecord) commit(qty int64) error {
	if err := positive(qty); err != nil {
		return err
	}
	if r.QtyOnHand < qty {
		return fmt.Errorf("%w: cannot commit %d, on hand %d at %s",
			shared.ErrInsufficientStock, qty, r.QtyOnHand, r.Key)
	}
	before := r.Snapshot()
	onHand := r.QtyOnHand - qty
	reserved := r.QtyReserved - min(qty, r.QtyReserved)
	if reserved > onHand {
		return fmt.Errorf("%w: commit of %d would leave reserved %d above on hand %d at %s",
			shared.ErrInsufficientStock, qty, reserved, onHand, r.Key)
	}
	r.QtyOnHand = onHand
	r.QtyReserved = reserved
	r.changed(EffectCommit, qty, before)
	return nil
}

func (r *StockRecord) receive(qty int64) error {
	if err := positive(qty); err != nil {
		return err
	}
	before := r.Snapshot()
	r.QtyOnHand += qty
	r.changed(EffectReceive, qty, before)
	return nil
}

func (r *StockRecord) changed(op EffectOp, qty int64, before StockSnapshot) {
	r.touch()
	r.AddDomainEvent(NewStockLevelChangedEvent(r, op, qty, before))
	if op != EffectReceive && op != EffectRelease && r.IsBelowThreshold() {
		r.AddDomainEvent(NewStockBelowThresholdEvent(r))
	}
}

func (r *StockRecord) touch() {
	r.LastUpdated = time.Now()
	r.UpdatedAt = r.LastUpdated
}

func positive(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", shared.ErrInvalidInput, qty)
	}
	return nil
}
