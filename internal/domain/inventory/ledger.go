package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/retailops/backend/internal/domain/shared"
)

// EffectOp names a ledger operation.
type EffectOp string

const (
	EffectReserve EffectOp = "reserve"
	EffectRelease EffectOp = "release"
	EffectCommit  EffectOp = "commit"
	EffectReceive EffectOp = "receive"
)

// LedgerEffect is a ledger mutation requested by a workflow transition.
// Transitions return effects instead of touching the ledger themselves; the
// application layer applies them inside the same transaction that persists
// the new state.
type LedgerEffect struct {
	Op       EffectOp
	Key      StockKey
	Quantity int64
}

// Reserve builds a reserve effect.
func Reserve(key StockKey, qty int64) LedgerEffect {
	return LedgerEffect{Op: EffectReserve, Key: key, Quantity: qty}
}

// Release builds a release effect.
func Release(key StockKey, qty int64) LedgerEffect {
	return LedgerEffect{Op: EffectRelease, Key: key, Quantity: qty}
}

// Commit builds a commit effect.
func Commit(key StockKey, qty int64) LedgerEffect {
	return LedgerEffect{Op: EffectCommit, Key: key, Quantity: qty}
}

// Receive builds a receive effect.
func Receive(key StockKey, qty int64) LedgerEffect {
	return LedgerEffect{Op: EffectReceive, Key: key, Quantity: qty}
}

// LedgerObserver is notified around every ledger operation. The returned
// context is used for the operation and done is called with its outcome.
type LedgerObserver interface {
	Begin(ctx context.Context, op EffectOp, key StockKey, qty int64) (context.Context, func(err error))
}

// Ledger is the only writer of StockRecord quantities. It must be built on a
// transaction-bound repository: every call locks the row, mutates it and
// persists it with a version check, and the caller's transaction makes
// multi-key sequences atomic.
type Ledger struct {
	records  StockRecordRepository
	events   shared.EventRecorder
	observer LedgerObserver
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithObserver attaches a LedgerObserver.
func WithObserver(o LedgerObserver) LedgerOption {
	return func(l *Ledger) { l.observer = o }
}

// NewLedger creates a ledger over records. Domain events raised by records
// are handed to events, which may be nil.
func NewLedger(records StockRecordRepository, events shared.EventRecorder, opts ...LedgerOption) *Ledger {
	l := &Ledger{records: records, events: events}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve places a hold of qty on key, creating the record with a zero
// baseline if needed. Fails with ErrInsufficientStock when available < qty.
func (l *Ledger) Reserve(ctx context.Context, key StockKey, qty int64) (*StockRecord, error) {
	return l.mutate(ctx, EffectReserve, key, qty, true, (*StockRecord).reserve)
}

// Release drops up to qty of the hold on key. Missing records and
// already-released quantities are no-ops.
func (l *Ledger) Release(ctx context.Context, key StockKey, qty int64) (*StockRecord, error) {
	rec, err := l.mutate(ctx, EffectRelease, key, qty, false, (*StockRecord).release)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Commit removes qty from both on hand and reserved.
func (l *Ledger) Commit(ctx context.Context, key StockKey, qty int64) (*StockRecord, error) {
	rec, err := l.mutate(ctx, EffectCommit, key, qty, false, (*StockRecord).commit)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: no stock record at %s", shared.ErrInsufficientStock, key)
	}
	return rec, err
}

// Receive adds qty to on hand, creating the record if absent.
func (l *Ledger) Receive(ctx context.Context, key StockKey, qty int64) (*StockRecord, error) {
	return l.mutate(ctx, EffectReceive, key, qty, true, (*StockRecord).receive)
}

// Read returns the record at key or ErrNotFound.
func (l *Ledger) Read(ctx context.Context, key StockKey) (*StockRecord, error) {
	return l.records.FindByKey(ctx, key)
}

// Apply runs effects sorted by key and stops at the first failure. Effects
// on the same key keep their relative order. Every batch therefore locks
// rows in one global order. The caller's transaction discards the effects
// already applied.
func (l *Ledger) Apply(ctx context.Context, effects ...LedgerEffect) error {
	ordered := slices.Clone(effects)
	slices.SortStableFunc(ordered, func(a, b LedgerEffect) int {
		switch {
		case a.Key.Less(b.Key):
			return -1
		case b.Key.Less(a.Key):
			return 1
		}
		return 0
	})
	for _, e := range ordered {
		var err error
		switch e.Op {
		case EffectReserve:
			_, err = l.Reserve(ctx, e.Key, e.Quantity)
		case EffectRelease:
			_, err = l.Release(ctx, e.Key, e.Quantity)
		case EffectCommit:
			_, err = l.Commit(ctx, e.Key, e.Quantity)
		case EffectReceive:
			_, err = l.Receive(ctx, e.Key, e.Quantity)
		default:
			err = fmt.Errorf("%w: unknown ledger operation %q", shared.ErrInvalidInput, e.Op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SetMinStockLevel updates the low-stock threshold, creating the record if needed.
func (l *Ledger) SetMinStockLevel(ctx context.Context, key StockKey, level int64) (*StockRecord, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if _, err := l.records.GetOrCreate(ctx, key); err != nil {
		return nil, err
	}
	rec, err := l.records.FindByKeyForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := rec.SetMinStockLevel(level); err != nil {
		return nil, err
	}
	if err := l.records.SaveWithLock(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Ledger) mutate(
	ctx context.Context,
	op EffectOp,
	key StockKey,
	qty int64,
	create bool,
	apply func(*StockRecord, int64) error,
) (rec *StockRecord, err error) {
	if l.observer != nil {
		var done func(error)
		ctx, done = l.observer.Begin(ctx, op, key, qty)
		defer func() { done(err) }()
	}

	if err = key.Validate(); err != nil {
		return nil, err
	}
	if create {
		if _, err = l.records.GetOrCreate(ctx, key); err != nil {
			return nil, err
		}
	}

	rec, err = l.records.FindByKeyForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}

	if err = apply(rec, qty); err != nil {
		return nil, err
	}
	if len(rec.GetDomainEvents()) == 0 {
		return rec, nil
	}
	if err = rec.CheckInvariant(); err != nil {
		return nil, err
	}
	if err = l.records.SaveWithLock(ctx, rec); err != nil {
		return nil, err
	}
	if l.events != nil {
		if err = l.events.Record(ctx, rec.GetDomainEvents()...); err != nil {
			return nil, err
		}
	}
	rec.ClearDomainEvents()
	return rec, nil
}
