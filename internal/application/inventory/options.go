package inventory

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
)

// Option configures the inventory services.
type Option func(*options)

type options struct {
	ledger          []inventory.LedgerOption
	comparator      inventory.WarehouseComparator
	autoReserve     bool
	defaultMinLevel int64
}

// WithLedgerOptions passes options to every Ledger the services build.
func WithLedgerOptions(opts ...inventory.LedgerOption) Option {
	return func(o *options) { o.ledger = append(o.ledger, opts...) }
}

// WithComparator selects the fulfillment ordering.
func WithComparator(c inventory.WarehouseComparator) Option {
	return func(o *options) { o.comparator = c }
}

// WithAutoReserveTransfers reserves source stock as soon as a transfer is
// submitted rather than on approval.
func WithAutoReserveTransfers(on bool) Option {
	return func(o *options) { o.autoReserve = on }
}

// WithDefaultMinStockLevel sets the threshold given to records first created
// by ReceiveStock.
func WithDefaultMinStockLevel(level int64) Option {
	return func(o *options) { o.defaultMinLevel = level }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
