package trade

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
)

// Option configures the trade services.
type Option func(*options)

type options struct {
	ledger     []inventory.LedgerOption
	comparator inventory.WarehouseComparator
}

// WithLedgerOptions passes options to every Ledger the services build.
func WithLedgerOptions(opts ...inventory.LedgerOption) Option {
	return func(o *options) { o.ledger = append(o.ledger, opts...) }
}

// WithComparator selects the fulfillment ordering used when a sale names no
// warehouse.
func WithComparator(c inventory.WarehouseComparator) Option {
	return func(o *options) { o.comparator = c }
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
