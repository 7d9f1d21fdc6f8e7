package shared

import (
	"context"

	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	domainshared "github.com/retailops/backend/internal/domain/shared"
)

// Unit bundles the domain services bound to one transaction.
type Unit struct {
	Repos  TransactionalRepositories
	Ledger *inventory.Ledger
	Audit  *audit.Recorder
	Guard  *inventory.LocationGuard
}

// NewUnit builds the per-transaction services over repos.
func NewUnit(repos TransactionalRepositories, opts ...inventory.LedgerOption) *Unit {
	return &Unit{
		Repos:  repos,
		Ledger: inventory.NewLedger(repos.StockRecords(), repos.Events(), opts...),
		Audit:  audit.NewRecorder(repos.AuditEntries(), repos.Events()),
		Guard:  inventory.NewLocationGuard(repos.Locations()),
	}
}

// Flush moves an aggregate's pending domain events into the outbox.
func (u *Unit) Flush(ctx context.Context, aggregates ...domainshared.AggregateRoot) error {
	for _, a := range aggregates {
		events := a.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := u.Repos.Events().Record(ctx, events...); err != nil {
			return err
		}
		a.ClearDomainEvents()
	}
	return nil
}
