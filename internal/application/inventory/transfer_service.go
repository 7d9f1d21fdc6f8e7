package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TransferService runs the inter-location transfer workflow. Every
// transition, its ledger effects, the audit entry and the outbox events
// commit in one transaction.
type TransferService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
	opts   options
}

// NewTransferService creates a new TransferService
func NewTransferService(scope appshared.TransactionScope, logger *zap.Logger, opts ...Option) *TransferService {
	return &TransferService{scope: scope, logger: logger, opts: buildOptions(opts)}
}

// CreateTransfer creates a transfer and, unless req.Submit is false, submits it.
func (s *TransferService) CreateTransfer(ctx context.Context, actor string, req CreateTransferRequest) (*TransferResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	lines := make([]inventory.TransferLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, inventory.TransferLineInput{
			ProductID: l.ProductID,
			VariantID: derefID(l.VariantID),
			Quantity:  l.Quantity,
		})
	}
	number := shared.NewDocumentNumber("TR", uuid.New(), time.Now())
	t, err := inventory.NewTransfer(number, req.From.Place(), req.To.Place(), actor, lines)
	if err != nil {
		return nil, err
	}
	submit := req.Submit == nil || *req.Submit

	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		if err := unit.Guard.Check(ctx, t.From); err != nil {
			return err
		}
		if err := unit.Guard.Check(ctx, t.To); err != nil {
			return err
		}
		if submit {
			effects, err := t.Submit(actor, s.opts.autoReserve)
			if err != nil {
				return err
			}
			if err := unit.Ledger.Apply(ctx, effects...); err != nil {
				return err
			}
		}
		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		if _, err := unit.Audit.Record(ctx, actor, audit.ActionCreate, audit.EntityTransfer, t.ID, nil, ToTransferResponse(t)); err != nil {
			return err
		}
		return unit.Flush(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer created",
		zap.String("transfer_id", t.ID.String()),
		zap.String("transfer_number", t.TransferNumber),
		zap.String("status", t.Status.String()),
		zap.Bool("stock_reserved", t.StockReserved),
		zap.Int("lines", len(t.Lines)),
	)
	resp := ToTransferResponse(t)
	return &resp, nil
}

// SubmitTransfer moves a draft transfer to requested.
func (s *TransferService) SubmitTransfer(ctx context.Context, actor string, id uuid.UUID) (*TransferResponse, error) {
	return s.transition(ctx, actor, id, func(_ *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error) {
		return t.Submit(actor, s.opts.autoReserve)
	})
}

// ApproveTransfer approves a requested transfer, reserving source stock if
// that has not happened yet.
func (s *TransferService) ApproveTransfer(ctx context.Context, actor string, id uuid.UUID) (*TransferResponse, error) {
	return s.transition(ctx, actor, id, func(_ *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error) {
		return t.Approve(actor)
	})
}

// ShipTransfer marks an approved transfer as in transit.
func (s *TransferService) ShipTransfer(ctx context.Context, actor string, id uuid.UUID) (*TransferResponse, error) {
	return s.transition(ctx, actor, id, func(_ *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error) {
		return nil, t.Ship()
	})
}

// ReceiveTransfer moves the stock: commit at the source, receive at the
// destination, line by line. The destination must still exist.
func (s *TransferService) ReceiveTransfer(ctx context.Context, actor string, id uuid.UUID) (*TransferResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transfer", "receive_transfer",
		attribute.String("transfer.id", id.String()))
	resp, err := s.transition(ctx, actor, id, func(unit *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error) {
		if err := unit.Guard.Check(ctx, t.To); err != nil {
			return nil, err
		}
		return t.Receive()
	})
	telemetry.EndSpan(span, err)
	return resp, err
}

// RejectTransfer rejects a transfer and releases its reservation.
func (s *TransferService) RejectTransfer(ctx context.Context, actor string, id uuid.UUID, reason string) (*TransferResponse, error) {
	return s.transition(ctx, actor, id, func(_ *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error) {
		return t.Reject(actor, reason)
	})
}

// CancelTransfer cancels a transfer and releases its reservation.
func (s *TransferService) CancelTransfer(ctx context.Context, actor string, id uuid.UUID, reason string) (*TransferResponse, error) {
	return s.transition(ctx, actor, id, func(_ *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error) {
		return t.Cancel(actor, reason)
	})
}

// GetTransfer returns a transfer by ID
func (s *TransferService) GetTransfer(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	var resp TransferResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToTransferResponse(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTransfer removes a draft transfer with its lines.
func (s *TransferService) DeleteTransfer(ctx context.Context, actor string, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.CanDelete() {
			return fmt.Errorf("%w: transfer %s is %s, only drafts can be deleted", shared.ErrInvalidTransition, t.TransferNumber, t.Status)
		}
		if err := repos.Transfers().Delete(ctx, id); err != nil {
			return err
		}
		_, err = unit.Audit.Record(ctx, actor, audit.ActionDelete, audit.EntityTransfer, id, ToTransferResponse(t), nil)
		return err
	})
}

func (s *TransferService) transition(
	ctx context.Context,
	actor string,
	id uuid.UUID,
	apply func(unit *appshared.Unit, t *inventory.Transfer) ([]inventory.LedgerEffect, error),
) (*TransferResponse, error) {
	var after TransferResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := ToTransferResponse(t)

		effects, err := apply(unit, t)
		if err != nil {
			return err
		}
		if err := unit.Ledger.Apply(ctx, effects...); err != nil {
			return err
		}
		if err := repos.Transfers().SaveWithLock(ctx, t); err != nil {
			return err
		}
		after = ToTransferResponse(t)
		if _, err := unit.Audit.Record(ctx, actor, audit.ActionTransition, audit.EntityTransfer, t.ID, before, after); err != nil {
			return err
		}
		return unit.Flush(ctx, t)
	})
	if err != nil {
		s.logger.Debug("transfer transition failed",
			zap.String("transfer_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("transfer transitioned",
		zap.String("transfer_id", id.String()),
		zap.String("status", after.Status.String()),
		zap.String("actor", actor),
	)
	return &after, nil
}
