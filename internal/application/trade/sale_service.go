package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SaleService runs the checkout workflow: reserve on creation, commit on
// full payment, release on cancellation or refund.
type SaleService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
	opts   options
}

// NewSaleService creates a new SaleService
func NewSaleService(scope appshared.TransactionScope, logger *zap.Logger, opts ...Option) *SaleService {
	return &SaleService{scope: scope, logger: logger, opts: buildOptions(opts)}
}

// saleDraft is what openSale needs to create a sale inside a transaction.
type saleDraft struct {
	customerID          *uuid.UUID
	place               inventory.Place
	lines               []trade.SaleLineInput
	tax                 decimal.Decimal
	discount            decimal.Decimal
	customerLocation    string
	preferredWarehouses []uuid.UUID
}

// CreateSale creates a pending sale and reserves every line.
func (s *SaleService) CreateSale(ctx context.Context, actor string, req CreateSaleRequest) (*SaleResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	draft := saleDraft{
		customerID:          req.CustomerID,
		lines:               make([]trade.SaleLineInput, 0, len(req.Lines)),
		tax:                 req.TaxAmount,
		discount:            req.DiscountAmount,
		customerLocation:    req.CustomerLocation,
		preferredWarehouses: req.PreferredWarehouses,
	}
	if req.WarehouseID != nil {
		draft.place = inventory.NewPlace(*req.WarehouseID, req.LocationID, req.BinID)
	} else if req.LocationID != nil || req.BinID != nil {
		return nil, fmt.Errorf("%w: location given without a warehouse", shared.ErrInconsistentLocation)
	}
	for _, l := range req.Lines {
		draft.lines = append(draft.lines, trade.SaleLineInput{
			ProductID: l.ProductID,
			VariantID: derefID(l.VariantID),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			CostPrice: l.CostPrice,
		})
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create_sale")
	var resp SaleResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		sale, err := s.openSale(ctx, unit, actor, draft)
		if err != nil {
			return err
		}
		resp = ToSaleResponse(sale)
		return nil
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		s.logger.Warn("sale creation failed", zap.String("actor", actor), zap.Error(err))
		return nil, err
	}

	s.logger.Info("sale created",
		zap.String("sale_id", resp.ID.String()),
		zap.String("sale_number", resp.SaleNumber),
		zap.String("warehouse_id", resp.Place.WarehouseID.String()),
		zap.String("total", resp.TotalAmount.String()),
	)
	return &resp, nil
}

// openSale creates, places, reserves and stores a sale inside unit's
// transaction. Also used for exchange sales.
func (s *SaleService) openSale(ctx context.Context, unit *appshared.Unit, actor string, d saleDraft) (*trade.Sale, error) {
	sale, err := trade.NewSale(d.customerID, d.place, actor, d.lines, d.tax, d.discount)
	if err != nil {
		return nil, err
	}
	if sale.Place.IsZero() {
		selector := inventory.NewFulfillmentSelector(unit.Repos.StockRecords(), unit.Repos.Locations(), s.opts.comparator)
		want := make([]inventory.SelectLine, 0, len(sale.Lines))
		for _, l := range sale.Lines {
			want = append(want, inventory.SelectLine{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
		}
		place, err := selector.SelectForLines(ctx, want, d.customerLocation, d.preferredWarehouses)
		if err != nil {
			return nil, err
		}
		if err := sale.AssignPlace(place); err != nil {
			return nil, err
		}
	}
	if err := unit.Guard.Check(ctx, sale.Place); err != nil {
		return nil, err
	}

	effects, err := sale.ReservationEffects()
	if err != nil {
		return nil, err
	}
	if err := unit.Ledger.Apply(ctx, effects...); err != nil {
		return nil, err
	}
	if err := unit.Repos.Sales().Save(ctx, sale); err != nil {
		return nil, err
	}
	if _, err := unit.Audit.Record(ctx, actor, audit.ActionCreate, audit.EntitySale, sale.ID, nil, ToSaleResponse(sale)); err != nil {
		return nil, err
	}
	if err := unit.Flush(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// ApplyPayment records a payment. Paying in full completes the sale, commits
// its stock and locks it.
func (s *SaleService) ApplyPayment(ctx context.Context, actor string, saleID uuid.UUID, req ApplyPaymentRequest) (*SaleResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "apply_payment",
		attribute.String("sale.id", saleID.String()))
	var resp SaleResponse
	err := s.guarded(ctx, actor, saleID, func(sale *trade.Sale) any { return req }, func(unit *appshared.Unit, sale *trade.Sale) error {
		return s.pay(ctx, unit, actor, sale, req.Amount, trade.PaymentMethod(req.Method), req.Reference)
	}, &resp)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment applied",
		zap.String("sale_id", saleID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_status", resp.PaymentStatus),
	)
	return &resp, nil
}

// pay appends a payment to an open sale and persists the outcome.
func (s *SaleService) pay(ctx context.Context, unit *appshared.Unit, actor string, sale *trade.Sale, amount decimal.Decimal, method trade.PaymentMethod, reference string) error {
	before := ToSaleResponse(sale)
	_, effects, err := sale.ApplyPayment(amount, method, reference)
	if err != nil {
		return err
	}
	return s.persist(ctx, unit, actor, sale, before, effects)
}

// UpdateSalePaymentStatus recomputes the status from the stored payments.
func (s *SaleService) UpdateSalePaymentStatus(ctx context.Context, actor string, saleID uuid.UUID) (*SaleResponse, error) {
	var resp SaleResponse
	err := s.guarded(ctx, actor, saleID, func(sale *trade.Sale) any { return sale.Financials() }, func(unit *appshared.Unit, sale *trade.Sale) error {
		before := ToSaleResponse(sale)
		effects, err := sale.RecomputeStatus()
		if err != nil {
			return err
		}
		return s.persist(ctx, unit, actor, sale, before, effects)
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelSale abandons an open sale and releases its reservations. A locked
// sale is left alone and the attempt is audited.
func (s *SaleService) CancelSale(ctx context.Context, actor string, saleID uuid.UUID, reason string) (*SaleResponse, error) {
	var resp SaleResponse
	err := s.guarded(ctx, actor, saleID, requestedStatus(trade.PaymentStatusCancelled, reason), func(unit *appshared.Unit, sale *trade.Sale) error {
		before := ToSaleResponse(sale)
		effects, err := sale.Cancel(reason)
		if err != nil {
			return err
		}
		return s.persist(ctx, unit, actor, sale, before, effects)
	}, &resp)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sale cancelled", zap.String("sale_id", saleID.String()), zap.String("reason", reason))
	return &resp, nil
}

// RefundSale voids an open sale: payments are returned and reservations released.
func (s *SaleService) RefundSale(ctx context.Context, actor string, saleID uuid.UUID, reason string) (*SaleResponse, error) {
	var resp SaleResponse
	err := s.guarded(ctx, actor, saleID, requestedStatus(trade.PaymentStatusRefunded, reason), func(unit *appshared.Unit, sale *trade.Sale) error {
		before := ToSaleResponse(sale)
		_, effects, err := sale.Refund(reason)
		if err != nil {
			return err
		}
		return s.persist(ctx, unit, actor, sale, before, effects)
	}, &resp)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sale refunded", zap.String("sale_id", saleID.String()), zap.String("reason", reason))
	return &resp, nil
}

// statusChange is the rejected value audited when a locked sale is asked
// to change status.
type statusChange struct {
	PaymentStatus string `json:"payment_status"`
	Reason        string `json:"reason,omitempty"`
}

func requestedStatus(target trade.PaymentStatus, reason string) func(*trade.Sale) any {
	return func(*trade.Sale) any {
		return statusChange{PaymentStatus: target.String(), Reason: reason}
	}
}

// UpdateSaleFinancials changes tax and discount of an open sale. On a locked
// sale the attempt is audited and ErrLockedRecordModification returned.
func (s *SaleService) UpdateSaleFinancials(ctx context.Context, actor string, saleID uuid.UUID, req UpdateSaleFinancialsRequest) (*SaleResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	var resp SaleResponse
	err := s.guarded(ctx, actor, saleID, func(sale *trade.Sale) any { return req }, func(unit *appshared.Unit, sale *trade.Sale) error {
		before := ToSaleResponse(sale)
		effects, err := sale.UpdateFinancials(req.TaxAmount, req.DiscountAmount)
		if err != nil {
			return err
		}
		if req.TotalAmount != nil && !req.TotalAmount.Equal(sale.TotalAmount) {
			return fmt.Errorf("%w: total %s does not match lines plus tax minus discount (%s)",
				shared.ErrInvalidInput, req.TotalAmount, sale.TotalAmount)
		}
		return s.persist(ctx, unit, actor, sale, before, effects)
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSale returns a sale by ID
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	var resp SaleResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		sale, err := repos.Sales().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// guarded runs a change against an unlocked sale. If the sale is
// locked, one attempted_modification entry is committed with the stored
// financials and the rejected values, and ErrLockedRecordModification is
// returned to the caller.
func (s *SaleService) guarded(
	ctx context.Context,
	actor string,
	saleID uuid.UUID,
	rejected func(sale *trade.Sale) any,
	change func(unit *appshared.Unit, sale *trade.Sale) error,
	out *SaleResponse,
) error {
	var lockErr error
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		sale, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if lockErr = sale.GuardUnlocked(); lockErr != nil {
			_, err := unit.Audit.RecordAttempt(ctx, actor, audit.EntitySale, sale.ID, sale.Financials(), rejected(sale))
			return err
		}
		if err := change(unit, sale); err != nil {
			return err
		}
		*out = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return err
	}
	if lockErr != nil {
		s.logger.Warn("modification of locked sale rejected",
			zap.String("sale_id", saleID.String()),
			zap.String("actor", actor),
		)
		return lockErr
	}
	return nil
}

// persist applies ledger effects, saves the sale with its new payments,
// audits the change and queues its events.
func (s *SaleService) persist(ctx context.Context, unit *appshared.Unit, actor string, sale *trade.Sale, before SaleResponse, effects []inventory.LedgerEffect) error {
	if err := unit.Ledger.Apply(ctx, effects...); err != nil {
		return err
	}
	if err := unit.Repos.Sales().SaveWithLock(ctx, sale); err != nil {
		return err
	}
	action := audit.ActionUpdate
	if before.PaymentStatus != sale.PaymentStatus.String() {
		action = audit.ActionTransition
	}
	if _, err := unit.Audit.Record(ctx, actor, action, audit.EntitySale, sale.ID, before, ToSaleResponse(sale)); err != nil {
		return err
	}
	return unit.Flush(ctx, sale)
}
