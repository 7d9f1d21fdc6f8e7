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

// ReturnService takes goods back from completed sales and settles them as
// refund, store credit or exchange.
type ReturnService struct {
	scope  appshared.TransactionScope
	sales  *SaleService
	logger *zap.Logger
	opts   options
}

// NewReturnService creates a new ReturnService
func NewReturnService(scope appshared.TransactionScope, logger *zap.Logger, opts ...Option) *ReturnService {
	return &ReturnService{
		scope:  scope,
		sales:  NewSaleService(scope, logger, opts...),
		logger: logger,
		opts:   buildOptions(opts),
	}
}

// CreateReturn opens a pending return against a completed sale.
func (s *ReturnService) CreateReturn(ctx context.Context, actor string, req CreateReturnRequest) (*ReturnResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	lines := make([]trade.ReturnLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, trade.ReturnLineInput{
			SaleLineID:        l.SaleLineID,
			Quantity:          l.Quantity,
			ExchangeProductID: derefID(l.ExchangeProductID),
			ExchangeVariantID: derefID(l.ExchangeVariantID),
			ExchangeQuantity:  l.ExchangeQuantity,
			ExchangePrice:     l.ExchangePrice,
		})
	}

	var resp ReturnResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		sale, err := repos.Sales().FindByIDForUpdate(ctx, req.SaleID)
		if err != nil {
			return err
		}
		returned, err := repos.Returns().ReturnedQuantities(ctx, sale.ID)
		if err != nil {
			return err
		}
		r, err := trade.NewSalesReturn(sale, trade.ReturnType(req.ReturnType), req.Reason, actor, lines, req.RefundAmount, returned)
		if err != nil {
			return err
		}
		if err := repos.Returns().Save(ctx, r); err != nil {
			return err
		}
		resp = ToReturnResponse(r)
		if _, err := unit.Audit.Record(ctx, actor, audit.ActionCreate, audit.EntityReturn, r.ID, nil, resp); err != nil {
			return err
		}
		return unit.Flush(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales return created",
		zap.String("return_id", resp.ID.String()),
		zap.String("return_number", resp.ReturnNumber),
		zap.String("sale_id", resp.SaleID.String()),
		zap.String("refund_amount", resp.RefundAmount.String()),
	)
	return &resp, nil
}

// ApproveReturn approves a pending return. A processed return is locked;
// the attempt is audited and ErrLockedRecordModification returned.
func (s *ReturnService) ApproveReturn(ctx context.Context, actor string, id uuid.UUID) (*ReturnResponse, error) {
	return s.transition(ctx, actor, id, trade.ReturnStatusApproved, func(r *trade.SalesReturn) error {
		return r.Approve(actor)
	})
}

// RejectReturn rejects a pending return.
func (s *ReturnService) RejectReturn(ctx context.Context, actor string, id uuid.UUID, reason string) (*ReturnResponse, error) {
	return s.transition(ctx, actor, id, trade.ReturnStatusRejected, func(r *trade.SalesReturn) error {
		return r.Reject(actor, reason)
	})
}

// ProcessReturn restocks the goods and settles the money, then locks the
// return. Everything happens in one transaction; an exchange sale that
// cannot be reserved or fully paid aborts the whole process.
func (s *ReturnService) ProcessReturn(ctx context.Context, actor string, id uuid.UUID, req ProcessReturnRequest) (*ReturnResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	if req.AdditionalPayment.IsNegative() {
		return nil, fmt.Errorf("%w: additional payment cannot be negative", shared.ErrInvalidInput)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "return", "process_return",
		attribute.String("return.id", id.String()))
	var resp ReturnResponse
	err := s.guarded(ctx, actor, id, req, func(unit *appshared.Unit, r *trade.SalesReturn) error {
		sale, err := unit.Repos.Sales().FindByIDForUpdate(ctx, r.SaleID)
		if err != nil {
			return err
		}
		before := ToReturnResponse(r)

		opts := trade.ProcessOptions{
			Action:      trade.ReturnAction(req.Action),
			Place:       sale.Place,
			RestockType: trade.RestockType(req.RestockType),
		}
		if opts.Action == "" {
			opts.Action = r.DefaultAction()
		}
		if req.WarehouseID != nil {
			opts.Place = inventory.NewPlace(*req.WarehouseID, req.LocationID, req.BinID)
		}
		if err := unit.Guard.Check(ctx, opts.Place); err != nil {
			return err
		}

		effects, err := r.Process(actor, opts)
		if err != nil {
			return err
		}
		if err := unit.Ledger.Apply(ctx, effects...); err != nil {
			return err
		}
		if err := s.settle(ctx, unit, actor, r, sale, req); err != nil {
			return err
		}

		if err := unit.Repos.Sales().SaveWithLock(ctx, sale); err != nil {
			return err
		}
		if err := unit.Repos.Returns().SaveWithLock(ctx, r); err != nil {
			return err
		}
		resp = ToReturnResponse(r)
		if _, err := unit.Audit.Record(ctx, actor, audit.ActionTransition, audit.EntityReturn, r.ID, before, resp); err != nil {
			return err
		}
		return unit.Flush(ctx, r, sale)
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		s.logger.Warn("return processing failed", zap.String("return_id", id.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("sales return processed",
		zap.String("return_id", id.String()),
		zap.String("action", resp.Action),
		zap.String("restock_type", resp.RestockType),
		zap.String("refund_amount", resp.RefundAmount.String()),
	)
	return &resp, nil
}

// settle moves the money for a processed return.
func (s *ReturnService) settle(ctx context.Context, unit *appshared.Unit, actor string, r *trade.SalesReturn, sale *trade.Sale, req ProcessReturnRequest) error {
	refund := r.RefundAmount
	switch r.Action {
	case trade.ReturnActionRefund:
		return s.refund(sale, refund, trade.PaymentMethodRefund, "Refund for return "+r.ReturnNumber)

	case trade.ReturnActionStoreCredit:
		if err := s.issueCredit(ctx, unit, r, refund); err != nil {
			return err
		}
		return s.refund(sale, refund, trade.PaymentMethodStoreCredit, "Store credit for return "+r.ReturnNumber)

	case trade.ReturnActionExchange:
		exchange, err := s.sales.openSale(ctx, unit, actor, saleDraft{
			customerID: r.CustomerID,
			place:      r.Restock,
			lines:      r.ExchangeLines(),
			tax:        decimal.Zero,
			discount:   decimal.Zero,
		})
		if err != nil {
			return fmt.Errorf("open exchange sale: %w", err)
		}
		r.LinkExchangeSale(exchange.ID)

		credit := decimal.Min(refund, exchange.TotalAmount)
		if credit.IsPositive() {
			if err := s.sales.pay(ctx, unit, actor, exchange, credit, trade.PaymentMethodExchangeCredit, "Exchange credit from return "+r.ReturnNumber); err != nil {
				return err
			}
			if err := s.refund(sale, credit, trade.PaymentMethodExchangeCredit, "Exchanged in sale "+exchange.SaleNumber); err != nil {
				return err
			}
		}
		if req.AdditionalPayment.IsPositive() && !exchange.IsLocked {
			method := trade.PaymentMethod(req.AdditionalPaymentMethod)
			if method == "" {
				method = trade.PaymentMethodCash
			}
			if err := s.sales.pay(ctx, unit, actor, exchange, req.AdditionalPayment, method, "Additional payment for return "+r.ReturnNumber); err != nil {
				return err
			}
		}
		if exchange.PaymentStatus != trade.PaymentStatusCompleted {
			return fmt.Errorf("%w: exchange sale %s still owes %s",
				shared.ErrInvalidInput, exchange.SaleNumber, exchange.Outstanding())
		}

		leftover := refund.Sub(credit)
		if !leftover.IsPositive() {
			return nil
		}
		if r.CustomerID != nil {
			if err := s.issueCredit(ctx, unit, r, leftover); err != nil {
				return err
			}
			return s.refund(sale, leftover, trade.PaymentMethodStoreCredit, "Store credit for return "+r.ReturnNumber)
		}
		return s.refund(sale, leftover, trade.PaymentMethodRefund, "Refund for return "+r.ReturnNumber)
	}
	return fmt.Errorf("%w: unknown return action %q", shared.ErrInvalidInput, r.Action)
}

func (s *ReturnService) refund(sale *trade.Sale, amount decimal.Decimal, method trade.PaymentMethod, reference string) error {
	if !amount.IsPositive() {
		return nil
	}
	_, err := sale.AttachRefund(amount, method, reference)
	return err
}

func (s *ReturnService) issueCredit(ctx context.Context, unit *appshared.Unit, r *trade.SalesReturn, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	if r.CustomerID == nil {
		return fmt.Errorf("%w: store credit needs a customer", shared.ErrInvalidInput)
	}
	customer, err := unit.Repos.Customers().FindByIDForUpdate(ctx, *r.CustomerID)
	if err != nil {
		return err
	}
	if err := customer.IssueStoreCredit(amount, "return "+r.ReturnNumber); err != nil {
		return err
	}
	if err := unit.Repos.Customers().SaveWithLock(ctx, customer); err != nil {
		return err
	}
	return unit.Flush(ctx, customer)
}

// UpdateReturnAmounts changes the money fields of an open return. On a
// processed return the attempt is audited and ErrLockedRecordModification
// returned.
func (s *ReturnService) UpdateReturnAmounts(ctx context.Context, actor string, id uuid.UUID, req UpdateReturnAmountsRequest) (*ReturnResponse, error) {
	var resp ReturnResponse
	err := s.guarded(ctx, actor, id, req, func(unit *appshared.Unit, r *trade.SalesReturn) error {
		before := ToReturnResponse(r)
		if err := r.UpdateAmounts(req.TotalAmount, req.RefundAmount); err != nil {
			return err
		}
		if err := unit.Repos.Returns().SaveWithLock(ctx, r); err != nil {
			return err
		}
		resp = ToReturnResponse(r)
		_, err := unit.Audit.Record(ctx, actor, audit.ActionUpdate, audit.EntityReturn, r.ID, before, resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetReturn returns a sales return by ID
func (s *ReturnService) GetReturn(ctx context.Context, id uuid.UUID) (*ReturnResponse, error) {
	var resp ReturnResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		r, err := repos.Returns().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToReturnResponse(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// guarded runs change against an unlocked return. A processed return gets
// one attempted_modification entry holding its stored amounts and the
// rejected request, and the caller receives ErrLockedRecordModification.
func (s *ReturnService) guarded(
	ctx context.Context,
	actor string,
	id uuid.UUID,
	rejected any,
	change func(unit *appshared.Unit, r *trade.SalesReturn) error,
) error {
	var lockErr error
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		r, err := repos.Returns().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if lockErr = r.GuardUnlocked(); lockErr != nil {
			_, err := unit.Audit.RecordAttempt(ctx, actor, audit.EntityReturn, r.ID, r.Amounts(), rejected)
			return err
		}
		return change(unit, r)
	})
	if err != nil {
		return err
	}
	if lockErr != nil {
		s.logger.Warn("modification of locked return rejected",
			zap.String("return_id", id.String()),
			zap.String("actor", actor),
		)
		return lockErr
	}
	return nil
}

// returnStatusChange is the rejected value audited when a locked return is
// asked to change status.
type returnStatusChange struct {
	Status string `json:"status"`
}

func (s *ReturnService) transition(ctx context.Context, actor string, id uuid.UUID, target trade.ReturnStatus, apply func(r *trade.SalesReturn) error) (*ReturnResponse, error) {
	var resp ReturnResponse
	err := s.guarded(ctx, actor, id, returnStatusChange{Status: target.String()}, func(unit *appshared.Unit, r *trade.SalesReturn) error {
		before := ToReturnResponse(r)
		if err := apply(r); err != nil {
			return err
		}
		if err := unit.Repos.Returns().SaveWithLock(ctx, r); err != nil {
			return err
		}
		resp = ToReturnResponse(r)
		_, err := unit.Audit.Record(ctx, actor, audit.ActionTransition, audit.EntityReturn, r.ID, before, resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("sales return transitioned",
		zap.String("return_id", id.String()),
		zap.String("status", resp.Status),
	)
	return &resp, nil
}
