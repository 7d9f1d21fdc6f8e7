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
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PurchaseService handles purchase orders and goods receipts.
type PurchaseService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
	opts   options
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(scope appshared.TransactionScope, logger *zap.Logger, opts ...Option) *PurchaseService {
	return &PurchaseService{scope: scope, logger: logger, opts: buildOptions(opts)}
}

// CreatePurchaseOrder creates a draft purchase order.
func (s *PurchaseService) CreatePurchaseOrder(ctx context.Context, actor string, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	lines := make([]trade.PurchaseOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, trade.PurchaseOrderLineInput{
			ProductID: l.ProductID,
			VariantID: derefID(l.VariantID),
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	po, err := trade.NewPurchaseOrder(req.SupplierID, req.WarehouseID, actor, lines, req.TaxAmount)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		if err := unit.Guard.Check(ctx, inventory.Place{WarehouseID: po.WarehouseID}); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Save(ctx, po); err != nil {
			return err
		}
		_, err := unit.Audit.Record(ctx, actor, audit.ActionCreate, audit.EntityPurchaseOrder, po.ID, nil, ToPurchaseOrderResponse(po))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber),
		zap.Int("lines", len(po.Lines)),
	)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// AdvancePurchaseOrder moves an order along draft → pending → approved →
// ordered → in_transit.
func (s *PurchaseService) AdvancePurchaseOrder(ctx context.Context, actor string, id uuid.UUID, target string) (*PurchaseOrderResponse, error) {
	status := trade.PurchaseOrderStatus(target)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown purchase order status %q", shared.ErrInvalidInput, target)
	}
	resp, _, err := s.mutate(ctx, actor, id, func(po *trade.PurchaseOrder) (*trade.GoodsReceipt, []inventory.LedgerEffect, error) {
		return nil, nil, po.Advance(status, actor)
	})
	return resp, err
}

// CancelPurchaseOrder cancels an order that has no receipts yet.
func (s *PurchaseService) CancelPurchaseOrder(ctx context.Context, actor string, id uuid.UUID) (*PurchaseOrderResponse, error) {
	resp, _, err := s.mutate(ctx, actor, id, func(po *trade.PurchaseOrder) (*trade.GoodsReceipt, []inventory.LedgerEffect, error) {
		return nil, nil, po.Cancel()
	})
	return resp, err
}

// ReceiveGoods books a delivery. With PutAway the goods go straight into
// inventory; otherwise they wait for PutAwayGoods.
func (s *PurchaseService) ReceiveGoods(ctx context.Context, actor string, req ReceiveGoodsRequest) (*GoodsReceiptResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	lines := toReceiptLines(req.Lines)
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase", "receive_goods",
		attribute.String("purchase_order.id", req.PurchaseOrderID.String()))
	_, grn, err := s.mutate(ctx, actor, req.PurchaseOrderID, func(po *trade.PurchaseOrder) (*trade.GoodsReceipt, []inventory.LedgerEffect, error) {
		return po.Receive(actor, lines, req.PutAway)
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("goods received",
		zap.String("purchase_order_id", req.PurchaseOrderID.String()),
		zap.String("receipt_number", grn.ReceiptNumber),
		zap.Int64("quantity", grn.TotalQuantity()),
		zap.Bool("put_away", grn.PutAway),
	)
	resp := ToGoodsReceiptResponse(grn)
	return &resp, nil
}

// PutAwayGoods moves received but unprocessed goods into inventory.
func (s *PurchaseService) PutAwayGoods(ctx context.Context, actor string, id uuid.UUID, req PutAwayGoodsRequest) (*PurchaseOrderResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	lines := toReceiptLines(req.Lines)
	resp, _, err := s.mutate(ctx, actor, id, func(po *trade.PurchaseOrder) (*trade.GoodsReceipt, []inventory.LedgerEffect, error) {
		effects, err := po.PutAway(lines)
		return nil, effects, err
	})
	return resp, err
}

// DeletePurchaseOrder removes a draft order with its lines.
func (s *PurchaseService) DeletePurchaseOrder(ctx context.Context, actor string, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		po, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !po.CanDelete() {
			return fmt.Errorf("%w: purchase order %s is %s, only drafts can be deleted",
				shared.ErrInvalidTransition, po.OrderNumber, po.Status)
		}
		if err := repos.PurchaseOrders().Delete(ctx, id); err != nil {
			return err
		}
		_, err = unit.Audit.Record(ctx, actor, audit.ActionDelete, audit.EntityPurchaseOrder, id, ToPurchaseOrderResponse(po), nil)
		return err
	})
}

// GetPurchaseOrder returns a purchase order by ID
func (s *PurchaseService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	var resp PurchaseOrderResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToPurchaseOrderResponse(po)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListGoodsReceipts returns the receipts booked against an order.
func (s *PurchaseService) ListGoodsReceipts(ctx context.Context, id uuid.UUID) ([]GoodsReceiptResponse, error) {
	var out []GoodsReceiptResponse
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		receipts, err := repos.GoodsReceipts().ListByPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		out = make([]GoodsReceiptResponse, len(receipts))
		for i := range receipts {
			out[i] = ToGoodsReceiptResponse(&receipts[i])
		}
		return nil
	})
	return out, err
}

func (s *PurchaseService) mutate(
	ctx context.Context,
	actor string,
	id uuid.UUID,
	apply func(po *trade.PurchaseOrder) (*trade.GoodsReceipt, []inventory.LedgerEffect, error),
) (*PurchaseOrderResponse, *trade.GoodsReceipt, error) {
	var (
		resp PurchaseOrderResponse
		grn  *trade.GoodsReceipt
	)
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		po, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := ToPurchaseOrderResponse(po)

		var effects []inventory.LedgerEffect
		grn, effects, err = apply(po)
		if err != nil {
			return err
		}
		places := make([]inventory.Place, 0, len(effects))
		for _, e := range effects {
			places = append(places, e.Key.Place())
		}
		if grn != nil {
			for _, l := range grn.Lines {
				places = append(places, l.Place)
			}
		}
		for _, p := range places {
			if err := unit.Guard.Check(ctx, p); err != nil {
				return err
			}
		}
		if err := unit.Ledger.Apply(ctx, effects...); err != nil {
			return err
		}
		if grn != nil {
			if err := repos.GoodsReceipts().Save(ctx, grn); err != nil {
				return err
			}
			if _, err := unit.Audit.Record(ctx, actor, audit.ActionCreate, audit.EntityGoodsReceipt, grn.ID, nil, ToGoodsReceiptResponse(grn)); err != nil {
				return err
			}
		}
		if err := repos.PurchaseOrders().SaveWithLock(ctx, po); err != nil {
			return err
		}
		resp = ToPurchaseOrderResponse(po)
		action := audit.ActionUpdate
		if before.Status != resp.Status {
			action = audit.ActionTransition
		}
		if _, err := unit.Audit.Record(ctx, actor, action, audit.EntityPurchaseOrder, po.ID, before, resp); err != nil {
			return err
		}
		return unit.Flush(ctx, po)
	})
	if err != nil {
		return nil, nil, err
	}
	return &resp, grn, nil
}
