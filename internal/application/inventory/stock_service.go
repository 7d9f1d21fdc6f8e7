package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/retailops/backend/internal/application/shared"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockService manages the storage hierarchy and direct ledger access.
type StockService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
	opts   options
}

// NewStockService creates a new StockService
func NewStockService(scope appshared.TransactionScope, logger *zap.Logger, opts ...Option) *StockService {
	return &StockService{scope: scope, logger: logger, opts: buildOptions(opts)}
}

// CreateWarehouse creates a warehouse together with its DEFAULT location.
func (s *StockService) CreateWarehouse(ctx context.Context, actor string, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	w, err := inventory.NewWarehouse(req.Code, req.Name, req.Priority)
	if err != nil {
		return nil, err
	}
	def := w.DefaultLocation()

	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		if _, err := repos.Locations().FindWarehouseByCode(ctx, w.Code); err == nil {
			return fmt.Errorf("%w: warehouse code %s", shared.ErrAlreadyExists, w.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := repos.Locations().SaveWarehouse(ctx, w); err != nil {
			return err
		}
		if err := repos.Locations().SaveLocation(ctx, def); err != nil {
			return err
		}
		_, err := unit.Audit.Record(ctx, actor, audit.ActionCreate, audit.EntityWarehouse, w.ID, nil, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("warehouse created",
		zap.String("warehouse_id", w.ID.String()),
		zap.String("code", w.Code),
		zap.Int("priority", w.Priority),
	)
	return &WarehouseResponse{
		ID:                w.ID,
		Code:              w.Code,
		Name:              w.Name,
		Priority:          w.Priority,
		IsActive:          w.IsActive,
		DefaultLocationID: def.ID,
	}, nil
}

// CreateLocation adds a location to a warehouse.
func (s *StockService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*inventory.Location, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	loc, err := inventory.NewLocation(req.WarehouseID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.Locations().FindWarehouse(ctx, req.WarehouseID); err != nil {
			return err
		}
		if _, err := repos.Locations().FindLocationByCode(ctx, req.WarehouseID, loc.Code); err == nil {
			return fmt.Errorf("%w: location code %s", shared.ErrAlreadyExists, loc.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Locations().SaveLocation(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// CreateBin adds a bin to a location.
func (s *StockService) CreateBin(ctx context.Context, req CreateBinRequest) (*inventory.Bin, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	bin, err := inventory.NewBin(req.LocationID, req.Code)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.Locations().FindLocation(ctx, req.LocationID); err != nil {
			return err
		}
		return repos.Locations().SaveBin(ctx, bin)
	})
	if err != nil {
		return nil, err
	}
	return bin, nil
}

// DeleteWarehouse removes a warehouse. Refused while any of its records holds
// stock or an open transfer or purchase order still targets it;
// zero-quantity records are removed with it.
func (s *StockService) DeleteWarehouse(ctx context.Context, actor string, id uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		w, err := repos.Locations().FindWarehouse(ctx, id)
		if err != nil {
			return err
		}
		records, err := repos.StockRecords().FindByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckWarehouseDeletable(records); err != nil {
			return err
		}
		transfers, err := repos.Transfers().CountOpenByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		orders, err := repos.PurchaseOrders().CountOpenByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckWarehouseIdle(transfers, orders); err != nil {
			return err
		}
		if err := repos.StockRecords().DeleteByWarehouse(ctx, id); err != nil {
			return err
		}
		if err := repos.Locations().DeleteWarehouse(ctx, id); err != nil {
			return err
		}
		_, err = unit.Audit.Record(ctx, actor, audit.ActionDelete, audit.EntityWarehouse, id, w, nil)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("warehouse deleted", zap.String("warehouse_id", id.String()))
	return nil
}

// ReceiveStock books stock into a place outside any workflow.
func (s *StockService) ReceiveStock(ctx context.Context, actor string, req ReceiveStockRequest) (*StockRecordResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	key := req.Key()

	var rec *inventory.StockRecord
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		if err := unit.Guard.Check(ctx, key.Place()); err != nil {
			return err
		}
		existing, findErr := unit.Ledger.Read(ctx, key)
		isNew := errors.Is(findErr, shared.ErrNotFound)
		if findErr != nil && !isNew {
			return findErr
		}
		var before any
		if existing != nil {
			before = existing.Snapshot()
		}

		var err error
		if rec, err = unit.Ledger.Receive(ctx, key, req.Quantity); err != nil {
			return err
		}
		if isNew && s.opts.defaultMinLevel > 0 {
			if rec, err = unit.Ledger.SetMinStockLevel(ctx, key, s.opts.defaultMinLevel); err != nil {
				return err
			}
		}
		_, err = unit.Audit.Record(ctx, actor, audit.ActionUpdate, audit.EntityStockRecord, rec.ID, before, rec.Snapshot())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock received",
		zap.Stringer("key", key),
		zap.Int64("quantity", req.Quantity),
		zap.String("reason", req.Reason),
	)
	resp := ToStockRecordResponse(rec)
	return &resp, nil
}

// SetMinStockLevel changes the low-stock threshold of a record.
func (s *StockService) SetMinStockLevel(ctx context.Context, actor string, req SetMinStockLevelRequest) (*StockRecordResponse, error) {
	if err := appshared.Validate(req); err != nil {
		return nil, err
	}
	key := req.Key()

	var rec *inventory.StockRecord
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		unit := appshared.NewUnit(repos, s.opts.ledger...)
		if err := unit.Guard.Check(ctx, key.Place()); err != nil {
			return err
		}
		var err error
		if rec, err = unit.Ledger.SetMinStockLevel(ctx, key, req.MinStockLevel); err != nil {
			return err
		}
		_, err = unit.Audit.Record(ctx, actor, audit.ActionUpdate, audit.EntityStockRecord, rec.ID,
			nil, map[string]int64{"min_stock_level": rec.MinStockLevel})
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockRecordResponse(rec)
	return &resp, nil
}

// GetStock reads one ledger row.
func (s *StockService) GetStock(ctx context.Context, in StockKeyInput) (*StockRecordResponse, error) {
	if err := appshared.Validate(in); err != nil {
		return nil, err
	}
	var rec *inventory.StockRecord
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		rec, err = repos.StockRecords().FindByKey(ctx, in.Key())
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockRecordResponse(rec)
	return &resp, nil
}

// SelectWarehouse returns the key the fulfillment selector would serve from.
func (s *StockService) SelectWarehouse(ctx context.Context, req SelectWarehouseRequest) (inventory.StockKey, error) {
	if err := appshared.Validate(req); err != nil {
		return inventory.StockKey{}, err
	}
	var key inventory.StockKey
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		selector := inventory.NewFulfillmentSelector(repos.StockRecords(), repos.Locations(), s.opts.comparator)
		var err error
		key, err = selector.Select(ctx, inventory.SelectionRequest{
			ProductID:           req.ProductID,
			VariantID:           derefID(req.VariantID),
			Quantity:            req.Quantity,
			CustomerLocation:    req.CustomerLocation,
			PreferredWarehouses: req.PreferredWarehouses,
		})
		return err
	})
	return key, err
}
