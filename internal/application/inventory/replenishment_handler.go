package inventory

import (
	"context"
	"fmt"

	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type AlertSeverity string

const (
	SeverityLow   AlertSeverity = "low_stock"
	SeverityEmpty AlertSeverity = "out_of_stock"
)

// ReplenishmentAlert asks someone to restock one ledger row.
type ReplenishmentAlert struct {
	Key           inventory.StockKey `json:"key"`
	Available     int64              `json:"available"`
	MinStockLevel int64              `json:"min_stock_level"`
	// ShortBy is how many units bring Available back up to MinStockLevel.
	ShortBy  int64         `json:"short_by"`
	Severity AlertSeverity `json:"severity"`
}

func alertFor(e *inventory.StockBelowThresholdEvent) ReplenishmentAlert {
	a := ReplenishmentAlert{
		Key:           e.Key,
		Available:     e.Available,
		MinStockLevel: e.MinStockLevel,
		ShortBy:       max(e.MinStockLevel-e.Available, 0),
		Severity:      SeverityLow,
	}
	if e.Available <= 0 {
		a.Severity = SeverityEmpty
	}
	return a
}

// AlertNotifier delivers replenishment alerts (mail, chat, a buyer queue).
type AlertNotifier interface {
	Notify(ctx context.Context, alert ReplenishmentAlert) error
}

// ReplenishmentHandler turns stock_below_threshold events into alerts.
// A notifier error is logged, not returned: the event itself was handled
// and redelivering it would only repeat the alert.
type ReplenishmentHandler struct {
	notifier AlertNotifier
	logger   *zap.Logger
}

// NewReplenishmentHandler falls back to a LogNotifier when notifier is nil.
func NewReplenishmentHandler(notifier AlertNotifier, logger *zap.Logger) *ReplenishmentHandler {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &ReplenishmentHandler{notifier: notifier, logger: logger}
}

func (h *ReplenishmentHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

func (h *ReplenishmentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	e, ok := ev.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return fmt.Errorf("replenishment handler cannot take %s events", ev.EventType())
	}
	alert := alertFor(e)
	if err := h.notifier.Notify(ctx, alert); err != nil {
		h.logger.Error("replenishment alert not delivered",
			zap.Stringer("stock_record_id", e.AggregateID()),
			zap.String("severity", string(alert.Severity)),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*ReplenishmentHandler)(nil)

// LogNotifier writes alerts to the log. It is the notifier when nothing
// else is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, a ReplenishmentAlert) error {
	n.logger.Warn("replenishment needed",
		zap.String("severity", string(a.Severity)),
		zap.Stringer("product_id", a.Key.ProductID),
		zap.Stringer("warehouse_id", a.Key.WarehouseID),
		zap.Stringer("location_id", a.Key.LocationID),
		zap.Int64("available", a.Available),
		zap.Int64("min_stock_level", a.MinStockLevel),
		zap.Int64("short_by", a.ShortBy),
	)
	return nil
}
