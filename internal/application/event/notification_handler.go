package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Notification is a message for store staff about a finished workflow step.
type Notification struct {
	EventID       uuid.UUID `json:"event_id"`
	EventType     string    `json:"event_type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	Message       string    `json:"message"`
}

// NotificationDispatcher delivers notifications (e-mail, push, chat).
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// NotificationHandler turns workflow events into notifications.
type NotificationHandler struct {
	dispatcher NotificationDispatcher
	logger     *zap.Logger
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(dispatcher NotificationDispatcher, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		trade.EventTypeSaleCompleted,
		trade.EventTypeSaleCancelled,
		trade.EventTypeSaleRefunded,
		trade.EventTypeReturnProcessed,
		trade.EventTypeGoodsReceived,
		inventory.EventTypeTransferReceived,
	}
}

// Handle dispatches one notification per event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n := Notification{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		Message:       describe(event),
	}
	if err := h.dispatcher.Dispatch(ctx, n); err != nil {
		h.logger.Error("notification dispatch failed",
			zap.String("event_type", n.EventType),
			zap.String("aggregate_id", n.AggregateID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func describe(event shared.DomainEvent) string {
	switch e := event.(type) {
	case *trade.SaleCompletedEvent:
		return fmt.Sprintf("Sale %s completed, total %s", e.SaleNumber, e.TotalAmount)
	case *trade.SaleCancelledEvent:
		return fmt.Sprintf("Sale %s cancelled", e.SaleNumber)
	case *trade.SaleRefundedEvent:
		return fmt.Sprintf("Sale %s refunded", e.SaleNumber)
	case *trade.ReturnProcessedEvent:
		return fmt.Sprintf("Return %s processed as %s", e.ReturnNumber, e.Action)
	case *trade.GoodsReceivedEvent:
		return fmt.Sprintf("Goods receipt %s booked against %s", e.ReceiptNumber, e.OrderNumber)
	case *inventory.TransferReceivedEvent:
		return fmt.Sprintf("Transfer %s received", e.TransferNumber)
	}
	return event.EventType()
}

var _ shared.EventHandler = (*NotificationHandler)(nil)

// LoggingDispatcher writes notifications to the log.
type LoggingDispatcher struct {
	logger *zap.Logger
}

// NewLoggingDispatcher creates a LoggingDispatcher
func NewLoggingDispatcher(logger *zap.Logger) *LoggingDispatcher {
	return &LoggingDispatcher{logger: logger}
}

// Dispatch logs the notification
func (d *LoggingDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.logger.Info("notification",
		zap.String("event_type", n.EventType),
		zap.String("aggregate_id", n.AggregateID.String()),
		zap.String("message", n.Message),
	)
	return nil
}
