package trade

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants for trade events
const (
	AggregateTypeSale          = "Sale"
	AggregateTypeSalesReturn   = "SalesReturn"
	AggregateTypePurchaseOrder = "PurchaseOrder"
)

// Event type constants
const (
	EventTypeSaleCreated     = "sale_created"
	EventTypeSaleCompleted   = "sale_completed"
	EventTypeSaleCancelled   = "sale_cancelled"
	EventTypeSaleRefunded    = "sale_refunded"
	EventTypeReturnProcessed = "return_processed"
	EventTypeGoodsReceived   = "goods_received"
)

// SaleLineSnapshot is the event payload form of a sale line.
type SaleLineSnapshot struct {
	ProductID uuid.UUID          `json:"product_id"`
	VariantID uuid.UUID          `json:"variant_id"`
	Quantity  int64              `json:"quantity"`
	Key       inventory.StockKey `json:"key"`
}

func saleLineSnapshots(s *Sale) []SaleLineSnapshot {
	out := make([]SaleLineSnapshot, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = SaleLineSnapshot{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity, Key: s.LineKey(l)}
	}
	return out
}

// SaleCreatedEvent is raised when a sale is opened
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleNumber  string          `json:"sale_number"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedBy   string          `json:"created_by"`
}

// NewSaleCreatedEvent creates a SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID),
		SaleNumber:      s.SaleNumber,
		CustomerID:      s.CustomerID,
		TotalAmount:     s.TotalAmount,
		CreatedBy:       s.CreatedBy,
	}
}

// SaleCompletedEvent is raised when a sale is paid in full and its stock committed
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleNumber    string             `json:"sale_number"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	Warehouse     inventory.Place    `json:"warehouse"`
	Lines         []SaleLineSnapshot `json:"lines"`
	OriginalTotal decimal.Decimal    `json:"original_total"`
}

// NewSaleCompletedEvent creates a SaleCompletedEvent
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID),
		SaleNumber:      s.SaleNumber,
		CustomerID:      s.CustomerID,
		TotalAmount:     s.TotalAmount,
		AmountPaid:      s.AmountPaid,
		Warehouse:       s.Place,
		Lines:           saleLineSnapshots(s),
		OriginalTotal:   s.TotalAmount,
	}
}

// SaleCancelledEvent is raised when an open sale is abandoned
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleNumber string             `json:"sale_number"`
	Reason     string             `json:"reason"`
	Lines      []SaleLineSnapshot `json:"lines"`
}

// NewSaleCancelledEvent creates a SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID),
		SaleNumber:      s.SaleNumber,
		Reason:          s.CancelReason,
		Lines:           saleLineSnapshots(s),
	}
}

// SaleRefundedEvent is raised when an open sale is voided with its payments returned
type SaleRefundedEvent struct {
	shared.BaseDomainEvent
	SaleNumber string          `json:"sale_number"`
	Reason     string          `json:"reason"`
	Refunded   decimal.Decimal `json:"refunded"`
}

// NewSaleRefundedEvent creates a SaleRefundedEvent
func NewSaleRefundedEvent(s *Sale) *SaleRefundedEvent {
	refunded := decimal.Zero
	for _, p := range s.Payments {
		if p.IsRefund() {
			refunded = refunded.Add(p.Amount.Neg())
		}
	}
	return &SaleRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRefunded, AggregateTypeSale, s.ID),
		SaleNumber:      s.SaleNumber,
		Reason:          s.CancelReason,
		Refunded:        refunded,
	}
}

// ReturnProcessedEvent is raised once a return has been settled
type ReturnProcessedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber string          `json:"return_number"`
	SaleID       uuid.UUID       `json:"sale_id"`
	Action       ReturnAction    `json:"action"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Restock      inventory.Place `json:"restock"`
	RestockType  RestockType     `json:"restock_type"`
}

// NewReturnProcessedEvent creates a ReturnProcessedEvent
func NewReturnProcessedEvent(r *SalesReturn) *ReturnProcessedEvent {
	return &ReturnProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnProcessed, AggregateTypeSalesReturn, r.ID),
		ReturnNumber:    r.ReturnNumber,
		SaleID:          r.SaleID,
		Action:          r.Action,
		RefundAmount:    r.RefundAmount,
		Restock:         r.Restock,
		RestockType:     r.RestockType,
	}
}

// GoodsReceivedEvent is raised for every goods received note
type GoodsReceivedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string              `json:"order_number"`
	ReceiptNumber string              `json:"receipt_number"`
	Status        PurchaseOrderStatus `json:"status"`
	Quantity      int64               `json:"quantity"`
	PutAway       bool                `json:"put_away"`
}

// NewGoodsReceivedEvent creates a GoodsReceivedEvent
func NewGoodsReceivedEvent(o *PurchaseOrder, g *GoodsReceipt) *GoodsReceivedEvent {
	return &GoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceived, AggregateTypePurchaseOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		ReceiptNumber:   g.ReceiptNumber,
		Status:          o.Status,
		Quantity:        g.TotalQuantity(),
		PutAway:         g.PutAway,
	}
}
