package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ==================== Sale DTOs ====================

// CreateSaleRequest represents a request to create a sale.
// Leaving WarehouseID empty lets the fulfillment selector choose.
type CreateSaleRequest struct {
	CustomerID          *uuid.UUID            `json:"customer_id"`
	WarehouseID         *uuid.UUID            `json:"warehouse_id"`
	LocationID          *uuid.UUID            `json:"location_id"`
	BinID               *uuid.UUID            `json:"bin_id"`
	Lines               []CreateSaleLineInput `json:"lines" validate:"required,min=1,dive"`
	TaxAmount           decimal.Decimal       `json:"tax_amount"`
	DiscountAmount      decimal.Decimal       `json:"discount_amount"`
	CustomerLocation    string                `json:"customer_location"`
	PreferredWarehouses []uuid.UUID           `json:"preferred_warehouses"`
}

// CreateSaleLineInput represents a line in the create sale request
type CreateSaleLineInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	VariantID *uuid.UUID       `json:"variant_id"`
	Quantity  int64            `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	CostPrice *decimal.Decimal `json:"cost_price"`
}

// ApplyPaymentRequest represents a payment against a sale
type ApplyPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash card store_credit exchange_credit"`
	Reference string          `json:"reference" validate:"max=100"`
}

// UpdateSaleFinancialsRequest changes the money fields of an open sale.
// TotalAmount, when given, must match the total derived from the lines.
type UpdateSaleFinancialsRequest struct {
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TotalAmount    *decimal.Decimal `json:"total_amount"`
}

// SaleLineResponse represents a sale line in API responses
type SaleLineResponse struct {
	ID         uuid.UUID        `json:"id"`
	LineNo     int              `json:"line_no"`
	ProductID  uuid.UUID        `json:"product_id"`
	VariantID  uuid.UUID        `json:"variant_id"`
	Quantity   int64            `json:"quantity"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	CostPrice  *decimal.Decimal `json:"cost_price,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	SaleNumber     string             `json:"sale_number"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
	Place          inventory.Place    `json:"place"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	AmountPaid     decimal.Decimal    `json:"amount_paid"`
	PaymentStatus  string             `json:"payment_status"`
	IsLocked       bool               `json:"is_locked"`
	LockedAt       *time.Time         `json:"locked_at,omitempty"`
	OriginalTotal  *decimal.Decimal   `json:"original_total,omitempty"`
	CreatedBy      string             `json:"created_by"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	Lines          []SaleLineResponse `json:"lines"`
	Payments       []PaymentResponse  `json:"payments"`
	Version        int                `json:"version"`
}

// ToSaleResponse converts a domain Sale to a response DTO
func ToSaleResponse(s *trade.Sale) SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineResponse{
			ID:         l.ID,
			LineNo:     l.LineNo,
			ProductID:  l.ProductID,
			VariantID:  l.VariantID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TotalPrice: l.TotalPrice,
			CostPrice:  l.CostPrice,
		}
	}
	payments := make([]PaymentResponse, len(s.Payments))
	for i, p := range s.Payments {
		payments[i] = PaymentResponse{
			ID:        p.ID,
			Amount:    p.Amount,
			Method:    string(p.Method),
			Reference: p.Reference,
			CreatedAt: p.CreatedAt,
		}
	}
	return SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		CustomerID:     s.CustomerID,
		Place:          s.Place,
		TotalAmount:    s.TotalAmount,
		TaxAmount:      s.TaxAmount,
		DiscountAmount: s.DiscountAmount,
		AmountPaid:     s.AmountPaid,
		PaymentStatus:  s.PaymentStatus.String(),
		IsLocked:       s.IsLocked,
		LockedAt:       s.LockedAt,
		OriginalTotal:  s.OriginalTotal,
		CreatedBy:      s.CreatedBy,
		CompletedAt:    s.CompletedAt,
		Lines:          lines,
		Payments:       payments,
		Version:        s.Version,
	}
}

// ==================== Return DTOs ====================

// CreateReturnRequest represents a request to return goods from a sale
type CreateReturnRequest struct {
	SaleID       uuid.UUID               `json:"sale_id" validate:"required"`
	ReturnType   string                  `json:"return_type" validate:"required,oneof=return exchange refund"`
	Reason       string                  `json:"reason" validate:"max=500"`
	Lines        []CreateReturnLineInput `json:"lines" validate:"required,min=1,dive"`
	RefundAmount *decimal.Decimal        `json:"refund_amount"`
}

// CreateReturnLineInput represents a line in the create return request
type CreateReturnLineInput struct {
	SaleLineID        uuid.UUID       `json:"sale_line_id" validate:"required"`
	Quantity          int64           `json:"quantity" validate:"gt=0"`
	ExchangeProductID *uuid.UUID      `json:"exchange_product_id"`
	ExchangeVariantID *uuid.UUID      `json:"exchange_variant_id"`
	ExchangeQuantity  int64           `json:"exchange_quantity" validate:"gte=0"`
	ExchangePrice     decimal.Decimal `json:"exchange_price"`
}

// ProcessReturnRequest settles an approved return. An empty action falls
// back to the one implied by the return type; an empty warehouse restocks
// where the original sale was served from.
type ProcessReturnRequest struct {
	Action                  string          `json:"action" validate:"omitempty,oneof=refund store_credit exchange"`
	WarehouseID             *uuid.UUID      `json:"warehouse_id"`
	LocationID              *uuid.UUID      `json:"location_id"`
	BinID                   *uuid.UUID      `json:"bin_id"`
	RestockType             string          `json:"restock_type" validate:"omitempty,oneof=normal quality_control"`
	AdditionalPayment       decimal.Decimal `json:"additional_payment"`
	AdditionalPaymentMethod string          `json:"additional_payment_method" validate:"omitempty,oneof=cash card store_credit"`
}

// UpdateReturnAmountsRequest changes the money fields of an open return
type UpdateReturnAmountsRequest struct {
	TotalAmount  decimal.Decimal `json:"total_amount"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// ReturnResponse represents a sales return in API responses
type ReturnResponse struct {
	ID             uuid.UUID          `json:"id"`
	ReturnNumber   string             `json:"return_number"`
	SaleID         uuid.UUID          `json:"sale_id"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
	ReturnType     string             `json:"return_type"`
	Status         string             `json:"status"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	RefundAmount   decimal.Decimal    `json:"refund_amount"`
	Reason         string             `json:"reason,omitempty"`
	Action         string             `json:"action,omitempty"`
	RestockType    string             `json:"restock_type"`
	Restock        inventory.Place    `json:"restock"`
	ExchangeSaleID *uuid.UUID         `json:"exchange_sale_id,omitempty"`
	IsLocked       bool               `json:"is_locked"`
	ProcessedAt    *time.Time         `json:"processed_at,omitempty"`
	Lines          []trade.ReturnLine `json:"lines"`
	Version        int                `json:"version"`
}

// ToReturnResponse converts a domain SalesReturn to a response DTO
func ToReturnResponse(r *trade.SalesReturn) ReturnResponse {
	return ReturnResponse{
		ID:             r.ID,
		ReturnNumber:   r.ReturnNumber,
		SaleID:         r.SaleID,
		CustomerID:     r.CustomerID,
		ReturnType:     string(r.ReturnType),
		Status:         r.Status.String(),
		TotalAmount:    r.TotalAmount,
		RefundAmount:   r.RefundAmount,
		Reason:         r.Reason,
		Action:         string(r.Action),
		RestockType:    string(r.RestockType),
		Restock:        r.Restock,
		ExchangeSaleID: r.ExchangeSaleID,
		IsLocked:       r.IsLocked,
		ProcessedAt:    r.ProcessedAt,
		Lines:          append([]trade.ReturnLine(nil), r.Lines...),
		Version:        r.Version,
	}
}

// ==================== Purchase DTOs ====================

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID  uuid.UUID                      `json:"supplier_id" validate:"required"`
	WarehouseID uuid.UUID                      `json:"warehouse_id" validate:"required"`
	Lines       []CreatePurchaseOrderLineInput `json:"lines" validate:"required,min=1,dive"`
	TaxAmount   decimal.Decimal                `json:"tax_amount"`
}

// CreatePurchaseOrderLineInput represents a line in the create purchase order request
type CreatePurchaseOrderLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	VariantID *uuid.UUID      `json:"variant_id"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// ReceiptLineRequest is one line of a goods receipt or put-away
type ReceiptLineRequest struct {
	LineID     uuid.UUID  `json:"line_id" validate:"required"`
	Quantity   int64      `json:"quantity" validate:"gt=0"`
	LocationID *uuid.UUID `json:"location_id"`
	BinID      *uuid.UUID `json:"bin_id"`
}

// ReceiveGoodsRequest books a supplier delivery against a purchase order
type ReceiveGoodsRequest struct {
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id" validate:"required"`
	Lines           []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
	PutAway         bool                 `json:"put_away"`
}

// PutAwayGoodsRequest moves received goods into inventory
type PutAwayGoodsRequest struct {
	Lines []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func toReceiptLines(in []ReceiptLineRequest) []trade.ReceiptLineInput {
	out := make([]trade.ReceiptLineInput, len(in))
	for i, l := range in {
		out[i] = trade.ReceiptLineInput{
			LineID:     l.LineID,
			Quantity:   l.Quantity,
			LocationID: derefID(l.LocationID),
			BinID:      derefID(l.BinID),
		}
	}
	return out
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID          uuid.UUID                 `json:"id"`
	OrderNumber string                    `json:"order_number"`
	SupplierID  uuid.UUID                 `json:"supplier_id"`
	WarehouseID uuid.UUID                 `json:"warehouse_id"`
	Status      string                    `json:"status"`
	TotalAmount decimal.Decimal           `json:"total_amount"`
	TaxAmount   decimal.Decimal           `json:"tax_amount"`
	CreatedBy   string                    `json:"created_by"`
	ApprovedBy  string                    `json:"approved_by,omitempty"`
	OrderedAt   *time.Time                `json:"ordered_at,omitempty"`
	ReceivedAt  *time.Time                `json:"received_at,omitempty"`
	Lines       []trade.PurchaseOrderLine `json:"lines"`
	Version     int                       `json:"version"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to a response DTO
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		SupplierID:  o.SupplierID,
		WarehouseID: o.WarehouseID,
		Status:      o.Status.String(),
		TotalAmount: o.TotalAmount,
		TaxAmount:   o.TaxAmount,
		CreatedBy:   o.CreatedBy,
		ApprovedBy:  o.ApprovedBy,
		OrderedAt:   o.OrderedAt,
		ReceivedAt:  o.ReceivedAt,
		Lines:       append([]trade.PurchaseOrderLine(nil), o.Lines...),
		Version:     o.Version,
	}
}

// GoodsReceiptResponse represents a goods received note in API responses
type GoodsReceiptResponse struct {
	ID              uuid.UUID                `json:"id"`
	ReceiptNumber   string                   `json:"receipt_number"`
	PurchaseOrderID uuid.UUID                `json:"purchase_order_id"`
	ReceivedBy      string                   `json:"received_by"`
	ReceivedAt      time.Time                `json:"received_at"`
	PutAway         bool                     `json:"put_away"`
	Lines           []trade.GoodsReceiptLine `json:"lines"`
}

// ToGoodsReceiptResponse converts a domain GoodsReceipt to a response DTO
func ToGoodsReceiptResponse(g *trade.GoodsReceipt) GoodsReceiptResponse {
	return GoodsReceiptResponse{
		ID:              g.ID,
		ReceiptNumber:   g.ReceiptNumber,
		PurchaseOrderID: g.PurchaseOrderID,
		ReceivedBy:      g.ReceivedBy,
		ReceivedAt:      g.ReceivedAt,
		PutAway:         g.PutAway,
		Lines:           g.Lines,
	}
}

// ==================== Customer DTOs ====================

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Code  string `json:"code" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Email       string          `json:"email,omitempty"`
	StoreCredit decimal.Decimal `json:"store_credit"`
	Version     int             `json:"version"`
}

// ToCustomerResponse converts a domain Customer to a response DTO
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Email:       c.Email,
		StoreCredit: c.StoreCredit,
		Version:     c.Version,
	}
}
