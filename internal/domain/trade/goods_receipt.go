package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
)

// GoodsReceipt is a goods received note: one supplier delivery against a
// purchase order.
type GoodsReceipt struct {
	ID              uuid.UUID
	ReceiptNumber   string
	PurchaseOrderID uuid.UUID
	ReceivedBy      string
	ReceivedAt      time.Time
	PutAway         bool
	Lines           []GoodsReceiptLine
}

// GoodsReceiptLine records the quantity delivered for one order line.
type GoodsReceiptLine struct {
	ID                  uuid.UUID       `json:"id"`
	PurchaseOrderLineID uuid.UUID       `json:"purchase_order_line_id"`
	ProductID           uuid.UUID       `json:"product_id"`
	VariantID           uuid.UUID       `json:"variant_id"`
	Quantity            int64           `json:"quantity"`
	Place               inventory.Place `json:"place"`
}

func newGoodsReceipt(o *PurchaseOrder, actor string, putAway bool) *GoodsReceipt {
	id := uuid.New()
	now := time.Now()
	return &GoodsReceipt{
		ID:              id,
		ReceiptNumber:   shared.NewDocumentNumber("GRN", id, now),
		PurchaseOrderID: o.ID,
		ReceivedBy:      actor,
		ReceivedAt:      now,
		PutAway:         putAway,
	}
}

func (g *GoodsReceipt) addLine(l PurchaseOrderLine, qty int64, p inventory.Place) {
	g.Lines = append(g.Lines, GoodsReceiptLine{
		ID:                  uuid.New(),
		PurchaseOrderLineID: l.ID,
		ProductID:           l.ProductID,
		VariantID:           l.VariantID,
		Quantity:            qty,
		Place:               p,
	})
}

// TotalQuantity sums the delivered quantities.
func (g *GoodsReceipt) TotalQuantity() int64 {
	var n int64
	for _, l := range g.Lines {
		n += l.Quantity
	}
	return n
}
