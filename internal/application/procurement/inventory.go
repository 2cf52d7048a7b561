package procurement

import (
	"context"
	"fmt"

	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/google/uuid"
)

// MovementTypeIn is the stock movement sent for received goods
const MovementTypeIn = "in"

// AdjustmentRequest asks the inventory service to move stock of one product
type AdjustmentRequest struct {
	ProductID      int64  `json:"product_id"`
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	MovementType   string `json:"movement_type"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"-"`
}

// InventoryNotifier forwards stock adjustments to the inventory service.
// Calls happen after the receipt committed and are never retried here.
type InventoryNotifier interface {
	Adjust(ctx context.Context, req AdjustmentRequest) error
}

// AdjustmentKey identifies the adjustment of one order line. The same line
// always yields the same key so a re-sync never books stock twice.
func AdjustmentKey(orderID, itemID uuid.UUID) string {
	return fmt.Sprintf("po:%s:item:%s", orderID, itemID)
}

// NewReceiptAdjustment builds the inbound adjustment for a received line
func NewReceiptAdjustment(po *trade.PurchaseOrder, item trade.PurchaseOrderItem) AdjustmentRequest {
	return AdjustmentRequest{
		ProductID:      item.ProductID,
		SKU:            item.SKU,
		Quantity:       item.Quantity,
		MovementType:   MovementTypeIn,
		Notes:          "Received from PO " + po.PONumber,
		IdempotencyKey: AdjustmentKey(po.ID, item.ID),
	}
}
