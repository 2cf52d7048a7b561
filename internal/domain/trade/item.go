package trade

import (
	"strings"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem is a line of a purchase order. ProductID refers to a
// product owned by the inventory service.
type PurchaseOrderItem struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	ProductID       int64
	SKU             string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
}

// ItemInput is the caller supplied part of a line item
type ItemInput struct {
	ProductID   int64
	SKU         string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// NewPurchaseOrderItem validates input and computes the line total
func NewPurchaseOrderItem(orderID uuid.UUID, in ItemInput) (*PurchaseOrderItem, error) {
	if in.ProductID <= 0 {
		return nil, shared.NewValidationError("item product_id must be positive")
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return nil, shared.NewValidationError("item sku cannot be empty")
	}
	if len(sku) > 100 {
		return nil, shared.NewValidationError("item sku cannot exceed 100 characters")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("item quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("item unit_price cannot be negative")
	}

	return &PurchaseOrderItem{
		ID:              uuid.New(),
		PurchaseOrderID: orderID,
		ProductID:       in.ProductID,
		SKU:             sku,
		ProductName:     strings.TrimSpace(in.ProductName),
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice.Round(2),
		LineTotal:       in.UnitPrice.Round(2).Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
	}, nil
}

func buildItems(orderID uuid.UUID, inputs []ItemInput) ([]PurchaseOrderItem, error) {
	items := make([]PurchaseOrderItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := NewPurchaseOrderItem(orderID, in)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func sumLineTotals(items []PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}
