package trade

import (
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypePurchaseOrder names the purchase order aggregate in events
const AggregateTypePurchaseOrder = "PurchaseOrder"

const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
	EventTypePurchaseOrderResponded     = "PurchaseOrderResponded"
	EventTypePurchaseOrderReceived      = "PurchaseOrderReceived"
)

// PurchaseOrderCreatedEvent is published when an order is created
type PurchaseOrderCreatedEvent struct {
	shared.EventHeader
	PONumber    string          `json:"po_number"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, po.ID, po.SupplierID),
		PONumber:        po.PONumber,
		Status:          po.Status,
		TotalAmount:     po.TotalAmount,
		ItemCount:       len(po.Items),
	}
}

// PurchaseOrderStatusChangedEvent is published for every status transition
type PurchaseOrderStatusChangedEvent struct {
	shared.EventHeader
	PONumber   string    `json:"po_number"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(po *PurchaseOrder, from, to Status) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, po.ID, po.SupplierID),
		PONumber:        po.PONumber,
		From:            from,
		To:              to,
	}
}

// PurchaseOrderRespondedEvent is published when the supplier answers an order
type PurchaseOrderRespondedEvent struct {
	shared.EventHeader
	Response   SupplierResponse `json:"response"`
}

// NewPurchaseOrderRespondedEvent creates a new PurchaseOrderRespondedEvent
func NewPurchaseOrderRespondedEvent(po *PurchaseOrder) *PurchaseOrderRespondedEvent {
	return &PurchaseOrderRespondedEvent{
		EventHeader: shared.NewEventHeader(EventTypePurchaseOrderResponded, AggregateTypePurchaseOrder, po.ID, po.SupplierID),
		Response:        po.SupplierResponse,
	}
}

// PurchaseOrderReceivedEvent is published when goods were received
type PurchaseOrderReceivedEvent struct {
	shared.EventHeader
	OnTime       bool            `json:"on_time"`
	DeliveryDays decimal.Decimal `json:"delivery_days"`
}

// NewPurchaseOrderReceivedEvent creates a new PurchaseOrderReceivedEvent
func NewPurchaseOrderReceivedEvent(po *PurchaseOrder, r Receipt) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		EventHeader: shared.NewEventHeader(EventTypePurchaseOrderReceived, AggregateTypePurchaseOrder, po.ID, po.SupplierID),
		OnTime:          r.OnTime,
		DeliveryDays:    r.DeliveryDays,
	}
}
