package models

import (
	"time"

	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate.
type PurchaseOrderModel struct {
	VersionedRecord
	PONumber              string          `gorm:"column:po_number;type:varchar(50);not null;uniqueIndex:idx_purchase_orders_po_number"`
	SupplierID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OrderDate             time.Time       `gorm:"not null"`
	ExpectedDeliveryDate  *time.Time      `gorm:"index"`
	ActualDeliveryDate    *time.Time
	EstimatedDeliveryDate *time.Time
	Status                trade.Status           `gorm:"type:varchar(20);not null;default:'draft';index"`
	SupplierResponse      trade.SupplierResponse `gorm:"type:varchar(20);not null;default:'pending';index"`
	RequestedQuantity     *int
	ApprovedQuantity      *int
	RejectionReason       *string `gorm:"type:text"`
	TrackingNumber        *string `gorm:"type:varchar(100)"`
	Notes                 *string `gorm:"type:text"`
	SupplierNotes         *string `gorm:"type:text"`
	RespondedAt           *time.Time
	Items                 []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	items := make([]trade.PurchaseOrderItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &trade.PurchaseOrder{
		BaseAggregateRoot:     m.aggregate(),
		PONumber:              m.PONumber,
		SupplierID:            m.SupplierID,
		TotalAmount:           m.TotalAmount,
		OrderDate:             m.OrderDate,
		ExpectedDeliveryDate:  m.ExpectedDeliveryDate,
		ActualDeliveryDate:    m.ActualDeliveryDate,
		EstimatedDeliveryDate: m.EstimatedDeliveryDate,
		Status:                m.Status,
		SupplierResponse:      m.SupplierResponse,
		RequestedQuantity:     m.RequestedQuantity,
		ApprovedQuantity:      m.ApprovedQuantity,
		RejectionReason:       m.RejectionReason,
		TrackingNumber:        m.TrackingNumber,
		Notes:                 m.Notes,
		SupplierNotes:         m.SupplierNotes,
		RespondedAt:           m.RespondedAt,
		Items:                 items,
	}
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(po *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		VersionedRecord:       versionedOf(po.BaseAggregateRoot),
		PONumber:              po.PONumber,
		SupplierID:            po.SupplierID,
		TotalAmount:           po.TotalAmount,
		OrderDate:             po.OrderDate,
		ExpectedDeliveryDate:  po.ExpectedDeliveryDate,
		ActualDeliveryDate:    po.ActualDeliveryDate,
		EstimatedDeliveryDate: po.EstimatedDeliveryDate,
		Status:                po.Status,
		SupplierResponse:      po.SupplierResponse,
		RequestedQuantity:     po.RequestedQuantity,
		ApprovedQuantity:      po.ApprovedQuantity,
		RejectionReason:       po.RejectionReason,
		TrackingNumber:        po.TrackingNumber,
		Notes:                 po.Notes,
		SupplierNotes:         po.SupplierNotes,
		RespondedAt:           po.RespondedAt,
		Items:                 PurchaseOrderItemModelsFromDomain(po.Items),
	}
	return m
}

// MutableColumns returns the columns a version-checked save writes.
// po_number and supplier_id are immutable and never included.
func (m *PurchaseOrderModel) MutableColumns() map[string]any {
	return map[string]any{
		"total_amount":            m.TotalAmount,
		"expected_delivery_date":  m.ExpectedDeliveryDate,
		"actual_delivery_date":    m.ActualDeliveryDate,
		"estimated_delivery_date": m.EstimatedDeliveryDate,
		"status":                  m.Status,
		"supplier_response":       m.SupplierResponse,
		"requested_quantity":      m.RequestedQuantity,
		"approved_quantity":       m.ApprovedQuantity,
		"rejection_reason":        m.RejectionReason,
		"tracking_number":         m.TrackingNumber,
		"notes":                   m.Notes,
		"supplier_notes":          m.SupplierNotes,
		"responded_at":            m.RespondedAt,
		"updated_at":              m.UpdatedAt,
	}
}

// PurchaseOrderItemModel is the persistence model for a purchase order line.
type PurchaseOrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       int64           `gorm:"not null;index"`
	SKU             string          `gorm:"column:sku;type:varchar(100);not null"`
	ProductName     string          `gorm:"type:varchar(255)"`
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem.
func (m *PurchaseOrderItemModel) ToDomain() trade.PurchaseOrderItem {
	return trade.PurchaseOrderItem{
		ID:              m.ID,
		PurchaseOrderID: m.PurchaseOrderID,
		ProductID:       m.ProductID,
		SKU:             m.SKU,
		ProductName:     m.ProductName,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		LineTotal:       m.LineTotal,
	}
}

// PurchaseOrderItemModelsFromDomain converts domain items to persistence models.
func PurchaseOrderItemModelsFromDomain(items []trade.PurchaseOrderItem) []PurchaseOrderItemModel {
	out := make([]PurchaseOrderItemModel, len(items))
	for i, item := range items {
		out[i] = PurchaseOrderItemModel{
			ID:              item.ID,
			PurchaseOrderID: item.PurchaseOrderID,
			ProductID:       item.ProductID,
			SKU:             item.SKU,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			LineTotal:       item.LineTotal,
		}
	}
	return out
}

