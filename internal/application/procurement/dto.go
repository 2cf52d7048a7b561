package procurement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Dates
// =============================================================================

// Date accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", raw)
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// =============================================================================
// Supplier DTOs
// =============================================================================

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Name          string  `json:"name" binding:"required,min=1,max=255"`
	ContactPerson string  `json:"contact_person" binding:"max=255"`
	Email         string  `json:"email" binding:"required,email,max=255"`
	Phone         string  `json:"phone" binding:"max=50"`
	Address       string  `json:"address" binding:"max=1000"`
	Country       string  `json:"country" binding:"max=100"`
	PaymentTerms  string  `json:"payment_terms" binding:"max=255"`
	AsgardeoSub   *string `json:"asgardeo_sub" binding:"omitempty,max=255"`
	IsActive      *bool   `json:"is_active"`
}

// UpdateSupplierRequest represents a partial profile update
type UpdateSupplierRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=255"`
	ContactPerson *string `json:"contact_person" binding:"omitempty,max=255"`
	Email         *string `json:"email" binding:"omitempty,email,max=255"`
	Phone         *string `json:"phone" binding:"omitempty,max=50"`
	Address       *string `json:"address" binding:"omitempty,max=1000"`
	Country       *string `json:"country" binding:"omitempty,max=100"`
	PaymentTerms  *string `json:"payment_terms" binding:"omitempty,max=255"`
	AsgardeoSub   *string `json:"asgardeo_sub" binding:"omitempty,max=255"`
	IsActive      *bool   `json:"is_active"`
}

func (r UpdateSupplierRequest) toProfileUpdate() partner.ProfileUpdate {
	return partner.ProfileUpdate{
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		Country:       r.Country,
		PaymentTerms:  r.PaymentTerms,
		AsgardeoSub:   r.AsgardeoSub,
		IsActive:      r.IsActive,
	}
}

// SupplierListFilter holds supplier list query parameters
type SupplierListFilter struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Size      int    `form:"size" binding:"omitempty,min=1"`
	Search    string `form:"search" binding:"max=255"`
	IsActive  *bool  `form:"is_active"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	ContactPerson       string          `json:"contact_person"`
	Email               string          `json:"email"`
	Phone               string          `json:"phone"`
	Address             string          `json:"address"`
	Country             string          `json:"country"`
	PaymentTerms        string          `json:"payment_terms"`
	AsgardeoSub         *string         `json:"asgardeo_sub,omitempty"`
	IsActive            bool            `json:"is_active"`
	TotalOrders         int             `json:"total_orders"`
	OnTimeDeliveries    int             `json:"on_time_deliveries"`
	LateDeliveries      int             `json:"late_deliveries"`
	AverageDeliveryDays decimal.Decimal `json:"average_delivery_days"`
	LastDeliveryDate    *time.Time      `json:"last_delivery_date,omitempty"`
	AverageRating       decimal.Decimal `json:"average_rating"`
	TotalRatings        int             `json:"total_ratings"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ToSupplierResponse converts a domain Supplier to SupplierResponse
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:                  s.ID,
		Name:                s.Name,
		ContactPerson:       s.ContactPerson,
		Email:               s.Email,
		Phone:               s.Phone,
		Address:             s.Address,
		Country:             s.Country,
		PaymentTerms:        s.PaymentTerms,
		AsgardeoSub:         s.AsgardeoSub,
		IsActive:            s.IsActive,
		TotalOrders:         s.Performance.TotalOrders,
		OnTimeDeliveries:    s.Performance.OnTimeDeliveries,
		LateDeliveries:      s.Performance.LateDeliveries,
		AverageDeliveryDays: s.Performance.AverageDeliveryDays,
		LastDeliveryDate:    s.Performance.LastDeliveryDate,
		AverageRating:       s.Performance.AverageRating,
		TotalRatings:        s.Performance.TotalRatings,
		Version:             s.Version,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// PerformanceResponse reports a supplier's delivery and rating figures
type PerformanceResponse struct {
	SupplierID          uuid.UUID       `json:"supplier_id"`
	Name                string          `json:"name"`
	TotalOrders         int             `json:"total_orders"`
	OnTimeDeliveries    int             `json:"on_time_deliveries"`
	LateDeliveries      int             `json:"late_deliveries"`
	OnTimePercentage    decimal.Decimal `json:"on_time_percentage"`
	AverageDeliveryDays decimal.Decimal `json:"average_delivery_days"`
	LastDeliveryDate    *time.Time      `json:"last_delivery_date,omitempty"`
	AverageRating       decimal.Decimal `json:"average_rating"`
	TotalRatings        int             `json:"total_ratings"`
}

// ToPerformanceResponse converts a supplier's performance block
func ToPerformanceResponse(s *partner.Supplier) PerformanceResponse {
	p := s.Performance
	return PerformanceResponse{
		SupplierID:          s.ID,
		Name:                s.Name,
		TotalOrders:         p.TotalOrders,
		OnTimeDeliveries:    p.OnTimeDeliveries,
		LateDeliveries:      p.LateDeliveries,
		OnTimePercentage:    p.OnTimePercentage(),
		AverageDeliveryDays: p.AverageDeliveryDays,
		LastDeliveryDate:    p.LastDeliveryDate,
		AverageRating:       p.AverageRating,
		TotalRatings:        p.TotalRatings,
	}
}

// AuditEntryResponse represents one audit entry
type AuditEntryResponse struct {
	ID         uuid.UUID     `json:"id"`
	SupplierID uuid.UUID     `json:"supplier_id"`
	Actor      string        `json:"actor"`
	Action     string        `json:"action"`
	Details    audit.Details `json:"details"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ToAuditEntryResponses converts audit entries
func ToAuditEntryResponses(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			ID:         e.ID,
			SupplierID: e.SupplierID,
			Actor:      e.Actor,
			Action:     e.Action,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out
}

// =============================================================================
// Purchase Order DTOs
// =============================================================================

// ItemRequest is one line of a purchase order request
type ItemRequest struct {
	ProductID   int64           `json:"product_id" binding:"required,min=1"`
	SKU         string          `json:"sku" binding:"max=100"`
	ProductName string          `json:"product_name" binding:"max=255"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func toItemInputs(items []ItemRequest) []trade.ItemInput {
	out := make([]trade.ItemInput, len(items))
	for i, it := range items {
		out[i] = trade.ItemInput{
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return out
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID           uuid.UUID        `json:"supplier_id" binding:"required"`
	Status               string           `json:"status" binding:"omitempty,oneof=draft pending"`
	TotalAmount          *decimal.Decimal `json:"total_amount"`
	OrderDate            *Date            `json:"order_date"`
	ExpectedDeliveryDate *Date            `json:"expected_delivery_date"`
	RequestedQuantity    *int             `json:"requested_quantity" binding:"omitempty,min=1"`
	Notes                *string          `json:"notes" binding:"omitempty,max=2000"`
	Items                []ItemRequest    `json:"items" binding:"omitempty,dive"`
}

func (r CreatePurchaseOrderRequest) toCreateInput() trade.CreateInput {
	return trade.CreateInput{
		InitialStatus:        trade.Status(r.Status),
		TotalAmount:          r.TotalAmount,
		OrderDate:            r.OrderDate.ptr(),
		ExpectedDeliveryDate: r.ExpectedDeliveryDate.ptr(),
		RequestedQuantity:    r.RequestedQuantity,
		Notes:                r.Notes,
		Items:                toItemInputs(r.Items),
	}
}

// UpdatePurchaseOrderRequest changes the status and editable details of an order
type UpdatePurchaseOrderRequest struct {
	Status               *string        `json:"status" binding:"omitempty,po_status"`
	Notes                *string        `json:"notes" binding:"omitempty,max=2000"`
	ExpectedDeliveryDate *Date          `json:"expected_delivery_date"`
	Items                *[]ItemRequest `json:"items" binding:"omitempty,dive"`
}

func (r UpdatePurchaseOrderRequest) isEmpty() bool {
	return r.Status == nil && r.Notes == nil && r.ExpectedDeliveryDate == nil && r.Items == nil
}

// RespondRequest is the supplier's answer to an order
type RespondRequest struct {
	Response              string  `json:"response" binding:"required,oneof=approved partially_approved rejected"`
	ApprovedQuantity      *int    `json:"approved_quantity" binding:"omitempty,min=1"`
	RejectionReason       *string `json:"rejection_reason" binding:"omitempty,max=2000"`
	SupplierNotes         *string `json:"supplier_notes" binding:"omitempty,max=2000"`
	EstimatedDeliveryDate *Date   `json:"estimated_delivery_date"`
}

func (r RespondRequest) toResponseInput() trade.ResponseInput {
	return trade.ResponseInput{
		Response:              trade.SupplierResponse(r.Response),
		ApprovedQuantity:      r.ApprovedQuantity,
		RejectionReason:       r.RejectionReason,
		SupplierNotes:         r.SupplierNotes,
		EstimatedDeliveryDate: r.EstimatedDeliveryDate.ptr(),
	}
}

// ShipRequest is the supplier's shipping progress update
type ShipRequest struct {
	Status                string  `json:"status" binding:"required,oneof=preparing shipped"`
	TrackingNumber        *string `json:"tracking_number" binding:"omitempty,max=255"`
	EstimatedDeliveryDate *Date   `json:"estimated_delivery_date"`
	SupplierNotes         *string `json:"supplier_notes" binding:"omitempty,max=2000"`
}

func (r ShipRequest) toShipmentInput() trade.ShipmentInput {
	return trade.ShipmentInput{
		Status:                trade.Status(r.Status),
		TrackingNumber:        r.TrackingNumber,
		EstimatedDeliveryDate: r.EstimatedDeliveryDate.ptr(),
		SupplierNotes:         r.SupplierNotes,
	}
}

// OrderListFilter holds purchase order list query parameters
type OrderListFilter struct {
	Page             int        `form:"page" binding:"omitempty,min=1"`
	Size             int        `form:"size" binding:"omitempty,min=1"`
	SupplierID       *uuid.UUID `form:"-"`
	Status           string     `form:"status" binding:"omitempty,po_status"`
	SupplierResponse string     `form:"supplier_response" binding:"omitempty,supplier_response"`
	SortBy           string     `form:"sort_by"`
	SortOrder        string     `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// PurchaseOrderItemResponse represents an order line in API responses
type PurchaseOrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   int64           `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                    uuid.UUID                   `json:"id"`
	PONumber              string                      `json:"po_number"`
	SupplierID            uuid.UUID                   `json:"supplier_id"`
	TotalAmount           decimal.Decimal             `json:"total_amount"`
	OrderDate             time.Time                   `json:"order_date"`
	ExpectedDeliveryDate  *time.Time                  `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate    *time.Time                  `json:"actual_delivery_date,omitempty"`
	EstimatedDeliveryDate *time.Time                  `json:"estimated_delivery_date,omitempty"`
	Status                string                      `json:"status"`
	SupplierResponse      string                      `json:"supplier_response"`
	RequestedQuantity     *int                        `json:"requested_quantity,omitempty"`
	ApprovedQuantity      *int                        `json:"approved_quantity,omitempty"`
	RejectionReason       *string                     `json:"rejection_reason,omitempty"`
	TrackingNumber        *string                     `json:"tracking_number,omitempty"`
	Notes                 *string                     `json:"notes,omitempty"`
	SupplierNotes         *string                     `json:"supplier_notes,omitempty"`
	RespondedAt           *time.Time                  `json:"responded_at,omitempty"`
	Items                 []PurchaseOrderItemResponse `json:"items"`
	Version               int                         `json:"version"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to PurchaseOrderResponse
func ToPurchaseOrderResponse(po *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(po.Items))
	for i, it := range po.Items {
		items[i] = PurchaseOrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return PurchaseOrderResponse{
		ID:                    po.ID,
		PONumber:              po.PONumber,
		SupplierID:            po.SupplierID,
		TotalAmount:           po.TotalAmount,
		OrderDate:             po.OrderDate,
		ExpectedDeliveryDate:  po.ExpectedDeliveryDate,
		ActualDeliveryDate:    po.ActualDeliveryDate,
		EstimatedDeliveryDate: po.EstimatedDeliveryDate,
		Status:                po.Status.String(),
		SupplierResponse:      po.SupplierResponse.String(),
		RequestedQuantity:     po.RequestedQuantity,
		ApprovedQuantity:      po.ApprovedQuantity,
		RejectionReason:       po.RejectionReason,
		TrackingNumber:        po.TrackingNumber,
		Notes:                 po.Notes,
		SupplierNotes:         po.SupplierNotes,
		RespondedAt:           po.RespondedAt,
		Items:                 items,
		Version:               po.Version,
		CreatedAt:             po.CreatedAt,
		UpdatedAt:             po.UpdatedAt,
	}
}

func toPurchaseOrderResponses(orders []trade.PurchaseOrder) []PurchaseOrderResponse {
	out := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return out
}

// InventoryError describes one line whose stock adjustment failed
type InventoryError struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku,omitempty"`
	Error     string `json:"error"`
}

// InventoryReport summarises the stock adjustments sent for an order
type InventoryReport struct {
	Successful bool             `json:"successful"`
	Errors     []InventoryError `json:"errors,omitempty"`
}

// ReceiveResponse is the result of a receipt or an inventory re-sync
type ReceiveResponse struct {
	Order            PurchaseOrderResponse `json:"order"`
	InventoryUpdates InventoryReport       `json:"inventory_updates"`
}

// OrderStatsResponse counts orders per status
type OrderStatsResponse struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
}

// ToOrderStatsResponse converts repository statistics
func ToOrderStatsResponse(stats *trade.OrderStats) OrderStatsResponse {
	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[status.String()] = n
	}
	return OrderStatsResponse{Total: stats.Total, ByStatus: byStatus, TotalAmount: stats.TotalAmount}
}

// =============================================================================
// Rating DTOs
// =============================================================================

// CreateRatingRequest rates a received purchase order
type CreateRatingRequest struct {
	PurchaseOrderID     uuid.UUID `json:"purchase_order_id" binding:"required"`
	Rating              int       `json:"rating" binding:"required,min=1,max=5"`
	QualityRating       *int      `json:"quality_rating" binding:"omitempty,min=1,max=5"`
	DeliveryRating      *int      `json:"delivery_rating" binding:"omitempty,min=1,max=5"`
	CommunicationRating *int      `json:"communication_rating" binding:"omitempty,min=1,max=5"`
	Comments            string    `json:"comments" binding:"max=2000"`
}

// UpdateRatingRequest changes selected axes of a rating
type UpdateRatingRequest struct {
	Rating              *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	QualityRating       *int    `json:"quality_rating" binding:"omitempty,min=1,max=5"`
	DeliveryRating      *int    `json:"delivery_rating" binding:"omitempty,min=1,max=5"`
	CommunicationRating *int    `json:"communication_rating" binding:"omitempty,min=1,max=5"`
	Comments            *string `json:"comments" binding:"omitempty,max=2000"`
}

// RatingResponse represents a rating in API responses
type RatingResponse struct {
	ID                  uuid.UUID  `json:"id"`
	SupplierID          uuid.UUID  `json:"supplier_id"`
	PurchaseOrderID     uuid.UUID  `json:"purchase_order_id"`
	PONumber            string     `json:"po_number,omitempty"`
	OrderDate           *time.Time `json:"order_date,omitempty"`
	Rating              int        `json:"rating"`
	QualityRating       *int       `json:"quality_rating,omitempty"`
	DeliveryRating      *int       `json:"delivery_rating,omitempty"`
	CommunicationRating *int       `json:"communication_rating,omitempty"`
	Comments            string     `json:"comments,omitempty"`
	RatedBy             string     `json:"rated_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ToRatingResponse converts a domain SupplierRating
func ToRatingResponse(r *partner.SupplierRating) RatingResponse {
	return RatingResponse{
		ID:                  r.ID,
		SupplierID:          r.SupplierID,
		PurchaseOrderID:     r.PurchaseOrderID,
		Rating:              r.Scores.Overall,
		QualityRating:       r.Scores.Quality,
		DeliveryRating:      r.Scores.Delivery,
		CommunicationRating: r.Scores.Communication,
		Comments:            r.Comments,
		RatedBy:             r.RatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toRatingWithOrderResponses(rows []partner.RatingWithOrder) []RatingResponse {
	out := make([]RatingResponse, len(rows))
	for i := range rows {
		resp := ToRatingResponse(&rows[i].SupplierRating)
		resp.PONumber = rows[i].PONumber
		orderDate := rows[i].OrderDate
		resp.OrderDate = &orderDate
		out[i] = resp
	}
	return out
}

// RatingStatsResponse combines rating averages with the supplier aggregates
type RatingStatsResponse struct {
	SupplierID           uuid.UUID           `json:"supplier_id"`
	TotalRatings         int64               `json:"total_ratings"`
	AverageRating        *decimal.Decimal    `json:"average_rating"`
	AverageQuality       *decimal.Decimal    `json:"average_quality"`
	AverageDelivery      *decimal.Decimal    `json:"average_delivery"`
	AverageCommunication *decimal.Decimal    `json:"average_communication"`
	Supplier             PerformanceResponse `json:"supplier"`
}
