package handler

import (
	"net/http"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *procurement.PurchaseOrderService
	owners       OwnerResolver
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler. owners resolves
// the supplier profile of supplier users so they only see their own orders.
func NewPurchaseOrderHandler(orderService *procurement.PurchaseOrderService, owners OwnerResolver) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService, owners: owners}
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req procurement.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, po.Version)
	h.Created(c, po)
}

// List handles GET /purchase-orders. Supplier users are confined to their
// own orders whatever supplier_id they ask for.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter procurement.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	supplierID, ok := h.QueryUUID(c, "supplier_id")
	if !ok {
		return
	}
	filter.SupplierID = supplierID
	owner, err := ownerScope(c, h.owners)
	if err != nil {
		h.Error(c, err)
		return
	}
	if owner != nil {
		filter.SupplierID = owner
	}

	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(*page))
}

// GetByID handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	owner, err := ownerScope(c, h.owners)
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	if owner != nil && po.SupplierID != *owner {
		h.Error(c, shared.NewNotFoundError("purchase order", id))
		return
	}
	h.SetETag(c, po.Version)
	h.Success(c, po)
}

// Update handles PATCH /purchase-orders/:id
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req procurement.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.orderService.Update(c.Request.Context(), id, req, middleware.ExpectedVersion(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, po.Version)
	h.Success(c, po)
}

// Respond handles PATCH /purchase-orders/:id/respond
func (h *PurchaseOrderHandler) Respond(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req procurement.RespondRequest
	if !h.BindJSON(c, &req) {
		return
	}
	owner, err := ownerScope(c, h.owners)
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.orderService.Respond(c.Request.Context(), id, req, middleware.ExpectedVersion(c), owner)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, po.Version)
	h.Success(c, po)
}

// Ship handles PATCH /purchase-orders/:id/ship
func (h *PurchaseOrderHandler) Ship(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req procurement.ShipRequest
	if !h.BindJSON(c, &req) {
		return
	}
	owner, err := ownerScope(c, h.owners)
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.orderService.Ship(c.Request.Context(), id, req, middleware.ExpectedVersion(c), owner)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, po.Version)
	h.Success(c, po)
}

// Receive handles PATCH /purchase-orders/:id/receive. The body carries the
// order together with the outcome of every stock adjustment.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.orderService.Receive(c.Request.Context(), id, middleware.ExpectedVersion(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, result.Order.Version)
	h.Success(c, result)
}

// SyncInventory handles POST /purchase-orders/:id/inventory-sync
func (h *PurchaseOrderHandler) SyncInventory(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.orderService.SyncInventory(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, result)
}

// Pending handles GET /purchase-orders/supplier/:id/pending
func (h *PurchaseOrderHandler) Pending(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	owner, err := ownerScope(c, h.owners)
	if err != nil {
		h.Error(c, err)
		return
	}
	if owner != nil && *owner != supplierID {
		h.Error(c, shared.NewNotFoundError("supplier", supplierID))
		return
	}

	orders, err := h.orderService.Pending(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, orders)
}

// Stats handles GET /purchase-orders/stats
func (h *PurchaseOrderHandler) Stats(c *gin.Context) {
	supplierID, ok := h.QueryUUID(c, "supplier_id")
	if !ok {
		return
	}

	stats, err := h.orderService.Stats(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, stats)
}

// Delete handles DELETE /purchase-orders/:id
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
