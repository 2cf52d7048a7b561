package handler

import (
	"net/http"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SupplierHandler handles supplier-related API endpoints
type SupplierHandler struct {
	BaseHandler
	supplierService *procurement.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *procurement.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// Create handles POST /suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	var req procurement.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, supplier.Version)
	h.Created(c, supplier)
}

// List handles GET /suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	var filter procurement.SupplierListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.supplierService.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(*page))
}

// GetByID handles GET /suppliers/:id
func (h *SupplierHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	supplier, err := h.supplierService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, supplier.Version)
	h.Success(c, supplier)
}

// Performance handles GET /suppliers/:id/performance
func (h *SupplierHandler) Performance(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	perf, err := h.supplierService.Performance(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, perf)
}

// Update handles PATCH /suppliers/:id. If-Match carries the expected version.
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req procurement.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), id, req, middleware.ExpectedVersion(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, supplier.Version)
	h.Success(c, supplier)
}

// Delete handles DELETE /suppliers/:id
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.supplierService.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Audit handles GET /suppliers/:id/audit
func (h *SupplierHandler) Audit(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.supplierService.AuditTrail(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, gin.H{"supplier_id": id, "items": entries})
}

// GetOwn handles GET /suppliers/me for supplier users
func (h *SupplierHandler) GetOwn(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	supplier, err := h.supplierService.GetOwn(c.Request.Context(), identity.Email, identity.Subject)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, supplier.Version)
	h.Success(c, supplier)
}

// UpdateOwn handles PATCH /suppliers/me
func (h *SupplierHandler) UpdateOwn(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	var req procurement.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier, err := h.supplierService.UpdateOwn(c.Request.Context(), identity.Email, identity.Subject, req, middleware.ExpectedVersion(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SetETag(c, supplier.Version)
	h.Success(c, supplier)
}
