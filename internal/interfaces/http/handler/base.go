package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/auth"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OwnerResolver finds the supplier profile of a supplier user
type OwnerResolver interface {
	ResolveOwn(ctx context.Context, email, subject string) (*partner.Supplier, error)
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response in the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response in the standard envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error renders err in the envelope of the current route
func (h *BaseHandler) Error(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// SetETag exposes the entity version so clients can echo it in If-Match
func (h *BaseHandler) SetETag(c *gin.Context, version int) {
	c.Header("ETag", strconv.Quote(strconv.Itoa(version)))
}

// BindJSON decodes the body into req and renders the failure if any
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.Error(c, err)
		return false
	}
	return true
}

// BindQuery decodes query parameters into req and renders the failure if any
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.Error(c, err)
		return false
	}
	return true
}

// ParseID reads a UUID path parameter
func (h *BaseHandler) ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, shared.NewValidationError("invalid "+name+": must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID reads an optional UUID query parameter
func (h *BaseHandler) QueryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(c, shared.NewValidationError("invalid "+name+": must be a UUID"))
		return nil, false
	}
	return &id, true
}

// ownerScope returns the supplier a caller is confined to. Staff and
// warehouse users are not confined and get nil. A supplier user without a
// profile is answered with 404.
func ownerScope(c *gin.Context, resolver OwnerResolver) (*uuid.UUID, error) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return nil, dto.NewAPIError(http.StatusUnauthorized, dto.CodeUnauthorized, "Authentication required")
	}
	if identity.IsStaff() || identity.HasRole(auth.RoleWarehouse) {
		return nil, nil
	}
	supplier, err := resolver.ResolveOwn(c.Request.Context(), identity.Email, identity.Subject)
	if err != nil {
		return nil, err
	}
	return &supplier.ID, nil
}
