package handler

import (
	"net/http"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RatingHandler serves the rating routes. Their clients predate the standard
// envelope, so successes are rendered as {success, message, count, data}.
type RatingHandler struct {
	BaseHandler
	ratingService *procurement.RatingService
}

// NewRatingHandler creates a new RatingHandler
func NewRatingHandler(ratingService *procurement.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

type ratingListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Create handles POST /suppliers/:id/ratings
func (h *RatingHandler) Create(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req procurement.CreateRatingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rating, err := h.ratingService.Create(c.Request.Context(), supplierID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.LegacyResponse{
		Success: true,
		Message: "Supplier rating submitted successfully",
		Data:    rating,
	})
}

// List handles GET /suppliers/:id/ratings
func (h *RatingHandler) List(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q ratingListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	ratings, err := h.ratingService.List(c.Request.Context(), supplierID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	count := len(ratings)
	c.JSON(http.StatusOK, dto.LegacyResponse{Success: true, Count: &count, Data: ratings})
}

// Stats handles GET /suppliers/:id/rating-stats
func (h *RatingHandler) Stats(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.ratingService.Stats(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LegacyResponse{Success: true, Data: stats})
}

// Update handles PUT /suppliers/ratings/:rating_id
func (h *RatingHandler) Update(c *gin.Context) {
	ratingID, ok := h.ParseID(c, "rating_id")
	if !ok {
		return
	}
	var req procurement.UpdateRatingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rating, err := h.ratingService.Update(c.Request.Context(), ratingID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LegacyResponse{
		Success: true,
		Message: "Supplier rating updated successfully",
		Data:    rating,
	})
}

// Delete handles DELETE /suppliers/ratings/:rating_id
func (h *RatingHandler) Delete(c *gin.Context) {
	ratingID, ok := h.ParseID(c, "rating_id")
	if !ok {
		return
	}

	if err := h.ratingService.Delete(c.Request.Context(), ratingID); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LegacyResponse{Success: true, Message: "Supplier rating deleted successfully"})
}
