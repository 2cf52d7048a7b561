package middleware

import (
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys shared by the middleware and the handlers
const (
	RequestIDKey   = "request_id"
	legacyEnvelope = "legacy_envelope"
)

// LegacyEnvelope marks the routes below it as rendering errors in the
// {success, message, error} shape
func LegacyEnvelope() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(legacyEnvelope, true)
		c.Next()
	}
}

// UsesLegacyEnvelope reports whether the current route renders legacy bodies
func UsesLegacyEnvelope(c *gin.Context) bool {
	return c.GetBool(legacyEnvelope)
}

// GetRequestID returns the request ID assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// AbortWithError renders err in the route's envelope and stops the chain
func AbortWithError(c *gin.Context, err error) {
	apiErr := dto.TranslateError(err)
	if apiErr.Status >= 500 {
		logger.L(c.Request.Context()).Error("Request failed",
			zap.String("code", apiErr.Code),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	requestID := GetRequestID(c)
	if UsesLegacyEnvelope(c) {
		c.AbortWithStatusJSON(apiErr.Status, dto.NewLegacyErrorResponse(apiErr, requestID))
		return
	}
	c.AbortWithStatusJSON(apiErr.Status, dto.NewErrorResponse(apiErr, requestID))
}
