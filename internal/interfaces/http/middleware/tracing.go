// Package middleware provides the gin middleware of the supplier service.
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts the server span through otelgin. The span is named after
// the matched route, e.g. "PATCH /api/v1/purchase-orders/:id".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes enriches the active span with the request ID and the
// caller. It runs after JWTAuth so the identity is known.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if requestID := GetRequestID(c); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
			if identity := GetIdentity(c); identity != nil {
				span.SetAttributes(
					attribute.String("enduser.id", identity.Subject),
					attribute.StringSlice("enduser.roles", identity.Roles),
				)
			}
		}
		c.Next()
	}
}
