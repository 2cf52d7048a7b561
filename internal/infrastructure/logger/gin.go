package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the request ID in and out
const RequestIDHeader = "X-Request-ID"

// requestID prefers the ID on the request context and falls back to the
// gin key set by the request ID middleware
func requestID(c *gin.Context) string {
	if id := GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetString("request_id")
}

// GinMiddleware puts log on the request context for L and writes one access
// line per request once the handlers are done. Server errors log at error
// level and client errors at warn.
func GinMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := WithRequestID(c.Request.Context(), requestID(c))
		c.Request = c.Request.WithContext(WithContext(ctx, log))

		c.Next()

		// the context now also carries the span and the authenticated actor
		access := L(c.Request.Context())
		status := c.Writer.Status()
		fields := append(make([]zap.Field, 0, 10),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("body_size", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			access.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			access.Warn("HTTP Request", fields...)
		default:
			access.Info("HTTP Request", fields...)
		}
	}
}

// Recovery turns a handler panic into a logged 500 with the standard error
// body
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			id := requestID(c)
			log.Error("Panic recovered",
				zap.String("request_id", id),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":       "INTERNAL_ERROR",
				"message":    "internal server error",
				"request_id": id,
			})
		}()
		c.Next()
	}
}
