package middleware

import (
	"net/http"

	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRoles lets the request through when the caller holds at least one
// of roles. It must run after JWTAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			AbortWithError(c, dto.NewAPIError(http.StatusUnauthorized, dto.CodeUnauthorized, "Authentication required"))
			return
		}
		if !identity.HasAnyRole(roles...) {
			logger.L(c.Request.Context()).Info("Role check failed",
				zap.String("subject", identity.Subject),
				zap.Strings("required_any", roles),
				zap.Strings("roles", identity.Roles),
			)
			AbortWithError(c, dto.NewAPIError(http.StatusForbidden, dto.CodeForbidden, "Insufficient role for this operation"))
			return
		}
		c.Next()
	}
}
