package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/auth"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	IdentityKey   = "identity"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier turns a bearer token into an identity
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// JWTAuth validates the bearer token and attaches the caller's identity to
// the gin context and to the request context. The audit actor is the
// caller's email, or its subject when the token carries none.
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, dto.CodeUnauthorized, "Missing authorization header", nil)
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, dto.CodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		identity, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.CodeTokenExpired, "Token has expired", err)
				return
			}
			abortUnauthorized(c, dto.CodeUnauthorized, "Invalid token", err)
			return
		}

		actor := identity.Email
		if actor == "" {
			actor = identity.Subject
		}
		ctx := auth.WithIdentity(c.Request.Context(), identity)
		ctx = shared.WithActor(ctx, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Set(IdentityKey, identity)

		c.Next()
	}
}

// GetIdentity returns the identity set by JWTAuth, or nil
func GetIdentity(c *gin.Context) *auth.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, code, message string, err error) {
	logger.L(c.Request.Context()).Debug("Authentication failed",
		zap.String("reason", message),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	AbortWithError(c, dto.NewAPIError(http.StatusUnauthorized, code, message))
}
