// Package auth verifies bearer tokens issued by the identity provider.
package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/erp/supplier-service/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles recognised by the service
const (
	RoleAdmin       = "admin"
	RoleProcurement = "procurement"
	RoleWarehouse   = "warehouse"
	RoleSupplier    = "supplier"
)

const defaultRoleClaim = "roles"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing sub in claims")
)

// Identity is the authenticated principal of a request
type Identity struct {
	Subject string
	Email   string
	Roles   []string
}

// HasRole reports whether the identity carries role
func (i *Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// HasAnyRole reports whether the identity carries at least one of roles
func (i *Identity) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, i.HasRole)
}

// IsStaff reports whether the identity may act on any supplier
func (i *Identity) IsStaff() bool {
	return i.HasAnyRole(RoleAdmin, RoleProcurement)
}

// JWTService checks HS256 tokens and turns their claims into an Identity
type JWTService struct {
	secret    []byte
	issuer    string
	roleClaim string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = defaultRoleClaim
	}
	return &JWTService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		roleClaim: roleClaim,
	}
}

// Verify validates signature, expiry and issuer of tokenString and extracts
// the identity. Roles are read from the configured claim, which may hold a
// list or a single space separated string.
func (s *JWTService) Verify(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, ErrMissingSubject
	}
	email, _ := claims["email"].(string)

	return &Identity{
		Subject: sub,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Roles:   rolesFrom(claims[s.roleClaim]),
	}, nil
}

func rolesFrom(raw any) []string {
	var roles []string
	switch v := raw.(type) {
	case string:
		roles = strings.Fields(v)
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
	}
	for i := range roles {
		roles[i] = strings.ToLower(roles[i])
	}
	return roles
}

// Issue signs a token for identity valid for ttl. The service never hands
// out tokens to callers; Issue exists for tooling and tests.
func (s *JWTService) Issue(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":       uuid.NewString(),
		"sub":       identity.Subject,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
		s.roleClaim: identity.Roles,
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}
	if identity.Email != "" {
		claims["email"] = identity.Email
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

type identityKey struct{}

// WithIdentity stores identity in ctx
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok && identity != nil
}
