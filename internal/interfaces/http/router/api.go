package router

import (
	"net/http"

	"github.com/erp/supplier-service/internal/infrastructure/auth"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/infrastructure/telemetry"
	"github.com/erp/supplier-service/internal/interfaces/http/dto"
	"github.com/erp/supplier-service/internal/interfaces/http/handler"
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by NewEngine
type Handlers struct {
	System         *handler.SystemHandler
	Suppliers      *handler.SupplierHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	Ratings        *handler.RatingHandler
}

// Config holds what the engine needs besides the handlers. Nil optional
// collaborators switch their middleware off.
type Config struct {
	Logger         *zap.Logger
	Verifier       middleware.TokenVerifier
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	Tracing        middleware.TracingConfig
	MaxBodySize    int64
	TrustedProxies []string

	RateLimiter *middleware.RateLimiter
	Prometheus  *telemetry.PrometheusMetrics
	MetricsPath string
	// Meter exports request metrics over OTLP; nil disables them
	Meter metric.Meter
}

// Role sets allowed per route
var (
	staffRoles    = []string{auth.RoleAdmin, auth.RoleProcurement}
	readerRoles   = []string{auth.RoleAdmin, auth.RoleProcurement, auth.RoleWarehouse}
	supplierRoles = []string{auth.RoleAdmin, auth.RoleProcurement, auth.RoleSupplier}
	anyRole       = []string{auth.RoleAdmin, auth.RoleProcurement, auth.RoleWarehouse, auth.RoleSupplier}
)

// NewEngine builds the gin engine with the global middleware stack, the
// operational endpoints and the /api/v1 routes.
func NewEngine(cfg Config, h Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	// Order matters: the request ID must exist before the access log and
	// tracing read it.
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(cfg.Logger),
		logger.GinMiddleware(cfg.Logger),
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.Tracing(cfg.Tracing),
		middleware.Prometheus(cfg.Prometheus),
		middleware.HTTPMetrics(cfg.Meter),
	)

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if cfg.Prometheus != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(cfg.Prometheus.Handler()))
	}

	engine.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, dto.NewAPIError(http.StatusNotFound, "NOT_FOUND", "Route not found"))
	})

	// Authentication is attached per group so that the rating routes can
	// select their envelope before any error is rendered.
	authenticated := []gin.HandlerFunc{middleware.JWTAuth(cfg.Verifier), middleware.SpanAttributes()}
	if cfg.RateLimiter != nil {
		authenticated = append(authenticated, middleware.RateLimit(cfg.RateLimiter))
	}

	Mount(engine, "v1",
		supplierRoutes(h.Suppliers).With(authenticated...),
		ratingRoutes(h.Ratings).With(authenticated...),
		purchaseOrderRoutes(h.PurchaseOrders).With(authenticated...),
	)

	return engine, nil
}

var supplierOnly = []string{auth.RoleSupplier}

func supplierRoutes(h *handler.SupplierHandler) Resource {
	return Resource{Prefix: "/suppliers", Routes: []Route{
		route(http.MethodPost, "", staffRoles, h.Create),
		route(http.MethodGet, "", readerRoles, h.List),
		route(http.MethodGet, "/me", supplierOnly, h.GetOwn),
		route(http.MethodPatch, "/me", supplierOnly, middleware.IfMatch(), h.UpdateOwn),
		route(http.MethodGet, "/:id", readerRoles, h.GetByID),
		route(http.MethodPatch, "/:id", staffRoles, middleware.IfMatch(), h.Update),
		route(http.MethodDelete, "/:id", staffRoles, h.Delete),
		route(http.MethodGet, "/:id/performance", readerRoles, h.Performance),
		route(http.MethodGet, "/:id/audit", staffRoles, h.Audit),
	}}
}

// ratingRoutes share the /suppliers prefix but answer in the legacy envelope
func ratingRoutes(h *handler.RatingHandler) Resource {
	return Resource{
		Prefix:     "/suppliers",
		Middleware: []gin.HandlerFunc{middleware.LegacyEnvelope()},
		Routes: []Route{
			route(http.MethodPost, "/:id/ratings", readerRoles, h.Create),
			route(http.MethodGet, "/:id/ratings", readerRoles, h.List),
			route(http.MethodGet, "/:id/rating-stats", readerRoles, h.Stats),
			route(http.MethodPut, "/ratings/:rating_id", staffRoles, h.Update),
			route(http.MethodDelete, "/ratings/:rating_id", staffRoles, h.Delete),
		},
	}
}

func purchaseOrderRoutes(h *handler.PurchaseOrderHandler) Resource {
	return Resource{Prefix: "/purchase-orders", Routes: []Route{
		route(http.MethodPost, "", staffRoles, h.Create),
		route(http.MethodGet, "", anyRole, h.List),
		route(http.MethodGet, "/stats", readerRoles, h.Stats),
		route(http.MethodGet, "/supplier/:id/pending", supplierRoles, h.Pending),
		route(http.MethodGet, "/:id", anyRole, h.GetByID),
		route(http.MethodPatch, "/:id", staffRoles, middleware.IfMatch(), h.Update),
		route(http.MethodDelete, "/:id", staffRoles, h.Delete),
		route(http.MethodPatch, "/:id/respond", supplierRoles, middleware.IfMatch(), h.Respond),
		route(http.MethodPatch, "/:id/ship", supplierRoles, middleware.IfMatch(), h.Ship),
		route(http.MethodPatch, "/:id/receive", readerRoles, middleware.IfMatch(), h.Receive),
		route(http.MethodPost, "/:id/inventory-sync", readerRoles, h.SyncInventory),
	}}
}
