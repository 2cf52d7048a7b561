package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/infrastructure/auth"
	"github.com/erp/supplier-service/internal/infrastructure/cache"
	"github.com/erp/supplier-service/internal/infrastructure/config"
	"github.com/erp/supplier-service/internal/infrastructure/event"
	"github.com/erp/supplier-service/internal/infrastructure/inventory"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/infrastructure/migration"
	"github.com/erp/supplier-service/internal/infrastructure/persistence"
	"github.com/erp/supplier-service/internal/infrastructure/telemetry"
	"github.com/erp/supplier-service/internal/interfaces/http/handler"
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/erp/supplier-service/internal/interfaces/http/router"
	"github.com/erp/supplier-service/migrations"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := &logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Version: version,
		Env:     cfg.App.Env,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// The bridge to the collector needs the log provider, which in turn logs
	// its own setup, so the logger is rebuilt once telemetry is up.
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		ServiceVersion:  version,
		Endpoint:        cfg.Telemetry.CollectorEndpoint,
		Insecure:        cfg.Telemetry.Insecure,
		Traces:          cfg.Telemetry.Enabled,
		SamplingRatio:   cfg.Telemetry.SamplingRatio,
		Metrics:         cfg.Telemetry.MetricsEnabled,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
		Logs:            cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	if core := providers.LogCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)); core != nil {
		if log, err = logger.New(logCfg, core); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("Starting supplier service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := migrate(sqlDB, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  providers.Meter(),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	// Repositories
	scope := persistence.NewGormTransactionScope(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	ratingRepo := persistence.NewGormRatingRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	// Inventory notifier: HTTP client behind the idempotency ledger
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	inventoryClient := inventory.NewClient(cfg.Inventory, inventory.WithMetrics(businessMetrics))
	notifier := inventory.NewIdempotentNotifier(inventoryClient, idempotencyStore, cfg.Redis.KeyTTL, businessMetrics)

	// Application services
	supplierService := procurement.NewSupplierService(scope, supplierRepo, auditRepo)
	orderService := procurement.NewPurchaseOrderService(scope, orderRepo, supplierRepo, notifier,
		procurement.WithInventoryConcurrency(cfg.Inventory.Concurrency),
		procurement.WithInventoryCallTimeout(cfg.Inventory.Timeout),
	)
	ratingService := procurement.NewRatingService(scope, ratingRepo, supplierRepo)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewMetricsHandler(businessMetrics))
	eventBus.Subscribe(event.LoggingHandler{})
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	supplierService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	ratingService.SetEventPublisher(eventBus)

	businessMetrics.StartPeriodicCollection(ctx, telemetry.OrderStatusCounterFunc(func(ctx context.Context) (map[string]int64, error) {
		stats, err := orderRepo.Stats(ctx, nil)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(stats.ByStatus))
		for status, n := range stats.ByStatus {
			counts[status.String()] = n
		}
		return counts, nil
	}), time.Minute)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	var prom *telemetry.PrometheusMetrics
	if cfg.Metrics.Enabled {
		if prom, err = telemetry.NewPrometheusMetrics(cfg.Metrics.Namespace, sqlDB); err != nil {
			log.Fatal("Failed to initialize prometheus metrics", zap.Error(err))
		}
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go rateLimiter.Run(ctx)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	var httpMeter metric.Meter
	if providers.MetricsEnabled() {
		httpMeter = providers.Meter()
	}

	engine, err := router.NewEngine(router.Config{
		Logger:   log,
		Verifier: auth.NewJWTService(cfg.JWT),
		CORS:     corsConfig,
		Security: middleware.SecurityConfig{
			HSTSEnabled: cfg.App.IsProduction(),
			HSTSMaxAge:  int((365 * 24 * time.Hour).Seconds()),
		},
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.TracesEnabled(),
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		RateLimiter:    rateLimiter,
		Prometheus:     prom,
		MetricsPath:    cfg.Metrics.Path,
		Meter:          httpMeter,
	}, router.Handlers{
		System:         handler.NewSystemHandler(cfg.App.Name, version, db),
		Suppliers:      handler.NewSupplierHandler(supplierService),
		PurchaseOrders: handler.NewPurchaseOrderHandler(orderService, supplierService),
		Ratings:        handler.NewRatingHandler(ratingService),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Stop producers before the things they write to.
	businessMetrics.Stop()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	closeAll(log,
		namedCloser{"idempotency store", idempotencyStore.Close},
		namedCloser{"database", db.Close},
		namedCloser{"telemetry", func() error { return providers.Shutdown(context.WithoutCancel(shutdownCtx)) }},
	)

	log.Info("Server exited gracefully")
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	opts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.ParseGormLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		)),
	}
	if cfg.Telemetry.DBTraceEnabled {
		opts = append(opts, persistence.WithPlugins(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)))
	}
	return persistence.NewDatabase(ctx, &cfg.Database, opts...)
}

// migrate applies the embedded migrations. The migrator is left open:
// closing it would close the shared pool as well.
func migrate(sqlDB *sql.DB, log *zap.Logger) error {
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

type namedCloser struct {
	name  string
	close func() error
}

func closeAll(log *zap.Logger, closers ...namedCloser) {
	for _, c := range closers {
		if err := c.close(); err != nil {
			log.Warn("Shutdown step failed", zap.String("component", c.name), zap.Error(err))
		}
	}
}
