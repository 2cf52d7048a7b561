package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	defaultDBSystem  = "postgresql"
)

// DBTracingConfig controls the spans emitted for SQL statements
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound values in the statement attribute. Supplier
	// contact details end up in spans when set, so leave it off outside
	// development.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// DBTracingPlugin wraps otelgorm and adds table, row count and slow query
// attributes to each statement span.
type DBTracingPlugin struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = defaultDBSystem
	}
	return &DBTracingPlugin{cfg: cfg, logger: logger}
}

type statementStartKey struct{}

// Register implements persistence.Plugin. Disabled tracing registers
// nothing.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if p.cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.cfg.TracerProvider))
	}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// annotate runs ahead of otelgorm's after callback, which ends the span
	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("supplier:start_create", markStart),
		cb.Query().Before("gorm:query").Register("supplier:start_query", markStart),
		cb.Update().Before("gorm:update").Register("supplier:start_update", markStart),
		cb.Delete().Before("gorm:delete").Register("supplier:start_delete", markStart),
		cb.Row().Before("gorm:row").Register("supplier:start_row", markStart),
		cb.Raw().Before("gorm:raw").Register("supplier:start_raw", markStart),
		cb.Create().After("gorm:create").Before("otel:after_create").Register("supplier:annotate_create", p.annotate),
		cb.Query().After("gorm:query").Before("otel:after_query").Register("supplier:annotate_query", p.annotate),
		cb.Update().After("gorm:update").Before("otel:after_update").Register("supplier:annotate_update", p.annotate),
		cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("supplier:annotate_delete", p.annotate),
		cb.Row().After("gorm:row").Before("otel:after_row").Register("supplier:annotate_row", p.annotate),
		cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("supplier:annotate_raw", p.annotate),
	); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.cfg.DBSystem),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh),
		zap.Bool("log_full_sql", p.cfg.LogFullSQL),
	)
	return nil
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, statementStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil {
		return
	}
	span := trace.SpanFromContext(stmt.Context)
	if !span.IsRecording() {
		return
	}

	if stmt.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", stmt.Table))
	}
	if stmt.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", stmt.RowsAffected))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}

	start, ok := stmt.Context.Value(statementStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.cfg.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
