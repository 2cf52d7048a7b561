package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowSQL   = 200 * time.Millisecond
	defaultMaxSQLLen = 2048
)

// GormLogger routes GORM output through zap. Statements carry the request,
// trace and actor fields of their context. Missing rows are never logged
// since repositories turn them into NOT_FOUND answers, and constraint
// violations are warnings because they surface as CONFLICT responses.
type GormLogger struct {
	base      *zap.Logger
	level     gormlogger.LogLevel
	slowSQL   time.Duration
	maxSQLLen int
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// GormOption configures a GormLogger
type GormOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is reported
// as slow. Zero disables slow statement reporting.
func WithSlowThreshold(d time.Duration) GormOption {
	return func(l *GormLogger) {
		l.slowSQL = d
	}
}

// WithMaxSQLLength truncates logged statements. Bulk item inserts of large
// orders otherwise produce very long lines.
func WithMaxSQLLength(n int) GormOption {
	return func(l *GormLogger) {
		if n > 0 {
			l.maxSQLLen = n
		}
	}
}

// NewGormLogger creates a GORM logger writing to the "sql" child of base
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	l := &GormLogger{
		base:      base.Named("sql"),
		level:     level,
		slowSQL:   defaultSlowSQL,
		maxSQLLen: defaultMaxSQLLen,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.forContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.forContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.forContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	slow := l.slowSQL > 0 && elapsed > l.slowSQL
	if err == nil && !slow && l.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.String("statement", statementKind(sql)),
		zap.Int64("rows", rows),
		zap.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
		zap.String("sql", l.truncate(sql)),
	}
	log := l.forContext(ctx)

	switch {
	case err != nil && isConstraintViolation(err):
		if l.level >= gormlogger.Warn {
			log.Warn("SQL constraint violation", append(fields, zap.Error(err))...)
		}
	case err != nil:
		if l.level >= gormlogger.Error {
			log.Error("SQL failed", append(fields, zap.Error(err))...)
		}
	case slow:
		if l.level >= gormlogger.Warn {
			log.Warn("Slow SQL", append(fields, zap.Duration("threshold", l.slowSQL))...)
		}
	default:
		log.Debug("SQL", fields...)
	}
}

func (l *GormLogger) forContext(ctx context.Context) *zap.Logger {
	return Enrich(ctx, l.base)
}

func (l *GormLogger) truncate(sql string) string {
	if len(sql) <= l.maxSQLLen {
		return sql
	}
	return sql[:l.maxSQLLen] + "..."
}

func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)
}

// statementKind returns the leading SQL keyword in upper case
func statementKind(sql string) string {
	sql = strings.TrimSpace(sql)
	if i := strings.IndexAny(sql, " \n\t("); i > 0 {
		sql = sql[:i]
	}
	return strings.ToUpper(sql)
}

// ParseGormLevel maps the service log level onto GORM's levels. SQL is
// only traced statement by statement at debug.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return gormlogger.Info
	case "error", "fatal":
		return gormlogger.Error
	case "silent", "off":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}
