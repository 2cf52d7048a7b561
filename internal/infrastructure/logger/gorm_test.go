package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(level gormlogger.LogLevel, opts ...GormOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	const update = `UPDATE "purchase_orders" SET "status"='received',"version"=4 WHERE id = 'x' AND version = 3`

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{name: "failure", level: gormlogger.Warn, err: errors.New("connection reset"), wantLevel: zapcore.ErrorLevel, wantMsg: "SQL failed"},
		{name: "duplicate key is a warning", level: gormlogger.Warn, err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), wantLevel: zapcore.WarnLevel, wantMsg: "SQL constraint violation"},
		{name: "foreign key is a warning", level: gormlogger.Warn, err: gorm.ErrForeignKeyViolated, wantLevel: zapcore.WarnLevel, wantMsg: "SQL constraint violation"},
		{name: "slow statement", level: gormlogger.Warn, elapsed: time.Second, wantLevel: zapcore.WarnLevel, wantMsg: "Slow SQL"},
		{name: "every statement at info", level: gormlogger.Info, wantLevel: zapcore.DebugLevel, wantMsg: "SQL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, recorded := observedGormLogger(tt.level)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), statement(update, 1), tt.err)

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, "sql", entries[0].LoggerName)
			fields := fieldMap(entries[0])
			assert.Equal(t, "UPDATE", fields["statement"])
			assert.Equal(t, int64(1), fields["rows"])
		})
	}
}

func TestGormLogger_Trace_Quiet(t *testing.T) {
	tests := []struct {
		name  string
		level gormlogger.LogLevel
		err   error
	}{
		{name: "record not found", level: gormlogger.Warn, err: gorm.ErrRecordNotFound},
		{name: "fast statement below info", level: gormlogger.Warn},
		{name: "silent", level: gormlogger.Silent, err: errors.New("boom")},
		{name: "constraint at error level", level: gormlogger.Error, err: gorm.ErrDuplicatedKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, recorded := observedGormLogger(tt.level)

			l.Trace(context.Background(), time.Now(), statement("SELECT 1", 0), tt.err)

			assert.Empty(t, recorded.All())
		})
	}
}

func TestGormLogger_Trace_CarriesRequestFields(t *testing.T) {
	l, recorded := observedGormLogger(gormlogger.Info)
	ctx := WithRequestID(context.Background(), "req-42")

	l.Trace(ctx, time.Now(), statement(`SELECT * FROM "suppliers"`, 5), nil)

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "req-42", fieldMap(recorded.All()[0])["request_id"])
}

func TestGormLogger_TruncatesLongStatements(t *testing.T) {
	l, recorded := observedGormLogger(gormlogger.Info, WithMaxSQLLength(16))

	l.Trace(context.Background(), time.Now(), statement("INSERT INTO purchase_order_items "+strings.Repeat("(?),", 100), 100), nil)

	sql := fieldMap(recorded.All()[0])["sql"].(string)
	assert.Equal(t, "INSERT INTO purc...", sql)
}

func TestGormLogger_SlowThresholdDisabled(t *testing.T) {
	l, recorded := observedGormLogger(gormlogger.Warn, WithSlowThreshold(0))

	l.Trace(context.Background(), time.Now().Add(-time.Minute), statement("SELECT 1", 1), nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Messages(t *testing.T) {
	l, recorded := observedGormLogger(gormlogger.Warn)

	l.Info(context.Background(), "ignored %d", 1)
	l.Warn(context.Background(), "pool at %d%%", 90)
	l.LogMode(gormlogger.Silent).Error(context.Background(), "ignored")

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "pool at 90%", recorded.All()[0].Message)
	assert.Equal(t, gormlogger.Warn, l.level, "LogMode returns a copy")
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, ParseGormLevel("DEBUG"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel("info"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel("warn"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel("error"))
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("off"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel(""))
}
