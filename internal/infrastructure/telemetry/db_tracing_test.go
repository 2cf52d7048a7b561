package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestNewDBTracingPlugin_FillsDefaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	assert.Equal(t, 200*time.Millisecond, p.cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.cfg.DBSystem)
}

func TestDBTracingPlugin_DisabledRegistersNothing(t *testing.T) {
	db := openTracedDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())

	require.NoError(t, p.Register(db))
	assert.Nil(t, db.Callback().Query().Get("supplier:annotate_query"))
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	db := openTracedDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
		DBSystem:        "sqlite",
		TracerProvider:  tp,
	}, zap.NewNop())
	require.NoError(t, p.Register(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")

	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "acme"}).Error)
	parent.End()

	var annotated map[attribute.Key]attribute.Value
	for _, s := range recorder.Ended() {
		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range s.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if attrs["db.slow_query"].AsBool() {
			annotated = attrs
		}
	}
	require.NotNil(t, annotated, "expected a statement span flagged as slow")
	assert.Equal(t, "traced_rows", annotated["db.sql.table"].AsString())
	assert.Equal(t, int64(1), annotated["db.rows_affected"].AsInt64())
}
