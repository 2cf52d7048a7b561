package logger

import (
	"context"
	"testing"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	log := zap.NewExample()
	ctx := WithContext(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(WithContext(context.Background(), nil)))
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestL_EnrichesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-42")
	ctx = shared.WithActor(ctx, "buyer@example.com")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()

	L(ctx).Info("order submitted", zap.String("po_number", "PO-1"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := fieldMap(entries[0])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "buyer@example.com", fields["actor"])
	assert.Equal(t, "PO-1", fields["po_number"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}

func TestL_OmitsEmptyFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	L(ctx).Warn("no context")

	fields := fieldMap(recorded.All()[0])
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "actor")
	assert.NotContains(t, fields, "trace_id")
}

func TestL_WithAndLevels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	cl := L(ctx).With(zap.String("component", "inventory"))
	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")

	entries := recorded.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, "inventory", fieldMap(e)["component"])
	}
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestL_NoLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
		Enrich(WithRequestID(context.Background(), "r"), FromContext(context.Background())).Error("dropped")
	})
}

func TestEnrich_WithoutContextFieldsReturnsSameLogger(t *testing.T) {
	log := zap.NewExample()
	assert.Same(t, log, Enrich(context.Background(), log))
}
