package logger

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/shared"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

var nop = zap.NewNop()

// WithContext attaches log to ctx for L and FromContext
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the attached logger as is, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && log != nil {
		return log
	}
	return nop
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// L returns the request logger of ctx carrying its trace, request and
// actor fields:
//
//	logger.L(ctx).Info("Purchase order shipped", zap.String("po_number", po.Number))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the trace, request and actor fields of ctx to log. Fields
// absent from ctx are left out rather than logged empty.
func Enrich(ctx context.Context, log *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 4)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.Stringer("trace_id", sc.TraceID()),
			zap.Stringer("span_id", sc.SpanID()),
		)
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if actor := shared.ActorFromContext(ctx); actor != shared.SystemActor {
		fields = append(fields, zap.String("actor", actor))
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
