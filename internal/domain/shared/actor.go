package shared

import "context"

// SystemActor is recorded when no authenticated caller is attached to a context
const SystemActor = "system"

type actorKey struct{}

// WithActor attaches the acting principal (usually the token subject) to ctx
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting principal or SystemActor
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
