package service

import "context"

type actorKey struct{}

const SystemActor = "system"

// WithActor records who performs the request; it ends up in createdBy/updatedBy.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
