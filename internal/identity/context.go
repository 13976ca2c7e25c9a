package identity

import "context"

type ctxKey string

const actorKey ctxKey = "handyhub.actor_id"

// WithActorID stores the authenticated actor id in context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// ActorIDFromContext extracts the authenticated actor id if present.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return "", false
	}
	actorID, ok := val.(string)
	return actorID, ok && actorID != ""
}
