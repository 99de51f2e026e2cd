package api

import (
	"context"

	"github.com/okian/fieldscout/internal/domain/access"
)

type ctxKey int

const actorKey ctxKey = 0

// ActorFrom returns the caller attached by the authentication middleware.
// Requests without a credential carry the anonymous actor.
func ActorFrom(ctx context.Context) access.Actor {
	a, _ := ctx.Value(actorKey).(access.Actor)
	return a
}

// WithActor attaches a caller to ctx.
func WithActor(ctx context.Context, a access.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

