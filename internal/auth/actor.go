package auth

import (
	"context"

	"parkreserve/internal/entities"
)

// Actor is the already-authenticated caller identity passed into every
// lifecycle operation. The core only does authorization with it (ownership,
// role); authentication happened in the middleware.
type Actor struct {
	UserID string
	Role   entities.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == entities.RoleAdmin
}

type contextKey struct{}

// WithActor attaches the caller identity to the request context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFrom returns the caller identity, if any, from the context.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
