package shared

import "context"

type actorContextKey struct{}

// Actor identifies the authenticated staff member performing a request.
// Authentication happens upstream; handlers only consume the resolved id.
type Actor struct {
	ID   int64
	Name string
}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The zero Actor is
// returned for unauthenticated requests.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
