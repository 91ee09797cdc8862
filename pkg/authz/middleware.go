package authz

import "context"

type contextKey string

const (
	userIDContextKey    contextKey = "authz:user_id"
	principalContextKey contextKey = "authz:principal"
	actorContextKey     contextKey = "authz:actor"
)

// WithUserID stores the authenticated user ID in the context. Set by the
// auth middleware once the bearer token is verified.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok && id != ""
}

// WithPrincipal stores a loaded principal in the context.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext returns the loaded principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(*Principal)
	return principal, ok && principal != nil
}

// WithActor stores the request-scoped actor context. The HTTP layer fills
// the request metadata fields before authentication; identity fields are
// merged in once the principal is resolved.
func WithActor(ctx context.Context, actor ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the stored actor context, or a zero value.
func ActorFromContext(ctx context.Context) ActorContext {
	if actor, ok := ctx.Value(actorContextKey).(ActorContext); ok {
		return actor
	}
	return ActorContext{}
}

// PrincipalLoader resolves a user ID into a principal with direct
// permissions and role sets loaded. Implemented by the users module.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (*Principal, error)
}
