package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"medgate/internal/auth/models"
	"medgate/pkg/authz"

	"github.com/danielgtaylor/huma/v2"
)

// AuthCookieName is the session cookie carrying the bearer token.
const AuthCookieName = "medgate_auth_token"

// JWTValidator verifies a bearer token and returns the authenticated identity.
type JWTValidator interface {
	ValidateJWT(token string) (*models.AuthenticatedUser, error)
}

// AuthMiddleware authenticates requests and enforces permission checks for
// huma route handlers. Permission evaluation is read-only: denials are
// errors to the HTTP caller but never produce audit entries.
type AuthMiddleware struct {
	jwtValidator JWTValidator
	principals   authz.PrincipalLoader
}

// New creates the auth middleware. The principal loader may be nil at
// construction and wired later via SetPrincipalLoader, since the users
// module that implements it needs this middleware for its own routes.
func New(validator JWTValidator, principals authz.PrincipalLoader) *AuthMiddleware {
	return &AuthMiddleware{
		jwtValidator: validator,
		principals:   principals,
	}
}

// SetPrincipalLoader wires the principal loader once it exists.
func (m *AuthMiddleware) SetPrincipalLoader(principals authz.PrincipalLoader) {
	m.principals = principals
}

// RequestMetadata is chi middleware that captures request-scoped audit
// metadata (ip, user agent, session, request id) before any handler runs.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authz.WithActor(r.Context(), authz.ActorFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth validates the bearer token from the Authorization or Cookie
// header and returns the authenticated user.
func (m *AuthMiddleware) RequireAuth(ctx context.Context, authHeader, cookieHeader string) (*models.AuthenticatedUser, error) {
	token := extractToken(authHeader, cookieHeader)
	if token == "" {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	user, err := m.jwtValidator.ValidateJWT(token)
	if err != nil {
		slog.Warn("Authentication failed", "error", err.Error())
		return nil, huma.Error401Unauthorized("invalid or expired token")
	}
	return user, nil
}

// RequirePermission authenticates the request and checks a single required
// permission. It returns the user, the loaded principal and an ActorContext
// ready for audit snapshotting.
func (m *AuthMiddleware) RequirePermission(ctx context.Context, authHeader, cookieHeader, permission string) (*models.AuthenticatedUser, *authz.Principal, authz.ActorContext, error) {
	return m.require(ctx, authHeader, cookieHeader, func(p *authz.Principal) bool {
		return authz.HasPermission(p, permission)
	})
}

// RequireAnyPermission authenticates and checks that at least one of the
// permissions is held.
func (m *AuthMiddleware) RequireAnyPermission(ctx context.Context, authHeader, cookieHeader string, permissions ...string) (*models.AuthenticatedUser, *authz.Principal, authz.ActorContext, error) {
	return m.require(ctx, authHeader, cookieHeader, func(p *authz.Principal) bool {
		return authz.HasAnyPermission(p, permissions...)
	})
}

// RequireFullAccess authenticates and admits only wildcard/full-access
// principals.
func (m *AuthMiddleware) RequireFullAccess(ctx context.Context, authHeader, cookieHeader string) (*models.AuthenticatedUser, *authz.Principal, authz.ActorContext, error) {
	return m.require(ctx, authHeader, cookieHeader, authz.IsFullAccess)
}

func (m *AuthMiddleware) require(ctx context.Context, authHeader, cookieHeader string, allowed func(*authz.Principal) bool) (*models.AuthenticatedUser, *authz.Principal, authz.ActorContext, error) {
	user, err := m.RequireAuth(ctx, authHeader, cookieHeader)
	if err != nil {
		return nil, nil, authz.ActorContext{}, err
	}

	if m.principals == nil {
		return nil, nil, authz.ActorContext{}, huma.Error500InternalServerError("principal resolution unavailable")
	}
	principal, err := m.principals.LoadPrincipal(ctx, user.UserID)
	if err != nil {
		slog.Error("Failed to load principal", "user_id", user.UserID, "error", err.Error())
		return nil, nil, authz.ActorContext{}, huma.Error500InternalServerError("failed to load principal")
	}

	if !allowed(principal) {
		return nil, nil, authz.ActorContext{}, huma.Error403Forbidden("insufficient permissions")
	}

	actor := authz.ActorFromContext(ctx)
	actor.UserID = user.UserID
	actor.UserName = user.Name
	actor.UserEmail = user.Email
	actor.UserRole = primaryRoleName(principal)

	return user, principal, actor, nil
}

func extractToken(authHeader, cookieHeader string) string {
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	for _, part := range strings.Split(cookieHeader, ";") {
		if name, value, found := strings.Cut(strings.TrimSpace(part), "="); found && name == AuthCookieName {
			return value
		}
	}
	return ""
}

func primaryRoleName(principal *authz.Principal) string {
	if principal == nil || len(principal.Roles) == 0 {
		return ""
	}
	return principal.Roles[0].Name
}
