package auth

import (
	"context"
	"log/slog"

	"medgate/internal/auth/middleware"
	"medgate/internal/auth/routes"
	"medgate/internal/auth/services"
	"medgate/pkg/authz"
	"medgate/pkg/config"
	"medgate/pkg/database"
	"medgate/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the inbound principal resolution module. Tokens are verified,
// never minted, except for the dev-mode helper route.
type Module struct {
	*module.BaseModule
	jwt    *services.JWTService
	auth   *middleware.AuthMiddleware
	routes *routes.Module
}

// New creates a new auth module instance.
func New(mongodb *database.MongoDB, redis *database.Redis, jwt *services.JWTService, auth *middleware.AuthMiddleware, principals authz.PrincipalLoader, profiles routes.ProfileSyncer) *Module {
	devMode := config.GetBoolEnv("AUTH_DEV_MODE", false)
	if devMode {
		slog.Warn("[Auth] Dev mode enabled, token minting route is exposed")
	}
	return &Module{
		BaseModule: module.NewBaseModule("auth", mongodb, redis),
		jwt:        jwt,
		auth:       auth,
		routes:     routes.NewModule(jwt, auth, principals, profiles, devMode),
	}
}

// Middleware exposes the auth middleware shared by every route module.
func (m *Module) Middleware() *middleware.AuthMiddleware {
	return m.auth
}

// Initialize has nothing to set up; identity storage belongs to the users
// module.
func (m *Module) Initialize(ctx context.Context) error {
	slog.Info("Initializing Auth module")
	return nil
}

// RegisterUnifiedRoutes registers the auth API routes.
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	m.routes.RegisterUnifiedRoutes(api)
}

// Routes registers chi-level routes (health only; API routes go through huma).
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}
