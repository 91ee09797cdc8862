package users

import (
	"context"
	"log/slog"

	auditservices "medgate/internal/audit/services"
	"medgate/internal/auth/middleware"
	"medgate/internal/users/routes"
	"medgate/internal/users/services"
	"medgate/pkg/authz"
	"medgate/pkg/database"
	"medgate/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the principal store module
type Module struct {
	*module.BaseModule
	repository *services.MongoRepository
	service    *services.Service
	routes     *routes.Module
}

// New creates a new users module instance.
func New(mongodb *database.MongoDB, redis *database.Redis, roles services.RoleResolver, permissions services.PermissionLookup, audit *auditservices.Service, cache *authz.PermissionCache, auth *middleware.AuthMiddleware) *Module {
	repository := services.NewMongoRepository(mongodb)
	service := services.NewService(repository, roles, permissions, audit, cache, mongodb)

	return &Module{
		BaseModule: module.NewBaseModule("users", mongodb, redis),
		repository: repository,
		service:    service,
		routes:     routes.NewModule(service, auth),
	}
}

// Service exposes the users service to other modules. It implements both
// the principal loader and the template grant target for user targets.
func (m *Module) Service() *services.Service {
	return m.service
}

// Initialize creates the user, assignment and direct grant indexes.
func (m *Module) Initialize(ctx context.Context) error {
	slog.Info("Initializing Users module")
	return m.repository.EnsureIndexes(ctx)
}

// RegisterUnifiedRoutes registers the users API routes.
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	m.routes.RegisterUnifiedRoutes(api)
}

// Routes registers chi-level routes (health only; API routes go through huma).
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}
