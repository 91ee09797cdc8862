package roles

import (
	"context"
	"log/slog"

	auditservices "medgate/internal/audit/services"
	"medgate/internal/auth/middleware"
	registryservices "medgate/internal/registry/services"
	"medgate/internal/roles/routes"
	"medgate/internal/roles/services"
	"medgate/pkg/authz"
	"medgate/pkg/database"
	"medgate/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the role graph module, also hosting the matrix service
type Module struct {
	*module.BaseModule
	repository *services.MongoRepository
	roles      *services.RoleService
	matrix     *services.MatrixService
	routes     *routes.Module
}

// New creates a new roles module instance
func New(mongodb *database.MongoDB, redis *database.Redis, registry *registryservices.Service, audit *auditservices.Service, cache *authz.PermissionCache, auth *middleware.AuthMiddleware) *Module {
	repository := services.NewMongoRepository(mongodb)
	roleService := services.NewRoleService(repository, registry, audit, cache, mongodb)
	matrixService := services.NewMatrixService(repository, registry, roleService)

	return &Module{
		BaseModule: module.NewBaseModule("roles", mongodb, redis),
		repository: repository,
		roles:      roleService,
		matrix:     matrixService,
		routes:     routes.NewModule(roleService, matrixService, auth),
	}
}

// RoleService exposes the role service to other modules.
func (m *Module) RoleService() *services.RoleService {
	return m.roles
}

// Initialize creates indexes and seeds the system roles.
func (m *Module) Initialize(ctx context.Context) error {
	slog.Info("Initializing Roles module")

	if err := m.repository.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.roles.SeedSystemRoles(ctx)
}

// RegisterUnifiedRoutes registers the roles API routes.
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	m.routes.RegisterUnifiedRoutes(api)
}

// Routes registers chi-level routes (health only; API routes go through huma).
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}
