package registry

import (
	"context"
	"log/slog"

	"medgate/internal/auth/middleware"
	"medgate/internal/registry/routes"
	"medgate/internal/registry/services"
	"medgate/pkg/database"
	"medgate/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the permission registry module
type Module struct {
	*module.BaseModule
	repository *services.MongoRepository
	service    *services.Service
	routes     *routes.Module
}

// New creates a new registry module instance
func New(mongodb *database.MongoDB, redis *database.Redis, auth *middleware.AuthMiddleware) *Module {
	repository := services.NewMongoRepository(mongodb)
	service := services.NewService(repository, redis)

	return &Module{
		BaseModule: module.NewBaseModule("registry", mongodb, redis),
		repository: repository,
		service:    service,
		routes:     routes.NewModule(service, auth),
	}
}

// Service exposes the registry service to other modules.
func (m *Module) Service() *services.Service {
	return m.service
}

// Initialize creates indexes and seeds the system permission catalog.
func (m *Module) Initialize(ctx context.Context) error {
	slog.Info("Initializing Registry module")

	if err := m.repository.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.service.SeedSystemPermissions(ctx)
}

// RegisterUnifiedRoutes registers the registry API routes.
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	m.routes.RegisterUnifiedRoutes(api)
}

// Routes registers chi-level routes (health only; API routes go through huma).
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}
