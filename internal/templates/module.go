package templates

import (
	"context"
	"log/slog"

	auditservices "medgate/internal/audit/services"
	"medgate/internal/auth/middleware"
	"medgate/internal/templates/routes"
	"medgate/internal/templates/services"
	"medgate/pkg/database"
	"medgate/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the permission template engine module
type Module struct {
	*module.BaseModule
	repository *services.MongoRepository
	service    *services.Service
	routes     *routes.Module
}

// New creates a new templates module instance. roles and users supply the
// grant-set targets templates apply to.
func New(mongodb *database.MongoDB, redis *database.Redis, roles, users services.GrantTarget, audit *auditservices.Service, auth *middleware.AuthMiddleware) *Module {
	repository := services.NewMongoRepository(mongodb)
	service := services.NewService(repository, roles, users, audit, mongodb)

	return &Module{
		BaseModule: module.NewBaseModule("templates", mongodb, redis),
		repository: repository,
		service:    service,
		routes:     routes.NewModule(service, auth),
	}
}

// Service exposes the template service to other modules.
func (m *Module) Service() *services.Service {
	return m.service
}

// Initialize creates the template indexes.
func (m *Module) Initialize(ctx context.Context) error {
	slog.Info("Initializing Templates module")
	return m.repository.EnsureIndexes(ctx)
}

// RegisterUnifiedRoutes registers the templates API routes.
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	m.routes.RegisterUnifiedRoutes(api)
}

// Routes registers chi-level routes (health only; API routes go through huma).
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}
