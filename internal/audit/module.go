package audit

import (
	"context"
	"log/slog"

	"medgate/internal/audit/routes"
	"medgate/internal/audit/services"
	"medgate/internal/auth/middleware"
	"medgate/pkg/config"
	"medgate/pkg/database"
	"medgate/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the compliance audit log module
type Module struct {
	*module.BaseModule
	repository *services.MongoRepository
	service    *services.Service
	sweeper    *services.RetentionSweeper
	routes     *routes.Module
}

// New creates a new audit module instance.
func New(mongodb *database.MongoDB, redis *database.Redis, auth *middleware.AuthMiddleware) *Module {
	repository := services.NewMongoRepository(mongodb)
	service := services.NewService(repository)
	sweeper := services.NewRetentionSweeper(service, config.GetEnv("AUDIT_RETENTION_SCHEDULE", ""))

	return &Module{
		BaseModule: module.NewBaseModule("audit", mongodb, redis),
		repository: repository,
		service:    service,
		sweeper:    sweeper,
		routes:     routes.NewModule(service, auth),
	}
}

// Service exposes the audit recorder and query surface to other modules.
func (m *Module) Service() *services.Service {
	return m.service
}

// Initialize creates the compliance query indexes.
func (m *Module) Initialize(ctx context.Context) error {
	slog.Info("Initializing Audit module")
	return m.repository.EnsureIndexes(ctx)
}

// StartBackgroundTasks runs the retention sweeper until shutdown.
func (m *Module) StartBackgroundTasks(ctx context.Context) {
	slog.Info("[Audit] Starting background tasks")
	m.sweeper.Start(ctx, m.StopChannel())
}

// RegisterUnifiedRoutes registers the audit API routes.
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	m.routes.RegisterUnifiedRoutes(api)
}

// Routes registers chi-level routes (health only; API routes go through huma).
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}
