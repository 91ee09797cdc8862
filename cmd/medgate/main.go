package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"medgate/internal/audit"
	"medgate/internal/auth"
	authmiddleware "medgate/internal/auth/middleware"
	authservices "medgate/internal/auth/services"
	"medgate/internal/registry"
	"medgate/internal/roles"
	"medgate/internal/templates"
	"medgate/internal/users"
	"medgate/pkg/app"
	"medgate/pkg/authz"
	"medgate/pkg/config"
	"medgate/pkg/handlers"
	"medgate/pkg/module"
	"medgate/pkg/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "go.uber.org/automaxprocs"
)

// initializer is implemented by modules that create indexes or seed data at
// startup.
type initializer interface {
	module.Module
	Initialize(ctx context.Context) error
}

// customLoggerMiddleware logs requests but excludes health check endpoints
func customLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}
		middleware.Logger(next).ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers for the admin frontend
func corsMiddleware(next http.Handler) http.Handler {
	allowed := config.GetEnv("CORS_ALLOWED_ORIGIN", "")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed != "" && (origin == allowed || strings.HasSuffix(origin, "."+strings.TrimPrefix(allowed, "https://"))) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	displayBanner()

	versionInfo := version.Get()
	log.Printf("Version: %s | Build: %s", version.GetVersionString(), versionInfo.BuildDate)
	log.Printf("CPUs: %d | GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	ctx := context.Background()

	appCtx, err := app.InitializeApp("medgate")
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer appCtx.Shutdown(ctx)

	r := chi.NewRouter()

	r.Use(customLoggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(handlers.TracingMiddleware("medgate"))
	r.Use(corsMiddleware)
	r.Use(authmiddleware.RequestMetadata)

	r.NotFound(handlers.NotFoundResponse)
	r.Get("/health", healthHandler)

	cache := authz.NewPermissionCache(appCtx.Redis, config.GetDurationEnv("PERMISSION_CACHE_TTL", 15*time.Minute))
	jwtService := authservices.NewJWTService()
	authMw := authmiddleware.New(jwtService, nil)

	// Module wiring. The principal loader is attached to the middleware last
	// because the users service that implements it depends on the modules
	// constructed before it.
	auditModule := audit.New(appCtx.MongoDB, appCtx.Redis, authMw)
	registryModule := registry.New(appCtx.MongoDB, appCtx.Redis, authMw)
	rolesModule := roles.New(appCtx.MongoDB, appCtx.Redis, registryModule.Service(), auditModule.Service(), cache, authMw)
	usersModule := users.New(appCtx.MongoDB, appCtx.Redis, rolesModule.RoleService(), registryModule.Service(), auditModule.Service(), cache, authMw)
	templatesModule := templates.New(appCtx.MongoDB, appCtx.Redis, rolesModule.RoleService(), usersModule.Service(), auditModule.Service(), authMw)
	authModule := auth.New(appCtx.MongoDB, appCtx.Redis, jwtService, authMw, usersModule.Service(), usersModule.Service())
	authMw.SetPrincipalLoader(usersModule.Service())

	modules := []initializer{auditModule, registryModule, rolesModule, usersModule, templatesModule, authModule}

	initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
	defer cancelInit()
	for _, mod := range modules {
		if err := mod.Initialize(initCtx); err != nil {
			log.Fatalf("Failed to initialize %s module: %v", mod.Name(), err)
		}
	}

	humaConfig := huma.DefaultConfig("Medgate Authorization API", version.GetVersionString())
	humaConfig.Info.Description = "Access control decision engine and compliance audit backbone for the medical platform"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "JWT bearer token issued by the platform identity service",
		},
		"cookieAuth": {
			Type:        "apiKey",
			In:          "cookie",
			Name:        authmiddleware.AuthCookieName,
			Description: "Session cookie carrying the bearer token",
		},
	}

	apiPrefix := config.GetEnv("API_PREFIX", "")
	var api huma.API
	if apiPrefix == "" {
		api = humachi.New(r, humaConfig)
	} else {
		r.Route(apiPrefix, func(prefixRouter chi.Router) {
			api = humachi.New(prefixRouter, humaConfig)
		})
	}

	authModule.RegisterUnifiedRoutes(api)
	registryModule.RegisterUnifiedRoutes(api)
	rolesModule.RegisterUnifiedRoutes(api)
	usersModule.RegisterUnifiedRoutes(api)
	templatesModule.RegisterUnifiedRoutes(api)
	auditModule.RegisterUnifiedRoutes(api)

	// Per-module health endpoints
	for _, mod := range modules {
		mod := mod
		r.Route("/modules/"+mod.Name(), func(moduleRouter chi.Router) {
			mod.Routes(moduleRouter)
		})
	}

	for _, mod := range modules {
		go mod.StartBackgroundTasks(ctx)
	}

	port := app.GetPort("8080")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting medgate API server", slog.String("addr", srv.Addr), slog.String("prefix", apiPrefix))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Received shutdown signal, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	for _, mod := range modules {
		mod.Stop()
	}

	appCtx.Shutdown(shutdownCtx)
	slog.Info("Medgate shutdown completed successfully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	versionInfo := version.Get()
	fmt.Fprintf(w, `{"status":"healthy","service":"medgate","version":%q,"git_commit":%q,"go_version":%q}`,
		versionInfo.Version, versionInfo.GitCommit, versionInfo.GoVersion)
}

func displayBanner() {
	fmt.Print("\033[38;5;39m")
	fmt.Println("  __  __ _____ ____   ____    _  _____ _____ ")
	fmt.Println(" |  \\/  | ____|  _ \\ / ___|  / \\|_   _| ____|")
	fmt.Println(" | |\\/| |  _| | | | | |  _  / _ \\ | | |  _|  ")
	fmt.Println(" | |  | | |___| |_| | |_| |/ ___ \\| | | |___ ")
	fmt.Println(" |_|  |_|_____|____/ \\____/_/   \\_\\_| |_____|")
	fmt.Print("\033[0m\n")
}
