// Package app wires repositories, services, and the HTTP router.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"geolake/internal/api"
	"geolake/internal/config"
	"geolake/internal/db/repository"
	"geolake/internal/domain"
	"geolake/internal/middleware"
	"geolake/internal/query"
	"geolake/internal/service"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB // metastore write pool (single connection, serialized)
	ReadDB  *sql.DB // metastore read pool
	Data    domain.DataPlane
	Logger  *slog.Logger
}

// App holds the fully wired application.
type App struct {
	Databases    *service.DatabaseService
	Collections  *service.CollectionService
	Access       *service.AccessService
	Provisioning *service.ProvisioningService
	Usage        *service.UsageService
	Queries      *query.Engine
	Handler      *api.Handler
}

// New wires all repositories and services from the provided deps.
func New(deps Deps) *App {
	logger := deps.Logger

	// Repositories that mutate run on the write pool; the SRID lookups the
	// query engine performs are read-only and use the read pool.
	databaseRepo := repository.NewDatabaseRepo(deps.WriteDB)
	principalRepo := repository.NewPrincipalRepo(deps.WriteDB)
	grantRepo := repository.NewGrantRepo(deps.WriteDB)
	crsRepo := repository.NewCRSRepo(deps.WriteDB)
	sizeLogRepo := repository.NewSizeLogRepo(deps.WriteDB)
	crsReadRepo := repository.NewCRSRepo(deps.ReadDB)

	databases := service.NewDatabaseService(databaseRepo)
	collections := service.NewCollectionService(databaseRepo, grantRepo, crsRepo, deps.Data, logger.With("component", "collections"))
	access := service.NewAccessService(grantRepo, databaseRepo, deps.Data)
	provisioning := service.NewProvisioningService(principalRepo, databaseRepo, logger.With("component", "provisioning"))
	usage := service.NewUsageService(databaseRepo, sizeLogRepo, deps.Data, logger.With("component", "usage"))
	queries := query.NewEngine(deps.Data, crsReadRepo, access)

	handler := api.NewHandler(databases, collections, access, provisioning, usage, queries, logger.With("component", "api"))

	return &App{
		Databases:    databases,
		Collections:  collections,
		Access:       access,
		Provisioning: provisioning,
		Usage:        usage,
		Queries:      queries,
		Handler:      handler,
	}
}

// Router builds the chi router with the full middleware chain.
func (a *App) Router(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(middleware.NewAuthenticator(cfg.JWTSecret).Middleware)

	a.Handler.Routes(r)
	return r
}
