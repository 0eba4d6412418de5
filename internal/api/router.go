package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/sungwon/erasure-bridge/internal/archive"
	"github.com/sungwon/erasure-bridge/internal/auth"
	"github.com/sungwon/erasure-bridge/internal/catalog"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Queries    storage.Querier
	DB         Pinger
	Catalog    catalog.Catalog
	Dispatcher Dispatcher
	Archive    archive.Store
	Tokens     *auth.TokenService
	Logger     zerolog.Logger

	// Limiter may be nil to disable login lockout.
	Limiter *auth.LoginLimiter

	// Invalidator may be nil when the catalog is not cached.
	Invalidator CacheInvalidator

	AdminPasswordHash string

	// CORSOrigins lists browser origins allowed to call the admin API.
	// Empty disables CORS handling.
	CORSOrigins []string
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(d Deps) *chi.Mux {
	arch := d.Archive
	if arch == nil {
		arch = archive.NopStore{}
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(RecoverMiddleware(d.Logger))
	r.Use(MetricsMiddleware)

	// Operational endpoints (no auth required)
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(d.DB))
	r.Handle("/metrics", promhttp.Handler())

	// Deletion webhook (authenticated by its own signature)
	r.Post("/webhook/delete-request", WebhookHandler(d.Catalog, d.Dispatcher, arch))

	r.Route("/api/v1", func(r chi.Router) {
		if len(d.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   d.CORSOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Correlation-ID"},
				ExposedHeaders:   []string{"X-Correlation-ID"},
				AllowCredentials: false,
				MaxAge:           300,
			}))
		}

		r.Post("/auth/login", LoginHandler(d.Tokens, d.AdminPasswordHash, d.Limiter))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(d.Tokens))

			r.Get("/settings", GetSettingsHandler(d.Queries))
			r.Put("/settings", UpdateSettingsHandler(d.Queries, d.Invalidator))

			r.Get("/api-keys", ListAPIKeysHandler(d.Queries))
			r.Post("/api-keys", CreateAPIKeyHandler(d.Queries, d.Invalidator))
			r.Delete("/api-keys/{id}", DeleteAPIKeyHandler(d.Queries, d.Invalidator))

			r.Get("/games", ListGamesHandler(d.Queries))
			r.Post("/games", CreateGameHandler(d.Queries, d.Invalidator))
			r.Get("/games/{id}", GetGameHandler(d.Queries))
			r.Delete("/games/{id}", DeleteGameHandler(d.Queries, d.Invalidator))

			r.Get("/rules", ListRulesHandler(d.Queries))
			r.Post("/rules", CreateRuleHandler(d.Queries, d.Invalidator))
			r.Delete("/rules/{id}", DeleteRuleHandler(d.Queries, d.Invalidator))

			r.Get("/histories", ListHistoriesHandler(d.Queries))
			r.Get("/histories/{id}", GetHistoryHandler(d.Queries))

			r.Get("/error-logs", ListErrorLogsHandler(d.Queries))

			r.Get("/notifications/{id}", GetArchivedNotificationHandler(arch))
		})
	})

	return r
}
