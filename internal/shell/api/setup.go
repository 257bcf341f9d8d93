package api

import (
	"log/slog"
	"net/http"

	"github.com/artpar/catalog/internal/core/domain"
	"github.com/artpar/catalog/internal/core/validation"
	"github.com/artpar/catalog/internal/shell/api/middleware"
	"github.com/artpar/catalog/internal/shell/api/openapi"
	"github.com/artpar/catalog/internal/shell/locks"
	"github.com/artpar/catalog/internal/shell/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// API Setup
// =============================================================================

// APIConfig holds configuration for the API setup.
type APIConfig struct {
	Store   store.Store
	Locker  locks.Locker // nil = in-process locks
	Metrics *Metrics     // nil = fresh registry
	Logger  *slog.Logger
	Version string

	Auth middleware.AuthConfig
}

// SetupAPI creates the complete API router.
// Returns an http.Handler that can be used as the server's main handler.
func SetupAPI(cfg APIConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}

	h := NewHandler(cfg.Store, cfg.Locker, cfg.Metrics, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	r.Get("/openapi.json", newOpenAPIGenerator(cfg.Version).Handler())

	authMW := middleware.NewAuthMiddleware(cfg.Auth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW.Handler)
		h.Routes(r)
	})

	return r
}

func newOpenAPIGenerator(version string) *openapi.Generator {
	gen := openapi.NewGenerator(
		openapi.WithTitle("Catalog API"),
		openapi.WithVersion(version),
		openapi.WithDescription("Artist records of the music catalog"),
	)

	statuses := make([]string, 0, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		statuses = append(statuses, string(s))
	}
	availabilities := make([]string, 0, len(domain.Availabilities()))
	for _, a := range domain.Availabilities() {
		availabilities = append(availabilities, string(a))
	}

	gen.RegisterResource(openapi.ResourceInfo{
		Name:                "artists",
		Model:               domain.Artist{},
		RequestContentTypes: validation.AllowedContentTypes,
		Required:            []string{"name", "status", "availability"},
		Enums: map[string][]string{
			"status":       statuses,
			"availability": availabilities,
		},
		ReadOnly:       []string{"id", "safeName"},
		SupportsFind:   true,
		SupportsCreate: true,
		SupportsUpdate: true,
	})
	return gen
}
