package api

import (
	"net/http"

	"github.com/healthhive/server/internal/api/handlers"
	"github.com/healthhive/server/internal/api/middleware"
	"github.com/healthhive/server/internal/audit"
	"github.com/healthhive/server/internal/auth"
	"github.com/healthhive/server/internal/config"
	"github.com/healthhive/server/internal/domain/places"
	"github.com/healthhive/server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface needs. Store is pinged by
// /readyz; Health may be nil, in which case /health only pings the store.
type Deps struct {
	Config  config.Config
	Logger  zerolog.Logger
	Places  *places.Service
	Tokens  *auth.JWTManager
	Store   handlers.Pinger
	Health  *handlers.HealthChecker
	Build   BuildInfo
	Limiter *middleware.RateLimiter
}

// NewRouter wires routes and the middleware chain. The caller owns
// deps.Limiter and stops it on shutdown; when nil one is created from
// deps.Config and leaks its cleanup goroutine for the process lifetime.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config

	health := deps.Health
	if health == nil {
		health = handlers.NewHealthChecker(deps.Store, nil, cfg.Database.Driver, deps.Build.withDefaults().Version, deps.Build.withDefaults().GitCommit)
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	placesHandler := handlers.NewPlacesHandler(deps.Places, cfg.Environment, cfg.Server.BaseURL)
	placesHandler.Audit = audit.NewLogger(deps.Logger)
	requireUser := middleware.RequireUser(deps.Tokens)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(deps.Store))
	mux.Handle("GET /health", health.Health())
	mux.Handle("GET /version", VersionHandler(deps.Build))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /api/v1/openapi.json", OpenAPIHandler())

	mux.HandleFunc("GET /api/v1/places", placesHandler.List)
	mux.Handle("POST /api/v1/places", requireUser(http.HandlerFunc(placesHandler.Create)))
	mux.HandleFunc("GET /api/v1/places/tags", placesHandler.Tags)
	mux.HandleFunc("GET /api/v1/places/export", placesHandler.Export)
	mux.Handle("GET /api/v1/places/mine", requireUser(http.HandlerFunc(placesHandler.Mine)))
	mux.HandleFunc("GET /api/v1/places/{id}", placesHandler.Get)
	mux.Handle("PUT /api/v1/places/{id}", requireUser(http.HandlerFunc(placesHandler.Update)))
	mux.Handle("DELETE /api/v1/places/{id}", requireUser(http.HandlerFunc(placesHandler.Delete)))

	// Outermost first. Everything below Tracing hands the same *http.Request
	// to the mux so route patterns reach spans, logs and metrics.
	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestSize(cfg.Server.MaxBodyBytes)(handler)
	handler = limiter.Middleware(handler)
	handler = middleware.RequestLogging(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	handler = middleware.CORS(cfg.CORS)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == config.EnvProduction)(handler)
	return handler
}
