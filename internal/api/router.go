package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/kiranshivaraju/nichescout/internal/api/middleware"
	"github.com/kiranshivaraju/nichescout/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Identity      *mw.Identity
	ChatRateLimit *mw.RateLimit
	CORSOrigins   []string

	HealthHandler           http.HandlerFunc
	AnalyzeHandler          http.HandlerFunc
	ChatHandler             http.HandlerFunc
	ParseHandler            http.HandlerFunc
	ConnectionStatusHandler http.HandlerFunc
	AuthHandler             http.HandlerFunc
	DisconnectHandler       http.HandlerFunc
	ListAnalysesHandler     http.HandlerFunc
	GetAnalysisHandler      http.HandlerFunc

	// MetricsHandler defaults to the Prometheus default registry.
	MetricsHandler http.Handler
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if deps.Identity == nil {
		deps.Identity = mw.NewIdentity(false)
	}
	r.Use(deps.Identity.Identify)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", orNotImplemented(deps.HealthHandler))

		r.Post("/analyze", orNotImplemented(deps.AnalyzeHandler))
		r.Post("/parse-dashboard", orNotImplemented(deps.ParseHandler))

		r.Group(func(r chi.Router) {
			if deps.ChatRateLimit != nil {
				r.Use(deps.ChatRateLimit.Limit)
			}
			r.Post("/chat", orNotImplemented(deps.ChatHandler))
		})

		r.Get("/connection-status", orNotImplemented(deps.ConnectionStatusHandler))
		r.Get("/auth/{toolkit}", orNotImplemented(deps.AuthHandler))
		r.Delete("/disconnect/{toolkit}", orNotImplemented(deps.DisconnectHandler))

		r.Get("/analyses", orNotImplemented(deps.ListAnalysesHandler))
		r.Get("/analyses/{analysisID}", orNotImplemented(deps.GetAnalysisHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
