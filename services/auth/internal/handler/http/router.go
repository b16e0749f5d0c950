package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BigRedEye/dc-hw/pkg/authclient"
	"github.com/BigRedEye/dc-hw/pkg/health"
	"github.com/BigRedEye/dc-hw/pkg/middleware"
	"github.com/BigRedEye/dc-hw/pkg/role"
	"github.com/BigRedEye/dc-hw/services/auth/internal/service"
)

// NewRouter creates a chi router with all auth service routes registered.
// Admin routes are guarded by the same validate endpoint this service
// exposes: every admin request is checked against live session state.
func NewRouter(
	authService *service.AuthService,
	authz authclient.Authorizer,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("auth"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)

	// Public endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/confirm", authHandler.Confirm)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/validate", authHandler.Validate)
	})

	// Admin endpoints
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(authclient.Require(authz, role.Admin))

		r.Get("/", authHandler.ListUsers)
		r.Put("/{id}/role", authHandler.SetRole)
	})

	return r
}
