package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BigRedEye/dc-hw/pkg/health"
	pkgmiddleware "github.com/BigRedEye/dc-hw/pkg/middleware"
	"github.com/BigRedEye/dc-hw/services/gateway/internal/config"
	gwmiddleware "github.com/BigRedEye/dc-hw/services/gateway/internal/middleware"
	"github.com/BigRedEye/dc-hw/services/gateway/internal/proxy"
)

// NewRouter creates a chi router with global middleware, health endpoints,
// and proxy routes to the backend services.
//
// The gateway never inspects tokens. Authorization lives in the
// services themselves, so a revoked session is rejected on its next
// request with nothing cached at the edge.
func NewRouter(cfg *config.Config, sp *proxy.ServiceProxy, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack (applied in order).
	r.Use(pkgmiddleware.CORS(pkgmiddleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(gwmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics("gateway"))
	r.Use(pkgmiddleware.Tracing("gateway"))
	r.Use(pkgmiddleware.RequestLogger(logger))

	// Health check endpoints (no rate limit exemption needed; they are cheap).
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	// Metrics endpoint with IP allowlist protection.
	metricsHandler := pkgmiddleware.IPAllowlist(cfg.MetricsAllowedCIDRs, logger)(promhttp.Handler())
	r.Get("/metrics", metricsHandler.ServeHTTP)

	// Pprof debug endpoints with IP allowlist.
	pkgmiddleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	r.Route("/api", func(r chi.Router) {
		// Auth service owns registration, sessions, and user administration.
		r.Handle("/v1/auth", sp.Handler("auth"))
		r.Handle("/v1/auth/*", sp.Handler("auth"))
		r.Handle("/v1/users", sp.Handler("auth"))
		r.Handle("/v1/users/*", sp.Handler("auth"))

		// Catalog service
		r.Handle("/v1/products", sp.Handler("catalog"))
		r.Handle("/v1/products/*", sp.Handler("catalog"))
	})

	return r
}
